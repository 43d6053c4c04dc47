package gles

import (
	"fmt"

	"github.com/cellux/waveview/waveform"
)

// texWidth is the row length of the textures holding buffer values.
const texWidth = 2048

const waveformVertexShader = `#version 300 es
precision highp float;
uniform mat4 u_transform;
out vec2 v_t;
void main(void) {
  vec2 p = vec2(float(gl_VertexID & 1), float((gl_VertexID >> 1) & 1));
  v_t = p;
  gl_Position = u_transform * vec4(p.x, 1.0 - p.y, 0.0, 1.0);
}
`

var waveformFragmentShader = fmt.Sprintf(`#version 300 es
precision highp float;
precision highp int;
uniform highp sampler2D u_min;
uniform highp sampler2D u_max;
uniform int u_start;
uniform int u_limit;
uniform int u_count;
uniform vec4 u_color;
in vec2 v_t;
out vec4 fragColor;

float fetch(highp sampler2D s, int i) {
  return texelFetch(s, ivec2(i %% %[1]d, i / %[1]d), 0).r;
}

void main(void) {
  if (u_count <= 0) {
    discard;
  }
  int i = u_start + min(int(v_t.x * float(u_count)), u_count - 1);
  if (i < 0 || i >= u_limit) {
    discard;
  }
  float s = v_t.y * 2.0 - 1.0;
  if (s < fetch(u_min, i) || s > fetch(u_max, i)) {
    discard;
  }
  fragColor = u_color;
}
`, texWidth)

// shaderSources maps the function names a pipeline asks for to GLSL.
var shaderSources = map[string]string{
	waveform.VertexFunction:   waveformVertexShader,
	waveform.FragmentFunction: waveformFragmentShader,
}
