package gles

import (
	"image"
	"unsafe"

	gl "github.com/go-gl/gl/v3.1/gles2"
	mgl "github.com/go-gl/mathgl/mgl32"
)

const (
	textVertexShader = `
    precision highp float;
    attribute vec2 a_position;
    attribute vec2 a_texcoord;
    uniform mat4 u_transform;
    varying vec2 v_texcoord;
    void main(void) {
      gl_Position = u_transform * vec4(a_position, 0.0, 1.0);
      v_texcoord = a_texcoord;
    }`
	textFragmentShader = `
    precision highp float;
    uniform sampler2D u_tex;
    uniform vec4 u_color;
    varying vec2 v_texcoord;
    void main(void) {
      gl_FragColor = u_color * texture2D(u_tex, v_texcoord).a;
    }`
)

type textVertex struct {
	position [2]float32
	texcoord [2]float32
}

// GlyphAtlas maps runes to texture rectangles of an alpha image.
type GlyphAtlas interface {
	TexCoords(r rune) (s0, t0, s1, t1 float32)
}

// TextLayer draws monospaced text from a glyph atlas, one tile per
// rune.
type TextLayer struct {
	atlas       GlyphAtlas
	tileSize    image.Point
	tex         Texture
	program     Program
	vertices    []textVertex
	a_position  int32
	a_texcoord  int32
	u_transform int32
	u_tex       int32
	u_color     int32
}

func NewTextLayer(img *image.Alpha, tileSize image.Point, atlas GlyphAtlas) (*TextLayer, error) {
	program, err := CreateProgram(textVertexShader, textFragmentShader)
	if err != nil {
		return nil, err
	}
	tex, err := CreateTexture()
	if err != nil {
		program.Close()
		return nil, err
	}
	size := img.Bounds().Size()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.ALPHA,
		int32(size.X), int32(size.Y),
		0, gl.ALPHA, gl.UNSIGNED_BYTE,
		gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return &TextLayer{
		atlas:       atlas,
		tileSize:    tileSize,
		tex:         tex,
		program:     program,
		vertices:    make([]textVertex, 0, 6*256),
		a_position:  program.GetAttribLocation("a_position"),
		a_texcoord:  program.GetAttribLocation("a_texcoord"),
		u_transform: program.GetUniformLocation("u_transform"),
		u_tex:       program.GetUniformLocation("u_tex"),
		u_color:     program.GetUniformLocation("u_color"),
	}, nil
}

func (tl *TextLayer) TileSize() image.Point {
	return tl.tileSize
}

func (tl *TextLayer) Clear() {
	tl.vertices = tl.vertices[:0]
}

// DrawRune places r at tile column x, row y.
func (tl *TextLayer) DrawRune(x, y int, r rune) {
	s0, t0, s1, t1 := tl.atlas.TexCoords(r)
	x0 := float32(x)
	x1 := float32(x + 1)
	y0 := float32(-y)
	y1 := float32(-y - 1)
	tl.vertices = append(tl.vertices,
		textVertex{[2]float32{x0, y0}, [2]float32{s0, t0}},
		textVertex{[2]float32{x0, y1}, [2]float32{s0, t1}},
		textVertex{[2]float32{x1, y1}, [2]float32{s1, t1}},
		textVertex{[2]float32{x1, y1}, [2]float32{s1, t1}},
		textVertex{[2]float32{x1, y0}, [2]float32{s1, t0}},
		textVertex{[2]float32{x0, y0}, [2]float32{s0, t0}},
	)
}

func (tl *TextLayer) DrawString(x, y int, s string) {
	col := 0
	for _, r := range s {
		tl.DrawRune(x+col, y, r)
		col++
	}
}

// Render draws the queued runes into rect of a framebuffer of the
// given size, with the top left tile at rect.Min.
func (tl *TextLayer) Render(framebuffer image.Point, rect image.Rectangle, color [4]float32) {
	if len(tl.vertices) == 0 || framebuffer.X <= 0 || framebuffer.Y <= 0 {
		return
	}
	tl.program.Use()
	tl.tex.Bind(0)
	gl.Uniform1i(tl.u_tex, 0)
	gl.Uniform4fv(tl.u_color, 1, &color[0])
	stride := int32(unsafe.Sizeof(textVertex{}))
	gl.EnableVertexAttribArray(uint32(tl.a_position))
	gl.VertexAttribPointer(uint32(tl.a_position), 2, gl.FLOAT, false, stride,
		gl.Ptr(&tl.vertices[0].position[0]))
	gl.EnableVertexAttribArray(uint32(tl.a_texcoord))
	gl.VertexAttribPointer(uint32(tl.a_texcoord), 2, gl.FLOAT, false, stride,
		gl.Ptr(&tl.vertices[0].texcoord[0]))
	ux := 2.0 / float32(framebuffer.X)
	uy := 2.0 / float32(framebuffer.Y)
	mScale := mgl.Scale3D(ux*float32(tl.tileSize.X), uy*float32(tl.tileSize.Y), 1)
	mTranslate := mgl.Translate3D(-1.0+ux*float32(rect.Min.X), 1.0-uy*float32(rect.Min.Y), 0)
	mTransform := mTranslate.Mul4(mScale)
	gl.UniformMatrix4fv(tl.u_transform, 1, false, &mTransform[0])
	gl.Viewport(0, 0, int32(framebuffer.X), int32(framebuffer.Y))
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(rect.Min.X), int32(framebuffer.Y-rect.Max.Y), int32(rect.Dx()), int32(rect.Dy()))
	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(tl.vertices)))
	gl.Disable(gl.BLEND)
	gl.Disable(gl.SCISSOR_TEST)
	gl.DisableVertexAttribArray(uint32(tl.a_position))
	gl.DisableVertexAttribArray(uint32(tl.a_texcoord))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (tl *TextLayer) Close() error {
	tl.tex.Close()
	return tl.program.Close()
}
