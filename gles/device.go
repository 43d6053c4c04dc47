// Package gles implements waveform.Device on OpenGL ES 3.
//
// All methods, including Commit and Release, must be called on the
// goroutine owning the current GL context.
package gles

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	gl "github.com/go-gl/gl/v3.1/gles2"
	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/cellux/waveview/waveform"
)

var logger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

var (
	ErrNoDrawable      = errors.New("no drawable available")
	ErrBufferTooLarge  = errors.New("buffer exceeds maximum texture size")
	ErrUnknownFunction = errors.New("unknown shader function")
)

// MaxPending is the default number of committed frames a queue lets
// the GL driver buffer before waiting for the oldest one. It must stay
// below the renderer's in-flight limit so that a frame slot is always
// released by the time the renderer asks for a new one; use
// WithMaxPending when that limit is lowered.
const MaxPending = waveform.MaxBuffers - 1

const fenceTimeout = time.Second

type Buffer struct {
	tex Texture
	n   int
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) Release() {
	b.tex.Close()
}

type Pipeline struct {
	program     Program
	blend       bool
	srcFactor   uint32
	dstFactor   uint32
	u_transform int32
	u_min       int32
	u_max       int32
	u_start     int32
	u_limit     int32
	u_count     int32
	u_color     int32
}

func (p *Pipeline) Release() {
	p.program.Close()
}

type Device struct {
	maxTextureSize int32
	vao            uint32
	maxPending     int
	newFence       func() fence
	queues         []*CommandQueue
}

type DeviceOption func(d *Device)

// WithMaxPending sets how many frames each command queue leaves
// outstanding. Pass the renderer's in-flight limit minus one. With 0,
// Commit waits for the frame it just issued.
func WithMaxPending(n int) DeviceOption {
	return func(d *Device) {
		d.maxPending = max(n, 0)
	}
}

// NewDevice must be called after gl.Init on the GL thread.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	d := &Device{
		maxPending: MaxPending,
		newFence:   newGLFence,
	}
	for _, opt := range opts {
		opt(d)
	}
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &d.maxTextureSize)
	if d.maxTextureSize < texWidth {
		return nil, fmt.Errorf("GL_MAX_TEXTURE_SIZE %d is below %d", d.maxTextureSize, texWidth)
	}
	gl.GenVertexArrays(1, &d.vao)
	logger.Debug("GL device",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"maxTextureSize", d.maxTextureSize,
		"maxPending", d.maxPending)
	return d, nil
}

// Close waits for committed frames, running their handlers, and
// deletes the device's GL objects.
func (d *Device) Close() error {
	for _, q := range d.queues {
		q.fences.finish()
	}
	d.queues = nil
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	return nil
}

func textureLayout(n int) (width, height int) {
	if n <= 0 {
		return 1, 1
	}
	width = min(n, texWidth)
	height = (n + texWidth - 1) / texWidth
	return width, height
}

func (d *Device) NewBuffer(values []float32) (waveform.Buffer, error) {
	width, height := textureLayout(len(values))
	if height > int(d.maxTextureSize) {
		return nil, fmt.Errorf("%d values: %w", len(values), ErrBufferTooLarge)
	}
	data := make([]float32, width*height)
	copy(data, values)
	tex, err := CreateTexture()
	if err != nil {
		return nil, err
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F,
		int32(width), int32(height),
		0, gl.RED, gl.FLOAT,
		gl.Ptr(data))
	if e := gl.GetError(); e != gl.NO_ERROR {
		tex.Close()
		return nil, fmt.Errorf("upload %d values: GL error 0x%x", len(values), e)
	}
	return &Buffer{tex: tex, n: len(values)}, nil
}

func glBlendFactor(f waveform.BlendFactor) uint32 {
	switch f {
	case waveform.BlendSourceAlpha:
		return gl.SRC_ALPHA
	case waveform.BlendOneMinusSourceAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	default:
		return gl.ONE
	}
}

func (d *Device) NewPipeline(desc waveform.PipelineDescriptor) (waveform.Pipeline, error) {
	vs, ok := shaderSources[desc.VertexFunction]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, desc.VertexFunction)
	}
	fs, ok := shaderSources[desc.FragmentFunction]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, desc.FragmentFunction)
	}
	program, err := CreateProgram(vs, fs)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		program:     program,
		blend:       desc.BlendingEnabled,
		srcFactor:   glBlendFactor(desc.SourceFactor),
		dstFactor:   glBlendFactor(desc.DestFactor),
		u_transform: program.GetUniformLocation("u_transform"),
		u_min:       program.GetUniformLocation("u_min"),
		u_max:       program.GetUniformLocation("u_max"),
		u_start:     program.GetUniformLocation("u_start"),
		u_limit:     program.GetUniformLocation("u_limit"),
		u_count:     program.GetUniformLocation("u_count"),
		u_color:     program.GetUniformLocation("u_color"),
	}, nil
}

func (d *Device) NewCommandQueue() (waveform.CommandQueue, error) {
	q := &CommandQueue{
		device: d,
		fences: fenceQueue{maxPending: d.maxPending, waitTimeout: fenceTimeout},
	}
	d.queues = append(d.queues, q)
	return q, nil
}

type glFence struct {
	sync uintptr
}

// newGLFence fences the commands issued so far and flushes them.
func newGLFence() fence {
	f := glFence{sync: gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)}
	gl.Flush()
	return f
}

func (f glFence) Signaled() bool {
	status := gl.ClientWaitSync(f.sync, 0, 0)
	return status == gl.ALREADY_SIGNALED || status == gl.CONDITION_SATISFIED
}

func (f glFence) Wait(timeout time.Duration) waitStatus {
	switch gl.ClientWaitSync(f.sync, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(timeout)) {
	case gl.TIMEOUT_EXPIRED:
		return waitTimeout
	case gl.WAIT_FAILED:
		logger.Error("glClientWaitSync failed", "error", gl.GetError())
		return waitFailed
	default:
		return waitDone
	}
}

func (f glFence) Delete() {
	gl.DeleteSync(f.sync)
}

// CommandQueue tracks committed frames with fence objects.
type CommandQueue struct {
	device *Device
	fences fenceQueue
}

func (q *CommandQueue) NewCommandBuffer() waveform.CommandBuffer {
	q.fences.retire()
	return &CommandBuffer{queue: q}
}

type drawState struct {
	pipeline    *Pipeline
	buffers     [2]*Buffer
	start       int32
	count       int32
	constants   waveform.Constants
	vertexStart int32
	vertexCount int32
}

type pass struct {
	waveform.RenderPass
	draws []drawState
}

type CommandBuffer struct {
	queue    *CommandQueue
	passes   []*pass
	presents []*Drawable
	handlers []func()
}

func (cb *CommandBuffer) NewRenderEncoder(rp waveform.RenderPass) waveform.RenderEncoder {
	p := &pass{RenderPass: rp}
	cb.passes = append(cb.passes, p)
	return &renderEncoder{pass: p}
}

func (cb *CommandBuffer) Present(d waveform.Drawable) {
	if gd, ok := d.(*Drawable); ok {
		cb.presents = append(cb.presents, gd)
	}
}

func (cb *CommandBuffer) AddCompletedHandler(f func()) {
	cb.handlers = append(cb.handlers, f)
}

// Commit issues the recorded GL calls and fences them.
func (cb *CommandBuffer) Commit() {
	for _, p := range cb.passes {
		target, ok := p.Target.(*Drawable)
		if !ok {
			logger.Error("render pass target is not a GL drawable", "target", p.Target)
			continue
		}
		cb.execute(p, target)
	}
	for _, d := range cb.presents {
		d.present()
	}
	q := cb.queue
	q.fences.push(q.device.newFence(), cb.handlers)
}

func (cb *CommandBuffer) execute(p *pass, target *Drawable) {
	rect := target.rect
	fb := target.framebuffer
	gl.Viewport(0, 0, int32(fb.X), int32(fb.Y))
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(rect.Min.X), int32(fb.Y-rect.Max.Y), int32(rect.Dx()), int32(rect.Dy()))
	c := p.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	// map the unit quad onto the target rectangle, y pointing down
	ux := 2.0 / float32(fb.X)
	uy := 2.0 / float32(fb.Y)
	mScale := mgl.Scale3D(ux*float32(rect.Dx()), -uy*float32(rect.Dy()), 1)
	mTranslate := mgl.Translate3D(-1.0+ux*float32(rect.Min.X), 1.0-uy*float32(rect.Min.Y), 0)
	mTransform := mTranslate.Mul4(mScale)

	gl.BindVertexArray(cb.queue.device.vao)
	for _, d := range p.draws {
		pl := d.pipeline
		if d.buffers[0] == nil || d.buffers[1] == nil {
			continue
		}
		pl.program.Use()
		gl.UniformMatrix4fv(pl.u_transform, 1, false, &mTransform[0])
		d.buffers[0].tex.Bind(0)
		gl.Uniform1i(pl.u_min, 0)
		d.buffers[1].tex.Bind(1)
		gl.Uniform1i(pl.u_max, 1)
		gl.Uniform1i(pl.u_start, d.start)
		gl.Uniform1i(pl.u_limit, int32(min(d.buffers[0].n, d.buffers[1].n)))
		gl.Uniform1i(pl.u_count, d.count)
		gl.Uniform4fv(pl.u_color, 1, &d.constants.Color[0])
		if pl.blend {
			gl.Enable(gl.BLEND)
			gl.BlendEquation(gl.FUNC_ADD)
			gl.BlendFunc(pl.srcFactor, pl.dstFactor)
		}
		gl.DrawArrays(gl.TRIANGLE_STRIP, d.vertexStart, d.vertexCount)
		if pl.blend {
			gl.Disable(gl.BLEND)
		}
	}
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Disable(gl.SCISSOR_TEST)
}

type renderEncoder struct {
	pass    *pass
	current drawState
}

func (e *renderEncoder) SetPipeline(p waveform.Pipeline) {
	e.current.pipeline, _ = p.(*Pipeline)
}

func (e *renderEncoder) SetFragmentBuffer(buf waveform.Buffer, offset int, index int) {
	b, ok := buf.(*Buffer)
	if !ok || index < 0 || index > 1 {
		return
	}
	e.current.buffers[index] = b
	// both buffers share one offset uniform
	e.current.start = int32(offset / 4)
}

func (e *renderEncoder) SetFragmentInt32(v int32, index int) {
	if index == waveform.BindingCount {
		e.current.count = v
	}
}

func (e *renderEncoder) SetFragmentBytes(b []byte, index int) {
	if index != waveform.BindingConstants {
		return
	}
	if c, ok := waveform.DecodeConstants(b); ok {
		e.current.constants = c
	}
}

func (e *renderEncoder) DrawTriangleStrip(vertexStart, vertexCount int) {
	if e.current.pipeline == nil {
		logger.Error("draw without pipeline")
		return
	}
	e.current.vertexStart = int32(vertexStart)
	e.current.vertexCount = int32(vertexCount)
	e.pass.draws = append(e.pass.draws, e.current)
}

func (e *renderEncoder) End() {}
