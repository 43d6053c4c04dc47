package waveform

import "image"

// Fragment stage binding indices shared by every backend's shader.
const (
	BindingMinBuffer = 0
	BindingMaxBuffer = 1
	BindingCount     = 2
	BindingConstants = 3
)

// Names of the shader entry points the renderer asks for.
const (
	VertexFunction   = "waveform_vert"
	FragmentFunction = "waveform_frag"
)

// Device is a GPU (or something pretending to be one) able to hold
// float buffers and execute waveform draw calls.
type Device interface {
	NewBuffer(values []float32) (Buffer, error)
	NewCommandQueue() (CommandQueue, error)
	NewPipeline(desc PipelineDescriptor) (Pipeline, error)
}

// Buffer is a device resident array of float32 values.
type Buffer interface {
	// Len returns the number of float32 elements.
	Len() int
	Release()
}

type Pipeline interface {
	Release()
}

// BlendFactor selects a blend factor for the color attachment.
type BlendFactor int

const (
	BlendOne BlendFactor = iota
	BlendSourceAlpha
	BlendOneMinusSourceAlpha
)

type PipelineDescriptor struct {
	VertexFunction   string
	FragmentFunction string
	BlendingEnabled  bool
	SourceFactor     BlendFactor
	DestFactor       BlendFactor
}

type CommandQueue interface {
	NewCommandBuffer() CommandBuffer
}

// CommandBuffer collects the work of one frame.
//
// Completed handlers run after the device has finished executing the
// buffer, on a goroutine chosen by the backend.
type CommandBuffer interface {
	NewRenderEncoder(pass RenderPass) RenderEncoder
	Present(d Drawable)
	AddCompletedHandler(f func())
	Commit()
}

// RenderPass describes the target of a render encoder.
type RenderPass struct {
	Target     Drawable
	ClearColor [4]float32
}

type RenderEncoder interface {
	SetPipeline(p Pipeline)
	// SetFragmentBuffer binds buf starting at offset bytes.
	SetFragmentBuffer(buf Buffer, offset int, index int)
	SetFragmentInt32(v int32, index int)
	SetFragmentBytes(b []byte, index int)
	DrawTriangleStrip(vertexStart, vertexCount int)
	End()
}

// Drawable is a render target handed out by a Surface.
type Drawable interface {
	Size() image.Point
}

// Surface is the presentation surface the renderer draws into. It is
// owned by the host.
type Surface interface {
	DrawableSize() image.Point
	NextDrawable() (Drawable, error)
}
