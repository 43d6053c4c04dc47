package waveform

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// MaxBuffers is the default number of frames which may be in flight.
const MaxBuffers = 3

const floatSize = 4

// Renderer draws a SampleBuffer as a min/max envelope.
//
// Set and Draw must be called from the same goroutine. Only the
// in-flight throttle is touched by completion handlers.
type Renderer struct {
	device     Device
	queue      CommandQueue
	pipeline   Pipeline
	constants  Constants
	clearColor [4]float32

	maxInFlight int64
	inflight    *semaphore.Weighted

	fallback Pyramid
	pyramid  Pyramid

	samples *SampleBuffer
	start   int
	length  int

	framesDrawn   atomic.Uint64
	framesDropped atomic.Uint64
	rebuilds      atomic.Uint64
}

type Option func(r *Renderer)

func WithConstants(c Constants) Option {
	return func(r *Renderer) {
		r.constants = c
	}
}

// WithMaxInFlight overrides MaxBuffers. Values below 1 are ignored.
func WithMaxInFlight(n int) Option {
	return func(r *Renderer) {
		if n >= 1 {
			r.maxInFlight = int64(n)
		}
	}
}

func WithClearColor(c [4]float32) Option {
	return func(r *Renderer) {
		r.clearColor = c
	}
}

// NewRenderer compiles the waveform pipeline on device. A pipeline
// that cannot be built is returned as an error: nothing can be drawn
// without it.
func NewRenderer(device Device, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		device:      device,
		constants:   DefaultConstants(),
		maxInFlight: MaxBuffers,
		samples:     NewSampleBuffer([]float32{0}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.inflight = semaphore.NewWeighted(r.maxInFlight)
	pipeline, err := device.NewPipeline(PipelineDescriptor{
		VertexFunction:   VertexFunction,
		FragmentFunction: FragmentFunction,
		BlendingEnabled:  true,
		SourceFactor:     BlendSourceAlpha,
		DestFactor:       BlendOneMinusSourceAlpha,
	})
	if err != nil {
		return nil, fmt.Errorf("create waveform pipeline: %w", err)
	}
	minBuffer, err := device.NewBuffer([]float32{0})
	if err != nil {
		pipeline.Release()
		return nil, fmt.Errorf("create fallback buffer: %w", err)
	}
	maxBuffer, err := device.NewBuffer([]float32{0})
	if err != nil {
		minBuffer.Release()
		pipeline.Release()
		return nil, fmt.Errorf("create fallback buffer: %w", err)
	}
	fallback := Pyramid{Mins: []Buffer{minBuffer}, Maxes: []Buffer{maxBuffer}}
	// the queue comes last: it has no Release and may own a worker
	queue, err := device.NewCommandQueue()
	if err != nil {
		fallback.Release()
		pipeline.Release()
		return nil, fmt.Errorf("create command queue: %w", err)
	}
	r.pipeline = pipeline
	r.fallback = fallback
	r.queue = queue
	r.pyramid = r.fallback
	return r, nil
}

func (r *Renderer) Samples() *SampleBuffer {
	return r.samples
}

func (r *Renderer) Window() (start, length int) {
	return r.start, r.length
}

// Pyramid returns the buffers currently used for drawing.
func (r *Renderer) Pyramid() Pyramid {
	return r.pyramid
}

func (r *Renderer) Constants() Constants {
	return r.constants
}

func (r *Renderer) SetConstants(c Constants) {
	r.constants = c
}

// Set updates the visible window and, if samples is not the buffer
// currently shown, rebuilds the buffer pyramid.
//
// start and length are offsets into samples and must satisfy
// 0 <= start and start+length <= samples.Count(); they are not checked.
func (r *Renderer) Set(samples *SampleBuffer, start, length int) error {
	r.start = start
	r.length = length
	if samples.ID() == r.samples.ID() {
		return nil
	}
	pyramid, err := MakeBuffers(r.device, samples)
	if err != nil {
		return fmt.Errorf("build pyramid for %v: %w", samples, err)
	}
	if pyramid.Empty() {
		pyramid = r.fallback
	}
	old := r.pyramid
	r.samples = samples
	r.pyramid = pyramid
	r.rebuilds.Add(1)
	if !r.isFallback(old) {
		old.Release()
	}
	logger.Debug("rebuilt buffer pyramid", "samples", samples, "levels", pyramid.Levels())
	return nil
}

func (r *Renderer) isFallback(p Pyramid) bool {
	return len(p.Mins) == 1 && p.Mins[0] == r.fallback.Mins[0]
}

// SelectBuffers returns the first level with fewer than width
// elements, or the coarsest level if there is none.
func (r *Renderer) SelectBuffers(width float64) (minBuffer, maxBuffer Buffer) {
	return r.pyramid.Select(width)
}

// Select implements Renderer.SelectBuffers for a pyramid.
func (p Pyramid) Select(width float64) (minBuffer, maxBuffer Buffer) {
	for i, b := range p.Mins {
		if float64(b.Len()) < width {
			return b, p.Maxes[i]
		}
	}
	if len(p.Mins) == 0 {
		return nil, nil
	}
	last := len(p.Mins) - 1
	return p.Mins[last], p.Maxes[last]
}

// Encode records the draw call of one frame into cb. width is the
// pixel width of target.
func (r *Renderer) Encode(cb CommandBuffer, target Drawable, width float64) {
	enc := cb.NewRenderEncoder(RenderPass{
		Target:     target,
		ClearColor: r.clearColor,
	})
	defer enc.End()

	highestResolutionCount := float64(r.samples.Count())
	if highestResolutionCount == 0 {
		return
	}
	startFactor := float64(r.start) / highestResolutionCount
	lengthFactor := float64(r.length) / highestResolutionCount

	minBuffer, maxBuffer := r.SelectBuffers(width / lengthFactor)
	if minBuffer == nil || maxBuffer == nil {
		return
	}

	bufferLength := float64(minBuffer.Len())
	bufferStart := int(bufferLength * startFactor)
	bufferCount := int(bufferLength * lengthFactor)

	enc.SetPipeline(r.pipeline)
	enc.SetFragmentBuffer(minBuffer, bufferStart*floatSize, BindingMinBuffer)
	enc.SetFragmentBuffer(maxBuffer, bufferStart*floatSize, BindingMaxBuffer)
	enc.SetFragmentInt32(int32(bufferCount), BindingCount)
	enc.SetFragmentBytes(r.constants.Bytes(), BindingConstants)
	enc.DrawTriangleStrip(0, 4)
}

// Draw renders one frame into the next drawable of surface.
//
// Draw blocks while the maximum number of frames is in flight. It
// returns an error only if ctx ends while waiting; a surface without a
// free drawable just drops the frame.
func (r *Renderer) Draw(ctx context.Context, surface Surface) error {
	size := surface.DrawableSize()
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	if err := r.inflight.Acquire(ctx, 1); err != nil {
		return err
	}

	cb := r.queue.NewCommandBuffer()
	inflight := r.inflight
	cb.AddCompletedHandler(func() {
		inflight.Release(1)
	})

	drawable, err := surface.NextDrawable()
	if err != nil {
		r.framesDropped.Add(1)
		logger.Warn("couldn't get drawable", "error", err)
	} else {
		r.Encode(cb, drawable, float64(size.X))
		cb.Present(drawable)
		r.framesDrawn.Add(1)
	}

	cb.Commit()
	return nil
}

// Stats are counters kept since the renderer was created.
type Stats struct {
	FramesDrawn   uint64
	FramesDropped uint64
	Rebuilds      uint64
}

func (r *Renderer) Stats() Stats {
	return Stats{
		FramesDrawn:   r.framesDrawn.Load(),
		FramesDropped: r.framesDropped.Load(),
		Rebuilds:      r.rebuilds.Load(),
	}
}

// Close releases all device resources. In-flight frames are not
// waited for.
func (r *Renderer) Close() error {
	if !r.isFallback(r.pyramid) {
		r.pyramid.Release()
	}
	r.fallback.Release()
	r.pipeline.Release()
	r.pyramid = Pyramid{}
	return nil
}
