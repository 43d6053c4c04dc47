package waveform

import (
	"errors"
	"image"
	"sync"
)

type fakeBuffer struct {
	values   []float32
	released bool
}

func (b *fakeBuffer) Len() int { return len(b.values) }
func (b *fakeBuffer) Release() { b.released = true }

type fakePipeline struct{ released bool }

func (p *fakePipeline) Release() { p.released = true }

type drawCall struct {
	pipeline    Pipeline
	buffers     map[int]Buffer
	offsets     map[int]int
	ints        map[int]int32
	bytes       map[int][]byte
	vertexStart int
	vertexCount int
}

type fakeEncoder struct {
	cb      *fakeCommandBuffer
	current drawCall
	ended   bool
}

func (e *fakeEncoder) SetPipeline(p Pipeline) { e.current.pipeline = p }

func (e *fakeEncoder) SetFragmentBuffer(buf Buffer, offset int, index int) {
	e.current.buffers[index] = buf
	e.current.offsets[index] = offset
}

func (e *fakeEncoder) SetFragmentInt32(v int32, index int) { e.current.ints[index] = v }

func (e *fakeEncoder) SetFragmentBytes(b []byte, index int) { e.current.bytes[index] = b }

func (e *fakeEncoder) DrawTriangleStrip(vertexStart, vertexCount int) {
	e.current.vertexStart = vertexStart
	e.current.vertexCount = vertexCount
	e.cb.draws = append(e.cb.draws, e.current)
}

func (e *fakeEncoder) End() { e.ended = true }

type fakeCommandBuffer struct {
	queue     *fakeQueue
	passes    []RenderPass
	encoders  []*fakeEncoder
	draws     []drawCall
	presented []Drawable
	handlers  []func()
	committed bool
}

func (cb *fakeCommandBuffer) NewRenderEncoder(pass RenderPass) RenderEncoder {
	cb.passes = append(cb.passes, pass)
	enc := &fakeEncoder{cb: cb, current: drawCall{
		buffers: map[int]Buffer{},
		offsets: map[int]int{},
		ints:    map[int]int32{},
		bytes:   map[int][]byte{},
	}}
	cb.encoders = append(cb.encoders, enc)
	return enc
}

func (cb *fakeCommandBuffer) Present(d Drawable) { cb.presented = append(cb.presented, d) }

func (cb *fakeCommandBuffer) AddCompletedHandler(f func()) { cb.handlers = append(cb.handlers, f) }

func (cb *fakeCommandBuffer) Commit() {
	cb.committed = true
	if cb.queue.holdCompletion {
		cb.queue.mu.Lock()
		cb.queue.pending = append(cb.queue.pending, cb)
		cb.queue.mu.Unlock()
		return
	}
	cb.complete()
}

func (cb *fakeCommandBuffer) complete() {
	for _, h := range cb.handlers {
		h()
	}
}

type fakeQueue struct {
	mu             sync.Mutex
	holdCompletion bool
	buffers        []*fakeCommandBuffer
	pending        []*fakeCommandBuffer
}

func (q *fakeQueue) NewCommandBuffer() CommandBuffer {
	cb := &fakeCommandBuffer{queue: q}
	q.mu.Lock()
	q.buffers = append(q.buffers, cb)
	q.mu.Unlock()
	return cb
}

// completeOldest finishes the oldest held command buffer.
func (q *fakeQueue) completeOldest() bool {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return false
	}
	cb := q.pending[0]
	q.pending = q.pending[1:]
	q.mu.Unlock()
	cb.complete()
	return true
}

func (q *fakeQueue) last() *fakeCommandBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buffers[len(q.buffers)-1]
}

type fakeDevice struct {
	queue       *fakeQueue
	uploads     []*fakeBuffer
	failAfter   int // fail NewBuffer once this many buffers were made, 0 disables
	pipelineErr error
	queueErr    error
	queues      int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{queue: &fakeQueue{}}
}

var errOutOfMemory = errors.New("out of device memory")

func (d *fakeDevice) NewBuffer(values []float32) (Buffer, error) {
	if d.failAfter > 0 && len(d.uploads) >= d.failAfter {
		return nil, errOutOfMemory
	}
	b := &fakeBuffer{values: append([]float32(nil), values...)}
	d.uploads = append(d.uploads, b)
	return b, nil
}

func (d *fakeDevice) NewCommandQueue() (CommandQueue, error) {
	if d.queueErr != nil {
		return nil, d.queueErr
	}
	d.queues++
	return d.queue, nil
}

func (d *fakeDevice) NewPipeline(desc PipelineDescriptor) (Pipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	return &fakePipeline{}, nil
}

type fakeDrawable struct{ size image.Point }

func (d fakeDrawable) Size() image.Point { return d.size }

type fakeSurface struct {
	size image.Point
	err  error
}

func (s *fakeSurface) DrawableSize() image.Point { return s.size }

func (s *fakeSurface) NextDrawable() (Drawable, error) {
	if s.err != nil {
		return nil, s.err
	}
	return fakeDrawable{s.size}, nil
}

func values(b Buffer) []float32 {
	return b.(*fakeBuffer).values
}
