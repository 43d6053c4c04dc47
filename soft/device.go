// Package soft is a software implementation of waveform.Device.
//
// Command buffers are executed on a worker goroutine per command
// queue, in submission order, and rasterized into image.RGBA
// drawables handed out by a Surface.
package soft

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cellux/waveview/waveform"
)

var logger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

var ErrDeviceClosed = errors.New("device closed")

type Buffer struct {
	values   []float32
	released bool
}

func (b *Buffer) Len() int {
	return len(b.values)
}

// Release marks the buffer as released. Frames already committed keep
// reading the values they captured.
func (b *Buffer) Release() {
	b.released = true
}

func (b *Buffer) Released() bool {
	return b.released
}

type Pipeline struct {
	desc waveform.PipelineDescriptor
}

func (p *Pipeline) Release() {}

type Device struct {
	mu     sync.Mutex
	closed bool
	queues []*CommandQueue
}

func NewDevice() *Device {
	return &Device{}
}

func (d *Device) NewBuffer(values []float32) (waveform.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	return &Buffer{values: append([]float32(nil), values...)}, nil
}

func (d *Device) NewCommandQueue() (waveform.CommandQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	q := &CommandQueue{
		buffers: make(chan *CommandBuffer, 16),
		done:    make(chan struct{}),
	}
	go q.run()
	d.queues = append(d.queues, q)
	return q, nil
}

// NewPipeline only knows the waveform shader functions.
func (d *Device) NewPipeline(desc waveform.PipelineDescriptor) (waveform.Pipeline, error) {
	if desc.VertexFunction != waveform.VertexFunction {
		return nil, fmt.Errorf("unknown vertex function: %q", desc.VertexFunction)
	}
	if desc.FragmentFunction != waveform.FragmentFunction {
		return nil, fmt.Errorf("unknown fragment function: %q", desc.FragmentFunction)
	}
	return &Pipeline{desc: desc}, nil
}

// WaitIdle blocks until every committed command buffer has completed.
func (d *Device) WaitIdle() {
	d.mu.Lock()
	queues := append([]*CommandQueue(nil), d.queues...)
	d.mu.Unlock()
	for _, q := range queues {
		q.pending.Wait()
	}
}

// Close finishes pending work and stops the queue workers.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	queues := d.queues
	d.queues = nil
	d.mu.Unlock()
	for _, q := range queues {
		close(q.buffers)
		<-q.done
	}
	return nil
}

type CommandQueue struct {
	buffers chan *CommandBuffer
	pending sync.WaitGroup
	done    chan struct{}
}

func (q *CommandQueue) NewCommandBuffer() waveform.CommandBuffer {
	return &CommandBuffer{queue: q}
}

func (q *CommandQueue) run() {
	defer close(q.done)
	for cb := range q.buffers {
		cb.execute()
		q.pending.Done()
	}
}

type pass struct {
	waveform.RenderPass
	draws []drawState
}

type drawState struct {
	pipeline    *Pipeline
	buffers     [2][]float32
	count       int32
	constants   waveform.Constants
	vertexCount int
}

type CommandBuffer struct {
	queue     *CommandQueue
	passes    []*pass
	presents  []*Drawable
	handlers  []func()
	committed bool
}

func (cb *CommandBuffer) NewRenderEncoder(rp waveform.RenderPass) waveform.RenderEncoder {
	p := &pass{RenderPass: rp}
	cb.passes = append(cb.passes, p)
	return &renderEncoder{pass: p}
}

func (cb *CommandBuffer) Present(d waveform.Drawable) {
	if sd, ok := d.(*Drawable); ok {
		cb.presents = append(cb.presents, sd)
	} else {
		logger.Error("cannot present foreign drawable", "drawable", d)
	}
}

func (cb *CommandBuffer) AddCompletedHandler(f func()) {
	cb.handlers = append(cb.handlers, f)
}

func (cb *CommandBuffer) Commit() {
	if cb.committed {
		panic("soft: command buffer committed twice")
	}
	cb.committed = true
	cb.queue.pending.Add(1)
	cb.queue.buffers <- cb
}

func (cb *CommandBuffer) execute() {
	for _, p := range cb.passes {
		target, ok := p.Target.(*Drawable)
		if !ok {
			logger.Error("render pass target is not a soft drawable", "target", p.Target)
			continue
		}
		clearImage(target.img, p.ClearColor)
		for _, d := range p.draws {
			rasterize(target.img, d)
		}
	}
	for _, d := range cb.presents {
		d.present()
	}
	for _, h := range cb.handlers {
		h()
	}
}

type renderEncoder struct {
	pass    *pass
	current drawState
	ended   bool
}

func (e *renderEncoder) SetPipeline(p waveform.Pipeline) {
	e.current.pipeline, _ = p.(*Pipeline)
}

func (e *renderEncoder) SetFragmentBuffer(buf waveform.Buffer, offset int, index int) {
	b, ok := buf.(*Buffer)
	if !ok || index < 0 || index > 1 {
		return
	}
	start := offset / 4
	switch {
	case start < 0:
		// out of range reads are uncovered
		e.current.buffers[index] = nil
	case start >= len(b.values):
		e.current.buffers[index] = []float32{}
	default:
		e.current.buffers[index] = b.values[start:]
	}
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
	e.current.vertexCount = vertexCount
	e.pass.draws = append(e.pass.draws, e.current)
}

func (e *renderEncoder) End() {
	e.ended = true
}
