package gles

import (
	"context"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellux/waveview/waveform"
)

// fakeFence signals when waited on, or when the test says so.
type fakeFence struct {
	signaled bool
	timeouts int
	waits    int
	deleted  bool
}

func (f *fakeFence) Signaled() bool { return f.signaled }

func (f *fakeFence) Wait(timeout time.Duration) waitStatus {
	f.waits++
	if f.timeouts > 0 {
		f.timeouts--
		return waitTimeout
	}
	f.signaled = true
	return waitDone
}

func (f *fakeFence) Delete() { f.deleted = true }

func TestFenceQueueWaitsBeyondMaxPending(t *testing.T) {
	q := fenceQueue{maxPending: 2, waitTimeout: time.Millisecond}
	var done []int
	fences := make([]*fakeFence, 3)
	for i := range fences {
		i := i
		fences[i] = &fakeFence{}
		q.push(fences[i], []func(){func() { done = append(done, i) }})
	}
	assert.Equal(t, []int{0}, done)
	assert.Equal(t, 2, q.Pending())
	assert.Equal(t, 1, fences[0].waits)
	assert.True(t, fences[0].deleted)
	assert.Zero(t, fences[1].waits)
}

func TestFenceQueueZeroPendingWaitsForOwnFrame(t *testing.T) {
	q := fenceQueue{maxPending: 0, waitTimeout: time.Millisecond}
	ran := false
	f := &fakeFence{}
	q.push(f, []func(){func() { ran = true }})
	assert.True(t, ran)
	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 1, f.waits)
}

func TestFenceQueueRetireKeepsOrder(t *testing.T) {
	q := fenceQueue{maxPending: 3, waitTimeout: time.Millisecond}
	var done []int
	fences := []*fakeFence{{}, {}, {}}
	for i, f := range fences {
		i := i
		q.push(f, []func(){func() { done = append(done, i) }})
	}
	// a later frame finishing first does not overtake the oldest
	fences[1].signaled = true
	q.retire()
	assert.Empty(t, done)

	fences[0].signaled = true
	q.retire()
	assert.Equal(t, []int{0, 1}, done)
	assert.Equal(t, 1, q.Pending())

	q.finish()
	assert.Equal(t, []int{0, 1, 2}, done)
}

func TestFenceQueueKeepsWaitingAfterTimeout(t *testing.T) {
	q := fenceQueue{maxPending: 0, waitTimeout: time.Millisecond}
	f := &fakeFence{timeouts: 2}
	q.push(f, nil)
	assert.Equal(t, 3, f.waits)
	assert.True(t, f.deleted)
}

// fenceDevice is a waveform.Device whose command buffers complete
// through a fenceQueue, the way CommandQueue does without a GL context.
type fenceDevice struct {
	maxPending int
}

type nopBuffer struct{ n int }

func (b nopBuffer) Len() int { return b.n }
func (b nopBuffer) Release() {}

type nopPipeline struct{}

func (nopPipeline) Release() {}

func (d *fenceDevice) NewBuffer(values []float32) (waveform.Buffer, error) {
	return nopBuffer{len(values)}, nil
}

func (d *fenceDevice) NewCommandQueue() (waveform.CommandQueue, error) {
	return &fenceCommandQueue{fences: fenceQueue{maxPending: d.maxPending, waitTimeout: time.Millisecond}}, nil
}

func (d *fenceDevice) NewPipeline(desc waveform.PipelineDescriptor) (waveform.Pipeline, error) {
	return nopPipeline{}, nil
}

type fenceCommandQueue struct {
	fences fenceQueue
}

func (q *fenceCommandQueue) NewCommandBuffer() waveform.CommandBuffer {
	q.fences.retire()
	return &fenceCommandBuffer{queue: q}
}

type fenceCommandBuffer struct {
	queue    *fenceCommandQueue
	handlers []func()
}

func (cb *fenceCommandBuffer) NewRenderEncoder(waveform.RenderPass) waveform.RenderEncoder {
	return nopEncoder{}
}
func (cb *fenceCommandBuffer) Present(waveform.Drawable)    {}
func (cb *fenceCommandBuffer) AddCompletedHandler(f func()) { cb.handlers = append(cb.handlers, f) }
func (cb *fenceCommandBuffer) Commit()                      { cb.queue.fences.push(&fakeFence{}, cb.handlers) }

type nopEncoder struct{}

func (nopEncoder) SetPipeline(waveform.Pipeline)               {}
func (nopEncoder) SetFragmentBuffer(waveform.Buffer, int, int) {}
func (nopEncoder) SetFragmentInt32(int32, int)                 {}
func (nopEncoder) SetFragmentBytes([]byte, int)                {}
func (nopEncoder) DrawTriangleStrip(int, int)                  {}
func (nopEncoder) End()                                        {}

type sizeDrawable image.Point

func (d sizeDrawable) Size() image.Point { return image.Point(d) }

type sizeSurface image.Point

func (s sizeSurface) DrawableSize() image.Point { return image.Point(s) }
func (s sizeSurface) NextDrawable() (waveform.Drawable, error) {
	return sizeDrawable(s), nil
}

func TestRendererNeverBlocksWithMatchingMaxPending(t *testing.T) {
	for maxInFlight := 1; maxInFlight <= 4; maxInFlight++ {
		t.Run(fmt.Sprintf("inflight=%d", maxInFlight), func(t *testing.T) {
			device := &fenceDevice{maxPending: maxInFlight - 1}
			r, err := waveform.NewRenderer(device, waveform.WithMaxInFlight(maxInFlight))
			require.NoError(t, err)
			surface := sizeSurface(image.Pt(16, 16))
			for i := 0; i < 3*waveform.MaxBuffers; i++ {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				err := r.Draw(ctx, surface)
				cancel()
				require.NoError(t, err)
			}
			assert.Equal(t, uint64(3*waveform.MaxBuffers), r.Stats().FramesDrawn)
		})
	}
}
