package soft

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellux/waveview/waveform"
)

func alternating(n int, amplitude float32) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amplitude
		} else {
			samples[i] = -amplitude
		}
	}
	return samples
}

func newTestRenderer(t *testing.T, device *Device) *waveform.Renderer {
	t.Helper()
	r, err := waveform.NewRenderer(device, waveform.WithConstants(waveform.NewConstants(color.RGBA{R: 255, A: 255})))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

var (
	red         = color.RGBA{R: 255, A: 255}
	transparent = color.RGBA{}
)

func TestDeviceRejectsUnknownShader(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	_, err := device.NewPipeline(waveform.PipelineDescriptor{
		VertexFunction:   "nope",
		FragmentFunction: waveform.FragmentFunction,
	})
	require.Error(t, err)
	_, err = device.NewPipeline(waveform.PipelineDescriptor{
		VertexFunction:   waveform.VertexFunction,
		FragmentFunction: "nope",
	})
	require.Error(t, err)
}

func TestDeviceBufferCopiesValues(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	values := []float32{1, 2, 3}
	b, err := device.NewBuffer(values)
	require.NoError(t, err)
	values[0] = 42
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, float32(1), b.(*Buffer).values[0])

	b.Release()
	assert.True(t, b.(*Buffer).Released())
}

func TestDeviceClosed(t *testing.T) {
	device := NewDevice()
	require.NoError(t, device.Close())
	require.NoError(t, device.Close())

	_, err := device.NewBuffer([]float32{1})
	require.ErrorIs(t, err, ErrDeviceClosed)
	_, err = device.NewCommandQueue()
	require.ErrorIs(t, err, ErrDeviceClosed)
}

func TestRenderEnvelope(t *testing.T) {
	device := NewDevice()
	defer device.Close()
	r := newTestRenderer(t, device)
	surface := NewSurface(64, 40)

	require.NoError(t, r.Set(waveform.NewSampleBuffer(alternating(256, 0.5)), 0, 256))
	require.NoError(t, r.Draw(context.Background(), surface))
	device.WaitIdle()

	img := surface.Snapshot()
	for x := 0; x < 64; x++ {
		// rows 10..29 are inside [-0.5, 0.5]
		assert.Equal(t, transparent, img.RGBAAt(x, 9), "x=%d", x)
		assert.Equal(t, red, img.RGBAAt(x, 10), "x=%d", x)
		assert.Equal(t, red, img.RGBAAt(x, 20), "x=%d", x)
		assert.Equal(t, red, img.RGBAAt(x, 29), "x=%d", x)
		assert.Equal(t, transparent, img.RGBAAt(x, 30), "x=%d", x)
	}
}

func TestRenderWindow(t *testing.T) {
	device := NewDevice()
	defer device.Close()
	r := newTestRenderer(t, device)
	surface := NewSurface(64, 40)

	samples := append(alternating(128, 0.9), alternating(128, 0.1)...)
	sb := waveform.NewSampleBuffer(samples)

	require.NoError(t, r.Set(sb, 0, 256))
	require.NoError(t, r.Draw(context.Background(), surface))
	device.WaitIdle()
	img := surface.Snapshot()
	assert.Equal(t, red, img.RGBAAt(5, 10))
	assert.Equal(t, transparent, img.RGBAAt(60, 10))
	assert.Equal(t, red, img.RGBAAt(60, 20))

	// only the quiet half
	require.NoError(t, r.Set(sb, 128, 128))
	require.NoError(t, r.Draw(context.Background(), surface))
	device.WaitIdle()
	img = surface.Snapshot()
	for x := 0; x < 64; x++ {
		assert.Equal(t, transparent, img.RGBAAt(x, 10), "x=%d", x)
		assert.Equal(t, red, img.RGBAAt(x, 20), "x=%d", x)
	}
	assert.Equal(t, 2, surface.Presented())
}

func TestRenderBlendsTranslucentColor(t *testing.T) {
	device := NewDevice()
	defer device.Close()
	r, err := waveform.NewRenderer(device,
		waveform.WithConstants(waveform.Constants{Color: [4]float32{1, 1, 1, 0.5}}),
		waveform.WithClearColor([4]float32{0, 0, 0, 1}))
	require.NoError(t, err)
	defer r.Close()
	surface := NewSurface(16, 8)

	require.NoError(t, r.Set(waveform.NewSampleBuffer(alternating(64, 1)), 0, 64))
	require.NoError(t, r.Draw(context.Background(), surface))
	device.WaitIdle()

	c := surface.Snapshot().RGBAAt(3, 4)
	assert.InDelta(t, 128, int(c.R), 1)
	assert.InDelta(t, 128, int(c.G), 1)
	// alpha: 0.5*0.5 + 1*0.5
	assert.InDelta(t, 191, int(c.A), 1)
}

func TestRenderDropsFrameWithoutDrawable(t *testing.T) {
	device := NewDevice()
	defer device.Close()
	r := newTestRenderer(t, device)
	surface := NewSurface(8, 8, WithSwapchainSize(1), WithTimeout(5*time.Millisecond))

	held, err := surface.NextDrawable()
	require.NoError(t, err)

	for i := 0; i < 2*waveform.MaxBuffers; i++ {
		require.NoError(t, r.Draw(context.Background(), surface))
	}
	device.WaitIdle()
	assert.Equal(t, 0, surface.Presented())
	assert.Equal(t, uint64(2*waveform.MaxBuffers), r.Stats().FramesDropped)

	held.(*Drawable).Release()
	require.NoError(t, r.Draw(context.Background(), surface))
	device.WaitIdle()
	assert.Equal(t, 1, surface.Presented())
}

func TestRenderManyFrames(t *testing.T) {
	device := NewDevice()
	defer device.Close()
	r := newTestRenderer(t, device)
	surface := NewSurface(32, 16)
	sb := waveform.NewSampleBuffer(alternating(4096, 0.25))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Set(sb, i, 4096-i))
		require.NoError(t, r.Draw(ctx, surface))
	}
	device.WaitIdle()
	assert.Equal(t, 50, surface.Presented())
	assert.Equal(t, uint64(1), r.Stats().Rebuilds)
	assert.Equal(t, image.Pt(32, 16), surface.Snapshot().Bounds().Size())
}
