package viewer

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellux/waveview/waveform"
)

func alternating(n int, amp float32) *waveform.SampleBuffer {
	samples := make([]float32, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return waveform.NewSampleBuffer(samples)
}

func exportOptions(supersample int) ExportOptions {
	return ExportOptions{
		Width:       64,
		Height:      32,
		Supersample: supersample,
		Constants:   waveform.DefaultConstants(),
		ClearColor:  [4]float32{0, 0, 0, 1},
	}
}

func assertEnvelope(t *testing.T, img image.Image) {
	t.Helper()
	require.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	r, g, b, a := img.At(32, 16).RGBA()
	assert.InDelta(t, 0xffff, r, 0x200)
	assert.InDelta(t, 0xffff, g, 0x200)
	assert.InDelta(t, 0xffff, b, 0x200)
	assert.InDelta(t, 0xffff, a, 0x200)
	r, _, _, a = img.At(32, 1).RGBA()
	assert.InDelta(t, 0, r, 0x200)
	assert.InDelta(t, 0xffff, a, 0x200)
}

func TestRenderImage(t *testing.T) {
	samples := alternating(1024, 0.5)
	img, err := RenderImage(context.Background(), samples, FullView(samples.Count()), exportOptions(1))
	require.NoError(t, err)
	assertEnvelope(t, img)
}

func TestRenderImageSupersampled(t *testing.T) {
	samples := alternating(1024, 0.5)
	img, err := RenderImage(context.Background(), samples, FullView(samples.Count()), exportOptions(3))
	require.NoError(t, err)
	assertEnvelope(t, img)
}

func TestRenderImageInvalidSize(t *testing.T) {
	opts := exportOptions(1)
	opts.Height = 0
	_, err := RenderImage(context.Background(), alternating(8, 1), FullView(8), opts)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	samples := alternating(256, 0.5)
	img, err := RenderImage(context.Background(), samples, FullView(samples.Count()), exportOptions(1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	assert.Equal(t, img.At(32, 16), decoded.At(32, 16))
}
