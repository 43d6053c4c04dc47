package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/cellux/waveview/soft"
	"github.com/cellux/waveview/waveform"
)

var ErrNothingRendered = errors.New("nothing rendered")

type ExportOptions struct {
	Width       int
	Height      int
	Supersample int
	Constants   waveform.Constants
	ClearColor  [4]float32
}

// RenderImage draws the window v of samples with the software device.
// With Supersample > 1 the frame is rendered that many times larger
// and scaled down.
func RenderImage(ctx context.Context, samples *waveform.SampleBuffer, v View, opts ExportOptions) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	ss := max(opts.Supersample, 1)
	device := soft.NewDevice()
	defer device.Close()
	surface := soft.NewSurface(opts.Width*ss, opts.Height*ss)
	r, err := waveform.NewRenderer(device,
		waveform.WithConstants(opts.Constants),
		waveform.WithClearColor(opts.ClearColor))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if err := r.Set(samples, v.Start, v.Length); err != nil {
		return nil, err
	}
	if err := r.Draw(ctx, surface); err != nil {
		return nil, err
	}
	device.WaitIdle()
	if surface.Presented() == 0 {
		return nil, ErrNothingRendered
	}
	img := surface.Snapshot()
	if ss == 1 {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
