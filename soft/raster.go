package soft

import (
	"image"

	"github.com/cellux/waveview/waveform"
)

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

func clearImage(img *image.RGBA, c [4]float32) {
	px := [4]uint8{toByte(c[0]), toByte(c[1]), toByte(c[2]), toByte(c[3])}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], px[:])
		}
	}
}

func blendFactor(f waveform.BlendFactor, srcAlpha float32) float32 {
	switch f {
	case waveform.BlendSourceAlpha:
		return srcAlpha
	case waveform.BlendOneMinusSourceAlpha:
		return 1 - srcAlpha
	default:
		return 1
	}
}

// rasterize runs the waveform shader over every pixel of img.
//
// Column x samples element floor(t.x*count) of the bound buffers, with
// t.x at the pixel center. A pixel is covered when its vertical
// position, mapped to [-1,1] with +1 at the top, lies inside the
// min/max envelope of that element.
func rasterize(img *image.RGBA, d drawState) {
	if d.vertexCount < 4 || d.count <= 0 {
		return
	}
	mins, maxes := d.buffers[0], d.buffers[1]
	count := int(d.count)
	color := d.constants.Color
	desc := d.pipeline.desc
	srcFactor, dstFactor := float32(1), float32(0)
	if desc.BlendingEnabled {
		srcFactor = blendFactor(desc.SourceFactor, color[3])
		dstFactor = blendFactor(desc.DestFactor, color[3])
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for x := 0; x < w; x++ {
		tx := (float32(x) + 0.5) / float32(w)
		i := min(int(tx*float32(count)), count-1)
		if i >= len(mins) || i >= len(maxes) {
			continue
		}
		lo, hi := mins[i], maxes[i]
		for y := 0; y < h; y++ {
			ty := 1 - (float32(y)+0.5)/float32(h)
			s := 2*ty - 1
			if s < lo || s > hi {
				continue
			}
			o := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			px := img.Pix[o : o+4 : o+4]
			for c := 0; c < 4; c++ {
				dst := float32(px[c]) / 255
				px[c] = toByte(color[c]*srcFactor + dst*dstFactor)
			}
		}
	}
}
