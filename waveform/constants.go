package waveform

import (
	"encoding/binary"
	"image/color"
	"math"
)

// ConstantsSize is the size of the constants block in bytes.
const ConstantsSize = 16

// Constants is passed verbatim to the fragment stage.
type Constants struct {
	Color [4]float32
}

func DefaultConstants() Constants {
	return Constants{Color: [4]float32{1, 1, 1, 1}}
}

// NewConstants converts c to straight (non-premultiplied) RGBA
// components in [0,1].
func NewConstants(c color.Color) Constants {
	nc := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return Constants{Color: [4]float32{
		float32(nc.R) / 0xffff,
		float32(nc.G) / 0xffff,
		float32(nc.B) / 0xffff,
		float32(nc.A) / 0xffff,
	}}
}

// Bytes encodes the block as four little-endian float32 values.
func (c Constants) Bytes() []byte {
	b := make([]byte, ConstantsSize)
	for i, v := range c.Color {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

// DecodeConstants is the inverse of Constants.Bytes. Backends use it to
// read the block back out of SetFragmentBytes.
func DecodeConstants(b []byte) (Constants, bool) {
	if len(b) < ConstantsSize {
		return Constants{}, false
	}
	var c Constants
	for i := range c.Color {
		c.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return c, true
}
