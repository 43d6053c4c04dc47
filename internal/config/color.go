package config

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/cellux/waveview/waveform"
)

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	alpha := uint8(0xff)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q", s)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// Constants returns the shader constants for the configured color.
func (c *Config) Constants() (waveform.Constants, error) {
	fg, err := ParseColor(c.Color)
	if err != nil {
		return waveform.Constants{}, err
	}
	return waveform.NewConstants(fg), nil
}

func (c *Config) ClearColor() ([4]float32, error) {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return [4]float32{}, err
	}
	return waveform.NewConstants(bg).Color, nil
}
