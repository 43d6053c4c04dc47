// Package viewer holds the window-independent parts of the waveview
// application: the visible window, navigation history, key bindings,
// file watching and offscreen export.
package viewer

import (
	"fmt"
	"image"
)

// MinViewLength is the smallest window the viewer zooms into.
const MinViewLength = 16

// View is the visible window [Start, Start+Length) of a buffer of
// Total samples.
type View struct {
	Total  int
	Start  int
	Length int
}

func FullView(total int) View {
	return View{Total: max(total, 0), Length: max(total, 0)}
}

func (v View) clamp() View {
	v.Total = max(v.Total, 0)
	v.Length = min(max(v.Length, min(MinViewLength, v.Total)), v.Total)
	v.Start = min(max(v.Start, 0), v.Total-v.Length)
	return v
}

func (v View) center() int {
	return v.Start + v.Length/2
}

// Zoom scales the window length by factor around its center. Factors
// below 1 zoom in.
func (v View) Zoom(factor float64) View {
	if factor <= 0 {
		return v
	}
	c := v.center()
	v.Length = int(float64(v.Length)*factor + 0.5)
	v = v.clamp()
	v.Start = c - v.Length/2
	return v.clamp()
}

// Pan moves the window by fraction of its length. Negative fractions
// move towards the start.
func (v View) Pan(fraction float64) View {
	delta := int(float64(v.Length) * fraction)
	if delta == 0 && fraction != 0 && v.Length > 0 {
		delta = 1
		if fraction < 0 {
			delta = -1
		}
	}
	v.Start += delta
	return v.clamp()
}

func (v View) Home() View {
	v.Start = 0
	return v.clamp()
}

func (v View) End() View {
	v.Start = v.Total - v.Length
	return v.clamp()
}

// WithTotal adapts the window to a buffer of a different size, keeping
// as much of the current window as fits.
func (v View) WithTotal(total int) View {
	full := v.Length == v.Total
	v.Total = total
	if full {
		return FullView(total)
	}
	return v.clamp()
}

func (v View) String() string {
	return fmt.Sprintf("%d+%d/%d", v.Start, v.Length, v.Total)
}

// ResizeDrawable returns the new drawable size for a framebuffer
// resize to width x height. Non-positive or unchanged sizes are
// ignored, in which case changed is false and nothing needs redrawing.
func ResizeDrawable(current image.Point, width, height int) (size image.Point, changed bool) {
	if width <= 0 || height <= 0 {
		return current, false
	}
	size = image.Pt(width, height)
	if size == current {
		return current, false
	}
	return size, true
}
