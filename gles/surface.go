package gles

import (
	"image"

	"github.com/cellux/waveview/waveform"
)

// Drawable is a rectangle of the default framebuffer.
type Drawable struct {
	surface     *Surface
	rect        image.Rectangle
	framebuffer image.Point
}

func (d *Drawable) Size() image.Point {
	return d.rect.Size()
}

func (d *Drawable) present() {
	d.surface.presented++
	if d.surface.OnPresent != nil {
		d.surface.OnPresent()
	}
}

// Surface draws into a rectangle of the window framebuffer. Rect uses
// window pixel coordinates with the origin at the top left.
type Surface struct {
	framebuffer image.Point
	rect        image.Rectangle
	presented   int
	// OnPresent is called for every presented drawable, typically to
	// swap buffers. Leave it nil when the window loop swaps.
	OnPresent func()
}

func NewSurface(framebuffer image.Point, rect image.Rectangle) *Surface {
	s := &Surface{}
	s.SetGeometry(framebuffer, rect)
	return s
}

// SetGeometry updates the framebuffer size and the target rectangle,
// clipping the rectangle to the framebuffer. It reports whether
// anything changed.
func (s *Surface) SetGeometry(framebuffer image.Point, rect image.Rectangle) bool {
	rect = rect.Intersect(image.Rectangle{Max: framebuffer})
	if framebuffer == s.framebuffer && rect == s.rect {
		return false
	}
	s.framebuffer = framebuffer
	s.rect = rect
	return true
}

func (s *Surface) Rect() image.Rectangle {
	return s.rect
}

func (s *Surface) DrawableSize() image.Point {
	return s.rect.Size()
}

func (s *Surface) NextDrawable() (waveform.Drawable, error) {
	if s.framebuffer.X <= 0 || s.framebuffer.Y <= 0 || s.rect.Empty() {
		return nil, ErrNoDrawable
	}
	return &Drawable{
		surface:     s,
		rect:        s.rect,
		framebuffer: s.framebuffer,
	}, nil
}

func (s *Surface) Presented() int {
	return s.presented
}
