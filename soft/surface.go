package soft

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/cellux/waveview/waveform"
)

var ErrNoDrawable = errors.New("no drawable available")

const (
	defaultSwapchainSize = 3
	defaultTimeout       = time.Second
)

// Drawable is one image of a Surface swapchain.
type Drawable struct {
	surface *Surface
	img     *image.RGBA
}

func (d *Drawable) Size() image.Point {
	return d.img.Bounds().Size()
}

// Image returns the pixels of the drawable. They are only stable
// once the frame rendering into it has completed.
func (d *Drawable) Image() *image.RGBA {
	return d.img
}

// Release gives the drawable back to the surface without presenting
// it.
func (d *Drawable) Release() {
	d.surface.free <- d.img
}

func (d *Drawable) present() {
	d.surface.present(d.img)
}

// Surface is an offscreen presentation surface with a fixed number of
// drawables. The most recently presented image is kept as the front
// buffer.
type Surface struct {
	mu        sync.Mutex
	size      image.Point
	free      chan *image.RGBA
	front     *image.RGBA
	timeout   time.Duration
	presented int
}

type SurfaceOption func(s *Surface)

// WithSwapchainSize sets the number of drawables, 3 by default.
func WithSwapchainSize(n int) SurfaceOption {
	return func(s *Surface) {
		if n >= 1 {
			s.free = make(chan *image.RGBA, n)
		}
	}
}

// WithTimeout sets how long NextDrawable waits for a free drawable.
func WithTimeout(d time.Duration) SurfaceOption {
	return func(s *Surface) {
		s.timeout = d
	}
}

func NewSurface(width, height int, opts ...SurfaceOption) *Surface {
	s := &Surface{
		size:    image.Pt(max(width, 0), max(height, 0)),
		free:    make(chan *image.RGBA, defaultSwapchainSize),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.front = image.NewRGBA(image.Rectangle{Max: s.size})
	for i := 0; i < cap(s.free); i++ {
		s.free <- image.NewRGBA(image.Rectangle{Max: s.size})
	}
	return s
}

func (s *Surface) DrawableSize() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// NextDrawable waits for a free drawable. If none becomes available
// within the surface timeout it returns ErrNoDrawable.
func (s *Surface) NextDrawable() (waveform.Drawable, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case img := <-s.free:
		size := s.DrawableSize()
		if img.Bounds().Size() != size {
			img = image.NewRGBA(image.Rectangle{Max: size})
		}
		return &Drawable{surface: s, img: img}, nil
	case <-timer.C:
		return nil, ErrNoDrawable
	}
}

func (s *Surface) present(img *image.RGBA) {
	s.mu.Lock()
	if s.front.Bounds() != img.Bounds() {
		s.front = image.NewRGBA(img.Bounds())
	}
	copy(s.front.Pix, img.Pix)
	s.presented++
	s.mu.Unlock()
	s.free <- img
}

// Resize changes the drawable size. It reports false when the size is
// not positive or unchanged, in which case nothing needs redrawing.
func (s *Surface) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	size := image.Pt(width, height)
	if size == s.size {
		return false
	}
	s.size = size
	return true
}

// Snapshot returns a copy of the front buffer.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := image.NewRGBA(s.front.Bounds())
	copy(img.Pix, s.front.Pix)
	return img
}

// Presented returns the number of frames presented so far.
func (s *Surface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}
