package soft

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceSwapchainExhaustion(t *testing.T) {
	s := NewSurface(4, 4, WithSwapchainSize(1), WithTimeout(10*time.Millisecond))

	d, err := s.NextDrawable()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 4), d.Size())

	_, err = s.NextDrawable()
	require.ErrorIs(t, err, ErrNoDrawable)

	d.(*Drawable).Release()
	_, err = s.NextDrawable()
	require.NoError(t, err)
}

func TestSurfaceResize(t *testing.T) {
	s := NewSurface(4, 4)

	assert.False(t, s.Resize(0, 10))
	assert.False(t, s.Resize(10, -1))
	assert.False(t, s.Resize(4, 4))
	assert.True(t, s.Resize(8, 2))
	assert.Equal(t, image.Pt(8, 2), s.DrawableSize())

	d, err := s.NextDrawable()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 2), d.Size())
}

func TestSurfacePresentUpdatesFront(t *testing.T) {
	s := NewSurface(2, 1)
	d, err := s.NextDrawable()
	require.NoError(t, err)
	img := d.(*Drawable).Image()
	img.Pix[0] = 200

	d.(*Drawable).present()
	assert.Equal(t, 1, s.Presented())
	snap := s.Snapshot()
	assert.Equal(t, uint8(200), snap.Pix[0])

	// the snapshot is a copy
	snap.Pix[0] = 1
	assert.Equal(t, uint8(200), s.Snapshot().Pix[0])
}
