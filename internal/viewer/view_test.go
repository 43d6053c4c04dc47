package viewer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullView(t *testing.T) {
	assert.Equal(t, View{Total: 1000, Start: 0, Length: 1000}, FullView(1000))
	assert.Equal(t, View{}, FullView(-5))
}

func TestViewZoom(t *testing.T) {
	v := FullView(1000)

	in := v.Zoom(0.5)
	assert.Equal(t, View{Total: 1000, Start: 250, Length: 500}, in)

	// zooming out past the buffer shows everything
	assert.Equal(t, v, in.Zoom(4))

	// never below the minimum length
	tiny := v.Zoom(0.001)
	assert.Equal(t, MinViewLength, tiny.Length)
	assert.Equal(t, 500-MinViewLength/2, tiny.Start)

	assert.Equal(t, v, v.Zoom(0))
}

func TestViewZoomSmallBuffer(t *testing.T) {
	v := FullView(4)
	assert.Equal(t, v, v.Zoom(0.5))
}

func TestViewPan(t *testing.T) {
	v := View{Total: 1000, Start: 100, Length: 200}
	assert.Equal(t, 150, v.Pan(0.25).Start)
	assert.Equal(t, 50, v.Pan(-0.25).Start)
	assert.Equal(t, 0, v.Pan(-10).Start)
	assert.Equal(t, 800, v.Pan(10).Start)
	assert.Equal(t, 200, v.Pan(10).Length)

	narrow := View{Total: 1000, Start: 100, Length: 2}
	assert.Equal(t, 101, narrow.Pan(0.1).Start)
	assert.Equal(t, 99, narrow.Pan(-0.1).Start)
}

func TestViewHomeEnd(t *testing.T) {
	v := View{Total: 1000, Start: 300, Length: 200}
	assert.Equal(t, 0, v.Home().Start)
	assert.Equal(t, 800, v.End().Start)
}

func TestViewWithTotal(t *testing.T) {
	assert.Equal(t, FullView(500), FullView(1000).WithTotal(500))

	v := View{Total: 1000, Start: 800, Length: 100}
	assert.Equal(t, View{Total: 500, Start: 400, Length: 100}, v.WithTotal(500))
	assert.Equal(t, View{Total: 2000, Start: 800, Length: 100}, v.WithTotal(2000))
	assert.Equal(t, View{}, v.WithTotal(0))
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "10+20/30", View{Total: 30, Start: 10, Length: 20}.String())
}

func TestResizeDrawable(t *testing.T) {
	cur := image.Pt(640, 480)
	for _, tc := range []struct {
		w, h    int
		size    image.Point
		changed bool
	}{
		{0, 100, cur, false},
		{100, -1, cur, false},
		{640, 480, cur, false},
		{800, 600, image.Pt(800, 600), true},
	} {
		size, changed := ResizeDrawable(cur, tc.w, tc.h)
		assert.Equal(t, tc.size, size)
		assert.Equal(t, tc.changed, changed)
	}
}
