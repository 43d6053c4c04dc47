package viewer

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type FontSizeInPoints = float64

type Font struct {
	font  *opentype.Font
	faces map[FontSizeInPoints]font.Face
}

func LoadFontFromBytes(bytes []byte) (*Font, error) {
	f, err := opentype.Parse(bytes)
	if err != nil {
		return nil, err
	}
	return &Font{
		font:  f,
		faces: make(map[FontSizeInPoints]font.Face),
	}, nil
}

// LoadMonoFont parses the embedded Go Mono font.
func LoadMonoFont() (*Font, error) {
	return LoadFontFromBytes(gomono.TTF)
}

func (f *Font) GetFace(size FontSizeInPoints, dpi float64) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	f.faces[size] = face
	return face, nil
}

// Atlas is a grid of equally sized glyph tiles. Rune r lives in tile
// r%Cols, r/Cols.
type Atlas struct {
	Image      *image.Alpha
	Cols, Rows int
	TileSize   image.Point
}

// BuildAtlas rasterizes the first cols*rows runes of face.
func BuildAtlas(face font.Face, cols, rows int) (*Atlas, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("atlas size must be positive, got %dx%d", cols, rows)
	}
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	tileHeight := metrics.Height.Ceil()
	if tileHeight == 0 {
		tileHeight = ascent + descent
	}
	nGlyphs := cols * rows
	maxWidth := 0
	for i := 0; i < nGlyphs; i++ {
		if adv, ok := face.GlyphAdvance(rune(i)); ok {
			maxWidth = max(maxWidth, adv.Ceil())
		}
	}
	if maxWidth <= 0 {
		adv, ok := face.GlyphAdvance('m')
		if !ok {
			return nil, fmt.Errorf("font face does not provide a glyph for rune 'm'")
		}
		maxWidth = adv.Ceil()
	}
	atlas := image.NewAlpha(image.Rect(0, 0, maxWidth*cols, tileHeight*rows))
	for i := 0; i < nGlyphs; i++ {
		col := i % cols
		row := i / cols
		dot := fixed.Point26_6{
			X: fixed.I(col * maxWidth),
			Y: fixed.I(row*tileHeight + ascent),
		}
		dstRect, mask, maskPt, _, ok := face.Glyph(dot, rune(i))
		if !ok || mask == nil {
			continue
		}
		draw.Draw(atlas, dstRect, mask, maskPt, draw.Src)
	}
	return &Atlas{
		Image:    atlas,
		Cols:     cols,
		Rows:     rows,
		TileSize: image.Pt(maxWidth, tileHeight),
	}, nil
}

// TexCoords returns the texture rectangle of r in [0,1] units.
func (a *Atlas) TexCoords(r rune) (s0, t0, s1, t1 float32) {
	n := rune(a.Cols * a.Rows)
	if r < 0 || r >= n {
		r = '?'
	}
	col := int(r) % a.Cols
	row := int(r) / a.Cols
	s0 = float32(col) / float32(a.Cols)
	t0 = float32(row) / float32(a.Rows)
	s1 = s0 + 1/float32(a.Cols)
	t1 = t0 + 1/float32(a.Rows)
	return
}
