// Package face wraps a font face for terminal cell rendering: Unicode
// coverage queries, coherent rasterizer/shaper sizing, HarfBuzz
// shaping into pixel-unit records, and glyph rasterization into
// grayscale bitmaps sized for the cell grid.
//
// A Face owns two views of the same font data: an sfnt font for
// by-glyph-id outline loading and metrics, and a go-text face for
// shaping. Both are parsed once at open time and sized together so
// shaped advances match rendered widths.
//
// Face is not safe for concurrent use. The bitmap returned by
// RenderGlyph and RenderBitmap is a view into a slot owned by the
// Face; its lifetime ends at the next operation on the same Face.
package face

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Hint styles, matching the rasterizer targets they select.
const (
	// HintStyleNone disables hint-style selection.
	HintStyleNone = 0
	// HintStyleSlight and HintStyleMedium select the light target.
	HintStyleSlight = 1
	HintStyleMedium = 2
	// HintStyleFull selects the normal target.
	HintStyleFull = 3
)

// Face is a font face opened at a fixed face index with a fixed
// hinting policy. Size is mutable via SetSize.
type Face struct {
	path      string
	index     int
	hinting   bool
	hintstyle int

	data      []byte
	sf        *sfnt.Font
	shapeFace *font.Face

	unitsPerEm uint16
	numGlyphs  int

	// Size state. Char sizes are in 1/64 pt, DPI in pixels per inch.
	charWidth  fixed.Int26_6
	charHeight fixed.Int26_6
	xdpi, ydpi float64
	ppem       fixed.Int26_6 // pixel size shared by rasterizer and shaper

	buf    sfnt.Buffer
	rast   vector.Rasterizer
	mask   image.Alpha
	shaper shaping.HarfbuzzShaper
}

// Open opens the font file at path, selecting the face at index
// inside a collection (0 for single-face files). hinting and
// hintstyle fix the load-flag policy for the lifetime of the Face.
func Open(path string, index int, hinting bool, hintstyle int) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FaceError{Op: "open", Path: path, Err: err}
	}
	f, err := New(data, index, hinting, hintstyle)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// New opens a face from font data (TTF, OTF or a collection).
// The data slice is retained by the Face and must not be modified.
func New(data []byte, index int, hinting bool, hintstyle int) (*Face, error) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, &FaceError{Op: "parse", Err: err}
	}
	if index < 0 || index >= coll.NumFonts() {
		return nil, &FaceError{Op: "parse", Err: fmt.Errorf("face index %d out of range (%d faces)", index, coll.NumFonts())}
	}
	sf, err := coll.Font(index)
	if err != nil {
		return nil, &FaceError{Op: "parse", Err: err}
	}

	shapeFace, err := parseShapeFace(data, index)
	if err != nil {
		return nil, &FaceError{Op: "parse", Err: err}
	}

	f := &Face{
		index:      index,
		hinting:    hinting,
		hintstyle:  hintstyle,
		data:       data,
		sf:         sf,
		shapeFace:  shapeFace,
		unitsPerEm: uint16(sf.UnitsPerEm()),
		numGlyphs:  sf.NumGlyphs(),
	}
	// Placeholder size; the metrics cascade replaces it before the
	// first render.
	if err := f.SetSize(10*64, 20*64, 96, 96); err != nil {
		return nil, err
	}
	return f, nil
}

// parseShapeFace parses the shaping view of the font. go-text keeps
// collections behind a separate entry point.
func parseShapeFace(data []byte, index int) (*font.Face, error) {
	if index == 0 {
		return font.ParseTTF(bytes.NewReader(data))
	}
	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if index >= len(faces) {
		return nil, fmt.Errorf("face index %d out of range (%d faces)", index, len(faces))
	}
	return faces[index], nil
}

// Path returns the file path the face was opened from, if any.
func (f *Face) Path() string { return f.path }

// Index returns the face index inside the source file.
func (f *Face) Index() int { return f.index }

// UnitsPerEm returns the font's design units per em.
func (f *Face) UnitsPerEm() uint16 { return f.unitsPerEm }

// NumGlyphs returns the number of glyphs in the face.
func (f *Face) NumGlyphs() int { return f.numGlyphs }

// IsScalable reports whether the face can be rendered at arbitrary
// sizes. Outline fonts always can; the rescale policy checks this.
func (f *Face) IsScalable() bool { return true }

// hintingMode maps the (hinting, hintstyle) pair onto the rasterizer
// target. Advance and metric queries (cell width, glyph advances,
// font metrics) go through it. Glyph outlines are loaded unhinted,
// and shaping does not consult it.
func (f *Face) hintingMode() xfont.Hinting {
	if !f.hinting {
		return xfont.HintingNone
	}
	switch {
	case f.hintstyle >= HintStyleFull:
		return xfont.HintingFull
	case f.hintstyle > HintStyleNone:
		return xfont.HintingVertical
	default:
		return xfont.HintingNone
	}
}

// SetSize sets the character size. charWidth and charHeight are in
// 1/64 pt, the DPIs in pixels per inch. The rasterizer pixel size and
// the shaper scale are derived from the same values so the two stay
// coherent.
func (f *Face) SetSize(charWidth, charHeight fixed.Int26_6, xdpi, ydpi float64) error {
	px := float64(charHeight) / 64 * ydpi / 72
	ppem := fixed.Int26_6(math.Round(px * 64))
	if ppem <= 0 {
		return &SetSizeError{CharWidth: charWidth, CharHeight: charHeight, XDPI: xdpi, YDPI: ydpi}
	}
	f.charWidth = charWidth
	f.charHeight = charHeight
	f.xdpi = xdpi
	f.ydpi = ydpi
	f.ppem = ppem
	return nil
}

// PixelSize returns the current pixel size in 26.6 fixed point.
func (f *Face) PixelSize() fixed.Int26_6 { return f.ppem }

// HasCodepoint reports whether the face has a glyph for cp.
func (f *Face) HasCodepoint(cp rune) bool {
	gi, err := f.sf.GlyphIndex(&f.buf, cp)
	return err == nil && gi != 0
}

// GlyphIndex returns the glyph id for cp, 0 when uncovered.
func (f *Face) GlyphIndex(cp rune) uint16 {
	gi, err := f.sf.GlyphIndex(&f.buf, cp)
	if err != nil {
		return 0
	}
	return uint16(gi)
}

// CalcCellWidth returns the maximum horizontal advance, in whole
// pixels, over the ASCII codepoints 32..127.
func (f *Face) CalcCellWidth() (int, error) {
	width := 0
	for cp := rune(32); cp < 128; cp++ {
		gi, err := f.sf.GlyphIndex(&f.buf, cp)
		if err != nil {
			return 0, &FaceError{Op: "load glyph", Path: f.path, Err: err}
		}
		adv, err := f.sf.GlyphAdvance(&f.buf, gi, f.ppem, f.hintingMode())
		if err != nil {
			return 0, &FaceError{Op: "load glyph", Path: f.path, Err: err}
		}
		if w := adv.Ceil(); w > width {
			width = w
		}
	}
	return width, nil
}

// CellMetrics holds the cell geometry a face implies at its current
// size. All values are whole pixels.
type CellMetrics struct {
	CellWidth          int
	CellHeight         int
	Baseline           int
	UnderlinePosition  int
	UnderlineThickness int
}

// CellMetrics derives the cell geometry from the face metrics.
// The underline metrics are synthesized since the sfnt tables do not
// expose the post values: the position from the descent, the
// thickness from the pixel size.
func (f *Face) CellMetrics() (CellMetrics, error) {
	width, err := f.CalcCellWidth()
	if err != nil {
		return CellMetrics{}, err
	}
	m, err := f.sf.Metrics(&f.buf, f.ppem, f.hintingMode())
	if err != nil {
		return CellMetrics{}, &FaceError{Op: "metrics", Path: f.path, Err: err}
	}
	baseline := m.Ascent.Ceil()
	height := (m.Ascent + m.Descent).Ceil()
	descent := m.Descent.Ceil()
	pos := baseline + (descent+1)/2
	thickness := f.ppem.Floor() / 16
	if thickness < 1 {
		thickness = 1
	}
	return CellMetrics{
		CellWidth:          width,
		CellHeight:         height,
		Baseline:           baseline,
		UnderlinePosition:  pos,
		UnderlineThickness: thickness,
	}, nil
}

// GlyphMetrics carries the positioning of a rendered glyph bitmap
// relative to the pen origin, in pixels.
type GlyphMetrics struct {
	// BearingX is the distance from the origin to the bitmap's left edge.
	BearingX float64
	// BearingY is the distance from the baseline up to the bitmap's top edge.
	BearingY float64
	// Advance is the horizontal advance.
	Advance float64
}

// RenderGlyph rasterizes the glyph into the face's bitmap slot and
// returns a view of it together with the glyph metrics. The view is
// valid until the next operation on the same Face.
func (f *Face) RenderGlyph(glyphID uint16) (*ProcessedBitmap, GlyphMetrics, error) {
	gi := sfnt.GlyphIndex(glyphID)

	adv, err := f.sf.GlyphAdvance(&f.buf, gi, f.ppem, f.hintingMode())
	if err != nil {
		return nil, GlyphMetrics{}, &FaceError{Op: "load glyph", Path: f.path, Err: err}
	}
	segments, err := f.sf.LoadGlyph(&f.buf, gi, f.ppem, nil)
	if err != nil {
		return nil, GlyphMetrics{}, &FaceError{Op: "load glyph", Path: f.path, Err: err}
	}

	metrics := GlyphMetrics{Advance: fixedToFloat(adv)}
	if len(segments) == 0 {
		// Whitespace and other blank glyphs render to an empty bitmap.
		f.mask.Pix = f.mask.Pix[:0]
		return &ProcessedBitmap{Buf: nil, Rows: 0, Width: 0, Stride: 0}, metrics, nil
	}

	bounds := segments.Bounds()
	minX := bounds.Min.X.Floor()
	minY := bounds.Min.Y.Floor()
	maxX := bounds.Max.X.Ceil()
	maxY := bounds.Max.Y.Ceil()
	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		f.mask.Pix = f.mask.Pix[:0]
		return &ProcessedBitmap{}, metrics, nil
	}
	metrics.BearingX = float64(minX)
	metrics.BearingY = float64(-minY)

	// Reuse the mask buffer across renders (the bitmap slot).
	nPixels := width * height
	if cap(f.mask.Pix) < nPixels {
		f.mask.Pix = make([]uint8, 2*nPixels)
	}
	f.mask.Pix = f.mask.Pix[:nPixels]
	for i := range f.mask.Pix {
		f.mask.Pix[i] = 0
	}
	f.mask.Stride = width
	f.mask.Rect = image.Rect(0, 0, width, height)

	// Bias from glyph space (origin on the baseline) to rasterizer
	// space (origin at the bitmap's top-left corner).
	biasX := -fixed.Int26_6(minX << 6)
	biasY := -fixed.Int26_6(minY << 6)

	f.rast.Reset(width, height)
	f.rast.DrawOp = draw.Src
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			f.rast.MoveTo(
				fixedToFloat32(seg.Args[0].X+biasX),
				fixedToFloat32(seg.Args[0].Y+biasY),
			)
		case sfnt.SegmentOpLineTo:
			f.rast.LineTo(
				fixedToFloat32(seg.Args[0].X+biasX),
				fixedToFloat32(seg.Args[0].Y+biasY),
			)
		case sfnt.SegmentOpQuadTo:
			f.rast.QuadTo(
				fixedToFloat32(seg.Args[0].X+biasX),
				fixedToFloat32(seg.Args[0].Y+biasY),
				fixedToFloat32(seg.Args[1].X+biasX),
				fixedToFloat32(seg.Args[1].Y+biasY),
			)
		case sfnt.SegmentOpCubeTo:
			f.rast.CubeTo(
				fixedToFloat32(seg.Args[0].X+biasX),
				fixedToFloat32(seg.Args[0].Y+biasY),
				fixedToFloat32(seg.Args[1].X+biasX),
				fixedToFloat32(seg.Args[1].Y+biasY),
				fixedToFloat32(seg.Args[2].X+biasX),
				fixedToFloat32(seg.Args[2].Y+biasY),
			)
		}
	}
	f.rast.Draw(&f.mask, f.mask.Bounds(), image.Opaque, image.Point{})

	bm := &ProcessedBitmap{
		Buf:    f.mask.Pix,
		StartX: 0,
		Width:  width,
		Stride: width,
		Rows:   height,
	}
	return bm, metrics, nil
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func fixedToFloat32(v fixed.Int26_6) float32 { return float32(v) / 64 }
