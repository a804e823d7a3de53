package face

import (
	"errors"

	"golang.org/x/image/math/fixed"
)

// ProcessedBitmap is a view into a face's glyph bitmap slot. Buf is
// row-major grayscale intensity with the given Stride; the visible
// region covers columns [StartX, Width) of each of the Rows rows.
// Lifetime is bounded by the next operation on the same face.
type ProcessedBitmap struct {
	Buf    []byte
	StartX int
	Width  int
	Stride int
	Rows   int
}

// trimThreshold is the intensity above which a column counts as
// holding glyph samples during overflow trimming.
const trimThreshold = 200

// maxSplitCells bounds how many cells one composite canvas may span.
const maxSplitCells = 10

// ErrTooManyCells is returned when SplitCells is asked for more than
// maxSplitCells destinations.
var ErrTooManyCells = errors.New("face: too many cells being split")

// trimBorders drops up to extra empty columns from the right edge,
// then absorbs the remaining overflow by advancing the source origin.
func trimBorders(bm *ProcessedBitmap, extra int) {
	columnHasText := false
	for x := bm.Width - 1; !columnHasText && x > -1 && extra > 0; x-- {
		for y := 0; y < bm.Rows && !columnHasText; y++ {
			if bm.Buf[x+y*bm.Stride] > trimThreshold {
				columnHasText = true
			}
		}
		if !columnHasText {
			bm.Width--
			extra--
		}
	}
	bm.StartX = extra
	bm.Width -= extra
}

// RenderBitmap renders the glyph and applies the overflow policy when
// the bitmap is wider than cellWidth × numCells: italics with small
// overflow get their empty right-hand columns trimmed; clearly
// oversized glyphs on scalable faces are re-rendered once at a
// reduced size when rescale permits; anything else is returned as is
// and clipped at placement time.
func (f *Face) RenderBitmap(glyphID uint16, cellWidth, numCells int, bold, italic, rescale bool) (*ProcessedBitmap, GlyphMetrics, error) {
	bm, metrics, err := f.RenderGlyph(glyphID)
	if err != nil {
		return nil, GlyphMetrics{}, err
	}
	maxWidth := cellWidth * numCells
	if bm.Width > maxWidth {
		extra := bm.Width - maxWidth
		if italic && extra < cellWidth/2 {
			trimBorders(bm, extra)
		} else if rescale && f.IsScalable() && extra > max(2, cellWidth/3) {
			charWidth, charHeight := f.charWidth, f.charHeight
			ar := float64(maxWidth) / float64(bm.Width)
			scaledW := fixed.Int26_6(float64(charWidth) * ar)
			scaledH := fixed.Int26_6(float64(charHeight) * ar)
			if err := f.SetSize(scaledW, scaledH, f.xdpi, f.ydpi); err == nil {
				bm, metrics, err = f.RenderBitmap(glyphID, cellWidth, numCells, bold, italic, false)
				if err != nil {
					return nil, GlyphMetrics{}, err
				}
				if err := f.SetSize(charWidth, charHeight, f.xdpi, f.ydpi); err != nil {
					return nil, GlyphMetrics{}, err
				}
			}
		}
	}
	return bm, metrics, nil
}

// PlaceBitmapInCell blits the bitmap into a cell canvas of
// totalWidth × cellHeight bytes, positioning it from the sub-cell
// offsets, the glyph bearings and the baseline. The glyph never
// writes outside the destination; overflow is clipped.
//
// Intensities accumulate modulo 256: overlapping glyphs alias rather
// than saturate. Callers avoid overlap by honoring shaper offsets.
func PlaceBitmapInCell(cell []byte, bm *ProcessedBitmap, totalWidth, cellHeight int, xOffset, yOffset float64, metrics GlyphMetrics, baseline int) {
	xoff := int(xOffset + metrics.BearingX)
	srcStartColumn, destStartColumn := bm.StartX, 0
	if xoff < 0 {
		srcStartColumn += -xoff
	} else {
		destStartColumn = xoff
	}
	// Move the dest start column back if the width overflows because of it.
	if destStartColumn > 0 && destStartColumn+bm.Width > totalWidth {
		extra := destStartColumn + bm.Width - totalWidth
		if extra > destStartColumn {
			destStartColumn = 0
		} else {
			destStartColumn -= extra
		}
	}

	yoff := int(yOffset + metrics.BearingY)
	destStartRow := 0
	if yoff <= baseline {
		destStartRow = baseline - yoff
	}

	for sr, dr := 0, destStartRow; sr < bm.Rows && dr < cellHeight; sr, dr = sr+1, dr+1 {
		for sc, dc := srcStartColumn, destStartColumn; sc < bm.Width && dc < totalWidth; sc, dc = sc+1, dc+1 {
			val := uint16(cell[dr*totalWidth+dc])
			val = (val + uint16(bm.Buf[sr*bm.Stride+sc])) % 256
			cell[dr*totalWidth+dc] = byte(val)
		}
	}
}

// DrawSingleGlyph renders the glyph for cp directly into a caller
// canvas of cellWidth × numCells by cellHeight bytes, with no shaping
// and no sub-cell offsets. Box painters and tests use it.
func (f *Face) DrawSingleGlyph(cp rune, cellWidth, cellHeight int, cell []byte, numCells int, bold, italic bool, baseline int) error {
	glyphID := f.GlyphIndex(cp)
	bm, metrics, err := f.RenderBitmap(glyphID, cellWidth, numCells, bold, italic, true)
	if err != nil {
		return err
	}
	PlaceBitmapInCell(cell, bm, cellWidth*numCells, cellHeight, 0, 0, metrics, baseline)
	return nil
}

// SplitCells scatters a composite canvas of width
// len(cells) × cellWidth into contiguous cell-sized buffers.
func SplitCells(cellWidth, cellHeight int, src []byte, cells ...[]byte) error {
	if len(cells) > maxSplitCells {
		return ErrTooManyCells
	}
	stride := len(cells) * cellWidth
	for y := 0; y < cellHeight; y++ {
		for i, cell := range cells {
			dest := cell[y*cellWidth : (y+1)*cellWidth]
			copy(dest, src[y*stride+i*cellWidth:y*stride+(i+1)*cellWidth])
		}
	}
	return nil
}
