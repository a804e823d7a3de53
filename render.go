package glow

import (
	"github.com/glowterm/glow/face"
	"github.com/glowterm/glow/sprite"
)

// missingGlyphSprite is the atlas x coordinate of the prerendered
// missing-glyph sprite.
const missingGlyphSprite = 4

// maxExtraGlyphs is how many non-primary cluster glyphs fit in the
// packed cache key.
const maxExtraGlyphs = 4

// RenderLine renders every cell of a line, leaving the sprite
// coordinates on the cells. A single failing cell degrades to the
// blank sprite; the rest of the line still renders.
func (rc *RenderContext) RenderLine(line *Line) {
	var runFont *Font
	first := 0
	prevWidth := 0
	i := 0
	for ; i < len(line.Cells); i++ {
		if prevWidth == 2 {
			// Right half of a wide glyph; its sprite is set by the
			// run holding the wide cell.
			prevWidth = 0
			continue
		}
		cell := &line.Cells[i]
		cellFont := rc.fontForCell(cell)
		prevWidth = cell.Width()
		if cellFont == runFont {
			continue
		}
		if runFont != nil && i > first {
			rc.renderRun(line.Cells, first, i, runFont)
		}
		runFont = cellFont
		first = i
	}
	if runFont != nil && i > first {
		rc.renderRun(line.Cells, first, i, runFont)
	}
}

// renderRun renders cells[start:end], a maximal run sharing one font.
func (rc *RenderContext) renderRun(cells []Cell, start, end int, f *Font) {
	switch f.kind {
	case fontBlank:
		for i := start; i < end; i++ {
			cells[i].setSprite(0, 0, 0)
		}
	case fontMissing:
		for i := start; i < end; i++ {
			cells[i].setSprite(missingGlyphSprite, 0, 0)
		}
	case fontBox:
		for i := start; i < end; i++ {
			rc.renderBoxCell(&cells[i])
		}
	default:
		prevWidth := 0
		for i := start; i < end; i++ {
			if prevWidth == 2 {
				prevWidth = 0
				continue
			}
			prevWidth = cells[i].Width()
			rc.renderCell(cells, i, end, f)
		}
	}
}

// renderBoxCell resolves a box-drawing cell through the box font's
// sprite cache, painting and uploading the sprite on first use.
func (rc *RenderContext) renderBoxCell(cell *Cell) {
	glyph := boxGlyphID(cell.Ch)
	sp, err := rc.boxFont.cache.PositionFor(rc.tracker, glyph, 0, false)
	if err != nil {
		logger().Warn("glow: failed to allocate box sprite", "ch", cell.Ch, "error", err)
		cell.setSprite(0, 0, 0)
		return
	}
	cell.setSprite(sp.Pos.X, sp.Pos.Y, sp.Pos.Z)
	if sp.Rendered {
		return
	}
	sp.Rendered = true
	if rc.roster.boxPainter == nil {
		return
	}
	buf, err := rc.roster.boxPainter(cell.Ch)
	if err != nil {
		logger().Warn("glow: box painter failed", "ch", cell.Ch, "error", err)
		return
	}
	rc.sendSprite(sp.Pos, buf)
}

// packExtraGlyphs packs up to four non-primary cluster glyph ids into
// the 64-bit cache key, first extra glyph in the low word.
func packExtraGlyphs(records []face.ShapeRecord) uint64 {
	var extra uint64
	for i, r := range records {
		if i == maxExtraGlyphs {
			break
		}
		extra |= uint64(r.GlyphID) << (16 * i)
	}
	return extra
}

// renderCell shapes one cell's text, resolves the sprite cache and,
// on a cache miss, composes and uploads the sprite. Wide cells also
// set the sprite of their right half (cells[i+1]).
func (rc *RenderContext) renderCell(cells []Cell, i, end int, f *Font) {
	cell := &cells[i]
	numCells := 1
	var second *Cell
	if cell.Width() == 2 {
		numCells = 2
		if i+1 < end {
			second = &cells[i+1]
		}
	}

	records := f.face.Shape(cellText(cell))
	if len(records) == 0 {
		cell.setSprite(0, 0, 0)
		if second != nil {
			second.setSprite(0, 0, 0)
		}
		return
	}
	primary := records[0].GlyphID
	extra := packExtraGlyphs(records[1:])

	sp, err := f.cache.PositionFor(rc.tracker, primary, extra, false)
	if err != nil {
		logger().Warn("glow: failed to allocate sprite", "ch", cell.Ch, "error", err)
		cell.setSprite(0, 0, 0)
		if second != nil {
			second.setSprite(0, 0, 0)
		}
		return
	}
	cell.setSprite(sp.Pos.X, sp.Pos.Y, sp.Pos.Z)

	var sp2 *sprite.Entry
	if second != nil {
		sp2, err = f.cache.PositionFor(rc.tracker, primary, extra, true)
		if err != nil {
			logger().Warn("glow: failed to allocate sprite", "ch", cell.Ch, "error", err)
			second.setSprite(0, 0, 0)
		} else {
			second.setSprite(sp2.Pos.X, sp2.Pos.Y, sp2.Pos.Z)
		}
	}

	if sp.Rendered && (sp2 == nil || sp2.Rendered) {
		return
	}
	rc.drawCellSprites(records, f, numCells, sp, sp2)
}

// drawCellSprites composes the shaped glyphs into the shared canvas
// and uploads each not-yet-rendered slot exactly once.
func (rc *RenderContext) drawCellSprites(records []face.ShapeRecord, f *Font, numCells int, sp, sp2 *sprite.Entry) {
	cellWidth, cellHeight := rc.metrics.CellWidth, rc.metrics.CellHeight
	totalWidth := numCells * cellWidth
	canvas := rc.canvas[:totalWidth*cellHeight]
	clearCanvas(canvas)

	var x, y float64
	for _, rec := range records {
		if rec.GlyphID == 0 {
			continue
		}
		bm, metrics, err := f.face.RenderBitmap(rec.GlyphID, cellWidth, numCells, f.bold, f.italic, true)
		if err != nil {
			logger().Warn("glow: failed to render glyph", "glyph", rec.GlyphID, "error", err)
			continue
		}
		x += rec.XOffset
		y = rec.YOffset
		face.PlaceBitmapInCell(canvas, bm, totalWidth, cellHeight, x, y, metrics, rc.metrics.Baseline)
		x += rec.XAdvance
	}

	if numCells == 1 {
		if !sp.Rendered {
			sp.Rendered = true
			rc.sendSprite(sp.Pos, canvas)
		}
		return
	}
	if err := face.SplitCells(cellWidth, cellHeight, canvas, rc.cellScratch[0], rc.cellScratch[1]); err != nil {
		logger().Warn("glow: failed to split cells", "error", err)
		return
	}
	if !sp.Rendered {
		sp.Rendered = true
		rc.sendSprite(sp.Pos, rc.cellScratch[0])
	}
	if sp2 != nil && !sp2.Rendered {
		sp2.Rendered = true
		rc.sendSprite(sp2.Pos, rc.cellScratch[1])
	}
}
