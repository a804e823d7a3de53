package face

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// ShapeRecord is one positioned glyph produced by shaping. Offsets
// and advances are in pixels (the shaper's 26.6 values divided by 64).
type ShapeRecord struct {
	GlyphID  uint16
	Cluster  int
	Mask     uint32
	XOffset  float64
	YOffset  float64
	XAdvance float64
	YAdvance float64
}

// Shape shapes text with the face at its current size and returns the
// glyph sequence. Segment properties (script) are auto-detected from
// the text; direction is always left to right since the cell grid
// carries no bidi ordering.
func (f *Face) Shape(text string) []ShapeRecord {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      f.shapeFace,
		Size:      f.ppem,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	output := f.shaper.Shape(input)

	records := make([]ShapeRecord, len(output.Glyphs))
	for i, g := range output.Glyphs {
		records[i] = ShapeRecord{
			GlyphID:  uint16(g.GlyphID),
			Cluster:  g.ClusterIndex,
			Mask:     uint32(g.Mask),
			XOffset:  fixedToFloat(g.XOffset),
			YOffset:  fixedToFloat(g.YOffset),
			XAdvance: fixedToFloat(g.XAdvance),
			YAdvance: fixedToFloat(g.YAdvance),
		}
	}
	return records
}

// detectScript returns the script of the first non-space rune, so
// shaping picks the right OpenType shaper for the cell content.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
