package glow

import (
	"github.com/glowterm/glow/face"
	"github.com/glowterm/glow/sprite"
)

type fontKind uint8

const (
	// fontReal is a font backed by a face handle.
	fontReal fontKind = iota
	// fontBlank is the sentinel for empty cells; sprite (0, 0, 0).
	fontBlank
	// fontMissing is the sentinel for cells no face covers.
	fontMissing
	// fontBox is the sentinel for box-drawing cells, painted by the
	// external box painter rather than a face.
	fontBox
)

// Font pairs a face handle with the sprite cache for the glyphs
// rendered from it. Sentinel fonts (blank, missing, box) carry no
// face; the run renderer dispatches on the kind.
type Font struct {
	kind         fontKind
	face         *face.Face
	bold, italic bool
	cache        sprite.Cache
}

// newFont admits a face as a medium/bold/italic/bi/symbol/fallback font.
func newFont(f *face.Face, bold, italic bool) *Font {
	return &Font{kind: fontReal, face: f, bold: bold, italic: italic}
}

// Face returns the face handle, nil for sentinel fonts.
func (f *Font) Face() *face.Face { return f.face }

// CacheLen returns the number of filled sprite-cache entries.
func (f *Font) CacheLen() int { return f.cache.Len() }
