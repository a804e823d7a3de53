// Package glow renders terminal text into a GPU sprite atlas. Given a
// line of character cells it selects a font per cell, shapes each
// cell's text into glyphs, rasterizes and composes the glyphs into
// cell-sized grayscale sprites, and hands every sprite to the GPU
// sink exactly once; the cells end up carrying only the (x, y, z)
// atlas coordinates of their sprite.
//
// All rendering runs on a single thread through an explicit
// RenderContext; nothing in this package is safe for concurrent use.
package glow

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Cell attribute bit layout.
const (
	// WidthMask extracts the cell width (0, 1 or 2) from Attrs.
	WidthMask = 0x3
	// BoldShift is the bit position of the bold flag in Attrs.
	BoldShift = 2
	// ItalicShift is the bit position of the italic flag in Attrs.
	ItalicShift = 3

	// CCMask extracts the first combining codepoint from CC.
	CCMask = 0xffff
)

// Cell is a single slot in the terminal grid. The renderer reads Ch,
// CC and Attrs and writes the sprite coordinates; the cell buffer
// itself is owned by the terminal.
type Cell struct {
	// Ch is the base codepoint, 0 for a blank cell.
	Ch rune

	// CC packs up to two 16-bit combining codepoints: the first in
	// the low word, the second in the high word.
	CC uint32

	// Attrs carries width, bold and italic per the bit layout above.
	Attrs uint16

	// Sprite coordinates, written by the renderer.
	SpriteX, SpriteY, SpriteZ uint32
}

// Width returns the cell width in columns.
func (c *Cell) Width() int { return int(c.Attrs & WidthMask) }

// Bold reports the bold attribute.
func (c *Cell) Bold() bool { return c.Attrs>>BoldShift&1 == 1 }

// Italic reports the italic attribute.
func (c *Cell) Italic() bool { return c.Attrs>>ItalicShift&1 == 1 }

func (c *Cell) setSprite(x, y, z uint32) {
	c.SpriteX, c.SpriteY, c.SpriteZ = x, y, z
}

// Line is an ordered sequence of cells of fixed count.
type Line struct {
	Cells []Cell
}

// cellText assembles the text of a cell: the base codepoint followed
// by its combining codepoints, NFC-normalized so canonically
// equivalent cell content shapes to the same glyph cluster.
func cellText(c *Cell) string {
	var sb strings.Builder
	sb.WriteRune(c.Ch)
	if c.CC != 0 {
		sb.WriteRune(rune(c.CC & CCMask))
		if cc := c.CC >> 16; cc != 0 {
			sb.WriteRune(rune(cc))
		}
	}
	return norm.NFC.String(sb.String())
}
