package glow

// isBoxCodepoint reports whether ch is painted by the box painter:
// the box-drawing ranges plus the Powerline triangle glyphs.
func isBoxCodepoint(ch rune) bool {
	switch {
	case ch >= 0x2500 && ch <= 0x2570:
		return true
	case ch >= 0x2574 && ch <= 0x257f:
		return true
	case ch == 0xe0b0 || ch == 0xe0b2:
		return true
	}
	return false
}

// boxGlyphID maps a box codepoint onto the box font's glyph space.
func boxGlyphID(ch rune) uint16 {
	switch {
	case ch >= 0x2500 && ch <= 0x257f:
		return uint16(ch - 0x2500)
	case ch == 0xe0b0:
		return 0x80
	case ch == 0xe0b2:
		return 0x81
	default:
		return 0x82
	}
}

// hasCellText reports whether the font's face covers the cell's base
// codepoint and all of its combining codepoints.
func hasCellText(f *Font, cell *Cell) bool {
	if f.face == nil || !f.face.HasCodepoint(cell.Ch) {
		return false
	}
	if cell.CC != 0 {
		if !f.face.HasCodepoint(rune(cell.CC & CCMask)) {
			return false
		}
		if cc := cell.CC >> 16; cc != 0 && !f.face.HasCodepoint(rune(cc)) {
			return false
		}
	}
	return true
}

// inSymbolMaps returns the symbol-map font for ch, or nil. First
// match in declared order wins; overlapping ranges are allowed.
func (rc *RenderContext) inSymbolMaps(ch rune) *Font {
	for _, sm := range rc.roster.symbolMaps {
		if sm.Left <= ch && ch <= sm.Right {
			if sm.FontIndex < 0 || sm.FontIndex >= len(rc.roster.symbolFonts) {
				return nil
			}
			return rc.roster.symbolFonts[sm.FontIndex]
		}
	}
	return nil
}

// fallbackFont finds or creates a fallback font covering the cell.
// It never fails: provider errors and no-match replies degrade to the
// missing font sentinel.
func (rc *RenderContext) fallbackFont(cell *Cell) *Font {
	bold, italic := cell.Bold(), cell.Italic()

	for _, f := range rc.roster.fallbacks {
		if f.bold == bold && f.italic == italic && hasCellText(f, cell) {
			return f
		}
	}
	if rc.roster.fallbackProvider == nil || len(rc.roster.fallbacks) >= maxFallbackFonts {
		return &rc.missingFont
	}
	text := cellText(cell)
	fc, err := rc.roster.fallbackProvider(text, bold, italic)
	if err != nil {
		logger().Warn("glow: fallback font provider failed", "text", text, "error", err)
		return &rc.missingFont
	}
	if fc == nil {
		return &rc.missingFont
	}
	f := newFont(fc, bold, italic)
	rc.roster.fallbacks = append(rc.roster.fallbacks, f)
	return f
}

// fontForCell picks the font to render a cell with. It never fails;
// uncoverable cells come back as the missing font sentinel.
func (rc *RenderContext) fontForCell(cell *Cell) *Font {
	if cell.Ch == 0 {
		return &rc.blankFont
	}
	if isBoxCodepoint(cell.Ch) {
		return &rc.boxFont
	}
	if f := rc.inSymbolMaps(cell.Ch); f != nil {
		return f
	}

	var f *Font
	switch {
	case cell.Bold() && cell.Italic():
		f = &rc.roster.bi
	case cell.Bold():
		f = &rc.roster.bold
	case cell.Italic():
		f = &rc.roster.italic
	default:
		f = &rc.roster.medium
	}
	if f.face == nil {
		f = &rc.roster.medium
	}
	if hasCellText(f, cell) {
		return f
	}
	return rc.fallbackFont(cell)
}
