package glow

import (
	"testing"

	"golang.org/x/image/font/gofont/gobold"

	"github.com/glowterm/glow/sprite"
)

// defaultTinyTracker yields an atlas of only a handful of slots so
// exhaustion is easy to reach.
func defaultTinyTracker() sprite.TrackerConfig {
	return sprite.TrackerConfig{MaxTextureSize: 32, MaxArrayLen: 2}
}

// textLine builds a line of width-1 cells from s, with extra blank
// trailing cells.
func textLine(s string, trailingBlanks int) *Line {
	var cells []Cell
	for _, r := range s {
		cells = append(cells, Cell{Ch: r, Attrs: 1})
	}
	for i := 0; i < trailingBlanks; i++ {
		cells = append(cells, Cell{})
	}
	return &Line{Cells: cells}
}

func sprites(line *Line) [][3]uint32 {
	out := make([][3]uint32, len(line.Cells))
	for i, c := range line.Cells {
		out[i] = [3]uint32{c.SpriteX, c.SpriteY, c.SpriteZ}
	}
	return out
}

func TestRenderLine_BlankCells(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))

	line := textLine("", 4)
	line.Cells[2].SpriteX = 99 // stale coordinates get overwritten
	rc.RenderLine(line)

	for i, s := range sprites(line) {
		if s != ([3]uint32{0, 0, 0}) {
			t.Errorf("cell %d sprite = %v, want (0,0,0)", i, s)
		}
	}
	if len(sink.uploads) != 0 {
		t.Errorf("blank line produced %d uploads, want 0", len(sink.uploads))
	}
}

func TestRenderLine_MissingFont(t *testing.T) {
	rc, _ := newTestContext(t, testConfig(t))

	line := &Line{Cells: []Cell{{Ch: 0xE000, Attrs: 1}, {Ch: 0xE001, Attrs: 1}}}
	rc.RenderLine(line)

	for i, s := range sprites(line) {
		if s != ([3]uint32{missingGlyphSprite, 0, 0}) {
			t.Errorf("cell %d sprite = %v, want (%d,0,0)", i, s, missingGlyphSprite)
		}
	}
}

func TestRenderLine_BoxCells(t *testing.T) {
	cfg := testConfig(t)
	painterCalls := 0
	var rcRef **RenderContext
	cfg.BoxPainter = func(ch rune) ([]byte, error) {
		painterCalls++
		m := (*rcRef).Metrics()
		buf := make([]byte, m.CellWidth*m.CellHeight)
		buf[0] = byte(ch)
		return buf, nil
	}
	rc, sink := newTestContext(t, cfg)
	rcRef = &rc

	line := &Line{Cells: []Cell{{Ch: 0x2500, Attrs: 1}, {Ch: 0x2502, Attrs: 1}, {Ch: 0x2500, Attrs: 1}}}
	rc.RenderLine(line)

	s := sprites(line)
	if s[0] != s[2] {
		t.Errorf("identical box cells got distinct sprites %v and %v", s[0], s[2])
	}
	if s[0] == s[1] {
		t.Error("distinct box cells share a sprite")
	}
	if painterCalls != 2 {
		t.Errorf("box painter calls = %d, want 2 (one per distinct glyph)", painterCalls)
	}
	if len(sink.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(sink.uploads))
	}

	// Re-rendering is pure cache hits: no painting, no uploads.
	rc.RenderLine(line)
	if painterCalls != 2 || len(sink.uploads) != 2 {
		t.Errorf("re-render repainted (%d calls, %d uploads)", painterCalls, len(sink.uploads))
	}
}

func TestRenderLine_Text(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))
	if _, err := rc.SendPrerenderedSprites(); err != nil {
		t.Fatal(err)
	}
	baseUploads := len(sink.uploads)

	line := textLine("AB", 0)
	rc.RenderLine(line)

	s := sprites(line)
	if s[0] == s[1] {
		t.Errorf("distinct glyphs share sprite %v", s[0])
	}
	if s[0] == ([3]uint32{0, 0, 0}) || s[1] == ([3]uint32{0, 0, 0}) {
		t.Error("text cell left with the blank sprite")
	}
	if got := len(sink.uploads) - baseUploads; got != 2 {
		t.Fatalf("uploads = %d, want 2", got)
	}
	m := rc.Metrics()
	for _, u := range sink.uploads[baseUploads:] {
		if len(u.buf) != m.CellWidth*m.CellHeight {
			t.Errorf("upload buffer = %d bytes, want %d", len(u.buf), m.CellWidth*m.CellHeight)
		}
		ink := false
		for _, v := range u.buf {
			if v > 0 {
				ink = true
				break
			}
		}
		if !ink {
			t.Error("uploaded glyph sprite has no ink")
		}
	}

	// Idempotence: same sprites, no new uploads, exactly one cache
	// entry per glyph context.
	before := s
	rc.RenderLine(line)
	if got := sprites(line); got[0] != before[0] || got[1] != before[1] {
		t.Errorf("sprites changed on re-render: %v -> %v", before, got)
	}
	if got := len(sink.uploads) - baseUploads; got != 2 {
		t.Errorf("re-render uploaded %d sprites, want 2", got)
	}
	if n := rc.roster.medium.CacheLen(); n != 2 {
		t.Errorf("cache len = %d, want 2", n)
	}
}

func TestRenderLine_RepeatedGlyphsShareSprites(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))

	line := textLine("AAAA", 0)
	rc.RenderLine(line)

	s := sprites(line)
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			t.Errorf("cell %d sprite = %v, want %v", i, s[i], s[0])
		}
	}
	if len(sink.uploads) != 1 {
		t.Errorf("uploads = %d, want 1 (sprite uploaded exactly once)", len(sink.uploads))
	}
}

func TestRenderLine_WideCell(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))

	line := &Line{Cells: []Cell{
		{Ch: 'W', Attrs: 2}, // double width
		{Ch: 0, Attrs: 0},   // its right half
		{Ch: 'x', Attrs: 1},
	}}
	rc.RenderLine(line)

	s := sprites(line)
	if s[0] == s[1] {
		t.Error("wide halves share a sprite slot")
	}
	if s[1] == ([3]uint32{0, 0, 0}) {
		t.Error("right half of wide glyph was not assigned a sprite")
	}
	if s[2] == ([3]uint32{0, 0, 0}) {
		t.Error("cell after the wide pair did not render")
	}
	// Two halves plus the narrow glyph.
	if len(sink.uploads) != 3 {
		t.Errorf("uploads = %d, want 3", len(sink.uploads))
	}

	// The wide pair occupies two cache entries (is_second variants).
	if n := rc.roster.medium.CacheLen(); n != 3 {
		t.Errorf("cache len = %d, want 3", n)
	}
}

func TestRenderLine_RunSplitAcrossFonts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bold = testFace(t, gobold.TTF)
	rc, sink := newTestContext(t, cfg)

	line := textLine("ab", 0)
	line.Cells[1].Attrs |= 1 << BoldShift
	rc.RenderLine(line)

	if n := rc.roster.medium.CacheLen(); n != 1 {
		t.Errorf("medium cache len = %d, want 1", n)
	}
	if n := rc.roster.bold.CacheLen(); n != 1 {
		t.Errorf("bold cache len = %d, want 1", n)
	}
	if len(sink.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(sink.uploads))
	}
}

func TestRenderLine_CombiningChars(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))

	plain := textLine("e", 0)
	rc.RenderLine(plain)

	accented := &Line{Cells: []Cell{{Ch: 'e', CC: 0x0301, Attrs: 1}}}
	rc.RenderLine(accented)

	ps, as := sprites(plain)[0], sprites(accented)[0]
	if as == ([3]uint32{0, 0, 0}) {
		t.Fatal("accented cell did not render")
	}
	if ps == as {
		t.Error("plain and accented cells share a sprite")
	}
	if len(sink.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(sink.uploads))
	}
}

func TestRenderLine_AtlasExhaustionDegrades(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}
	rc := NewRenderContext(sink.send, defaultTinyTracker(), Options{})
	if _, err := rc.SetFont(cfg); err != nil {
		t.Fatal(err)
	}

	// Enough distinct glyphs to run the tiny atlas dry.
	line := textLine("abcdefghijklmnopqrstuvwxyz", 0)
	rc.RenderLine(line)

	s := sprites(line)
	blank := 0
	for _, v := range s {
		if v == ([3]uint32{0, 0, 0}) {
			blank++
		}
	}
	if blank == 0 {
		t.Error("exhausted atlas did not degrade any cell to the blank sprite")
	}
	if blank == len(s) {
		t.Error("every cell degraded; early allocations should have succeeded")
	}
}
