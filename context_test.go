package glow

import (
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/glowterm/glow/face"
	"github.com/glowterm/glow/sprite"
)

type upload struct {
	x, y, z uint32
	buf     []byte
}

// recordingSink captures every sprite upload.
type recordingSink struct {
	uploads []upload
}

func (s *recordingSink) send(x, y, z uint32, buf []byte) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.uploads = append(s.uploads, upload{x, y, z, cp})
}

func testFace(t *testing.T, data []byte) *face.Face {
	t.Helper()
	f, err := face.New(data, 0, true, face.HintStyleFull)
	if err != nil {
		t.Fatalf("face.New: %v", err)
	}
	return f
}

func testConfig(t *testing.T) FontConfig {
	t.Helper()
	return FontConfig{
		PtSize: 12,
		XDPI:   96,
		YDPI:   96,
		Medium: testFace(t, goregular.TTF),
	}
}

func newTestContext(t *testing.T, cfg FontConfig) (*RenderContext, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	rc := NewRenderContext(sink.send, sprite.TrackerConfig{}, Options{})
	if _, err := rc.SetFont(cfg); err != nil {
		t.Fatalf("SetFont: %v", err)
	}
	return rc, sink
}

func TestSetFont(t *testing.T) {
	rc, _ := newTestContext(t, testConfig(t))

	m := rc.Metrics()
	if m.CellWidth <= 0 || m.CellHeight < minCellHeight {
		t.Fatalf("metrics = %+v, want positive cell size", m)
	}
	if m.UnderlinePosition > m.CellHeight-1 {
		t.Errorf("underline position %d beyond cell height %d", m.UnderlinePosition, m.CellHeight)
	}
	if len(rc.canvas) != canvasCells*m.CellWidth*m.CellHeight {
		t.Errorf("canvas = %d bytes, want %d", len(rc.canvas), canvasCells*m.CellWidth*m.CellHeight)
	}

	xnum, ynum, z := rc.CurrentLayout()
	if xnum == 0 || ynum != 1 || z != 0 {
		t.Errorf("CurrentLayout = (%d, %d, %d), want fresh layout", xnum, ynum, z)
	}
}

func TestSetFont_RequiresMedium(t *testing.T) {
	rc := NewRenderContext(nil, sprite.TrackerConfig{}, Options{})
	if _, err := rc.SetFont(FontConfig{PtSize: 12, XDPI: 96, YDPI: 96}); err != ErrNoMediumFont {
		t.Errorf("err = %v, want ErrNoMediumFont", err)
	}
}

func TestSetFontSize_FailureKeepsConfiguration(t *testing.T) {
	rc, _ := newTestContext(t, testConfig(t))
	before := rc.Metrics()

	if _, err := rc.SetFontSize(0, 96, 96); err == nil {
		t.Fatal("SetFontSize(0) should fail")
	}
	if rc.Metrics() != before {
		t.Errorf("metrics changed after failed resize: %+v -> %+v", before, rc.Metrics())
	}
}

func TestAdjustLineHeight(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}
	plain := NewRenderContext(sink.send, sprite.TrackerConfig{}, Options{})
	base, err := plain.SetFont(cfg)
	if err != nil {
		t.Fatal(err)
	}

	adjusted := NewRenderContext(sink.send, sprite.TrackerConfig{}, Options{
		AdjustLineHeightPx:   2,
		AdjustLineHeightFrac: 2.0,
	})
	m, err := adjusted.SetFont(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if want := (base.CellHeight + 2) * 2; m.CellHeight != want {
		t.Errorf("adjusted cell height = %d, want %d", m.CellHeight, want)
	}
}

func TestAdjustLineHeight_Bounds(t *testing.T) {
	rc := NewRenderContext(nil, sprite.TrackerConfig{}, Options{AdjustLineHeightPx: 5000})
	_, err := rc.SetFont(testConfig(t))
	if _, ok := err.(*CellHeightError); !ok {
		t.Errorf("err = %v (%T), want *CellHeightError", err, err)
	}
}

func TestSetFontSize_InvalidatesCachesAndTracker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bold = testFace(t, gobold.TTF)
	rc, sink := newTestContext(t, cfg)

	line := textLine("AB", 0)
	line.Cells[1].Attrs |= 1 << BoldShift
	rc.RenderLine(line)
	if rc.roster.medium.CacheLen() == 0 || rc.roster.bold.CacheLen() == 0 {
		t.Fatal("expected filled sprite caches before resize")
	}

	if _, err := rc.SetFontSize(14, 96, 96); err != nil {
		t.Fatalf("SetFontSize: %v", err)
	}
	if n := rc.roster.medium.CacheLen(); n != 0 {
		t.Errorf("medium cache len after resize = %d, want 0", n)
	}
	if n := rc.roster.bold.CacheLen(); n != 0 {
		t.Errorf("bold cache len after resize = %d, want 0", n)
	}

	// The tracker cursor rewound to the origin: the first sprite
	// rendered after the resize lands at (0, 0, 0).
	sink.uploads = nil
	rc.RenderLine(textLine("A", 0))
	if len(sink.uploads) == 0 {
		t.Fatal("no upload after resize")
	}
	first := sink.uploads[0]
	if first.x != 0 || first.y != 0 || first.z != 0 {
		t.Errorf("first sprite after resize at (%d, %d, %d), want origin", first.x, first.y, first.z)
	}
}

func TestSendPrerenderedSprites(t *testing.T) {
	rc, sink := newTestContext(t, testConfig(t))
	m := rc.Metrics()
	cellSize := m.CellWidth * m.CellHeight

	bufA := make([]byte, cellSize)
	bufB := make([]byte, cellSize)
	bufA[0], bufB[0] = 1, 2

	lastX, err := rc.SendPrerenderedSprites(bufA, bufB)
	if err != nil {
		t.Fatalf("SendPrerenderedSprites: %v", err)
	}
	if lastX != 2 {
		t.Errorf("last x = %d, want 2", lastX)
	}
	if len(sink.uploads) != 3 {
		t.Fatalf("uploads = %d, want 3 (blank + 2)", len(sink.uploads))
	}
	for _, v := range sink.uploads[0].buf {
		if v != 0 {
			t.Fatal("blank sprite is not blank")
		}
	}
	if sink.uploads[1].buf[0] != 1 || sink.uploads[2].buf[0] != 2 {
		t.Error("prerendered buffers uploaded out of order")
	}
}

func TestSetSink(t *testing.T) {
	rc, native := newTestContext(t, testConfig(t))

	swapped := &recordingSink{}
	rc.SetSink(swapped.send)
	if _, err := rc.SendPrerenderedSprites(); err != nil {
		t.Fatal(err)
	}
	if len(swapped.uploads) != 1 {
		t.Errorf("swapped sink uploads = %d, want 1", len(swapped.uploads))
	}

	nativeBefore := len(native.uploads)
	rc.SetSink(nil) // restore native
	if _, err := rc.SendPrerenderedSprites(); err != nil {
		t.Fatal(err)
	}
	if len(native.uploads) != nativeBefore+1 {
		t.Errorf("native sink did not receive the upload after restore")
	}
}

func TestNoSinkDropsUploads(t *testing.T) {
	rc := NewRenderContext(nil, sprite.TrackerConfig{}, Options{})
	if _, err := rc.SetFont(testConfig(t)); err != nil {
		t.Fatal(err)
	}
	// Allocation proceeds even though uploads are dropped.
	lastX, err := rc.SendPrerenderedSprites(make([]byte, rc.metrics.CellWidth*rc.metrics.CellHeight))
	if err != nil {
		t.Fatal(err)
	}
	if lastX != 1 {
		t.Errorf("last x = %d, want 1", lastX)
	}
}
