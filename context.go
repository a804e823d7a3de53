package glow

import (
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/glowterm/glow/face"
	"github.com/glowterm/glow/sprite"
)

// Cell height bounds after line-height adjustments.
const (
	minCellHeight = 4
	maxCellHeight = 1000
)

// maxFallbackFonts caps the dynamically grown fallback set.
const maxFallbackFonts = 255

// canvasCells is how many cells wide the shared composition canvas
// is: a double-width glyph is composed in one pass and split, and two
// cells is the most a single cache entry can address.
const canvasCells = 2

// FallbackProvider resolves a face for cell text no configured face
// covers. Returning a nil face means no match.
type FallbackProvider func(text string, bold, italic bool) (*face.Face, error)

// BoxPainter paints a box-drawing codepoint into a cell-sized
// grayscale buffer suitable for the GPU sink.
type BoxPainter func(ch rune) ([]byte, error)

// SymbolMap routes a codepoint range to a symbol-map face. Ranges may
// overlap; the first match in declared order wins.
type SymbolMap struct {
	Left, Right rune
	FontIndex   int
}

// FontSpec is a face plus the style attributes it is admitted under.
type FontSpec struct {
	Face         *face.Face
	Bold, Italic bool
}

// Options holds the tunables read during metric recomputation.
type Options struct {
	// AdjustLineHeightPx is an additive cell height delta in pixels.
	AdjustLineHeightPx int

	// AdjustLineHeightFrac is a multiplicative cell height factor.
	// Zero (and 1.0) leave the height unchanged.
	AdjustLineHeightFrac float64
}

// FontConfig is the argument to SetFont. Medium is required;
// everything else is optional.
type FontConfig struct {
	SymbolMaps     []SymbolMap
	SymbolMapFaces []FontSpec

	PtSize     float64
	XDPI, YDPI float64

	Medium *face.Face
	Bold   *face.Face
	Italic *face.Face
	BI     *face.Face

	FallbackProvider FallbackProvider
	BoxPainter       BoxPainter
}

// roster is the installed font configuration. SetFont replaces it
// atomically so a failed reconfiguration leaves the previous one in
// effect.
type roster struct {
	medium, bold, italic, bi Font

	fallbacks []*Font

	symbolMaps  []SymbolMap
	symbolFonts []*Font

	fallbackProvider FallbackProvider
	boxPainter       BoxPainter
}

// styleFonts returns the four style-indexed fonts.
func (r *roster) styleFonts() [4]*Font {
	return [4]*Font{&r.medium, &r.bold, &r.italic, &r.bi}
}

// Metrics is the global cell geometry shared by every component.
type Metrics struct {
	CellWidth          int
	CellHeight         int
	Baseline           int
	UnderlinePosition  int
	UnderlineThickness int
}

// RenderContext is the text rendering pipeline: font roster, sprite
// tracker, composition canvas and GPU sink. All methods must be
// called from the render thread; RenderContext is not safe for
// concurrent use.
type RenderContext struct {
	opts    Options
	tracker *sprite.Tracker

	roster roster

	blankFont   Font
	missingFont Font
	boxFont     Font

	ptSize     float64
	xdpi, ydpi float64

	metrics Metrics

	// canvas is the shared composition surface, canvasCells wide.
	canvas []byte
	// cellScratch holds the per-cell buffers SplitCells scatters into.
	cellScratch [canvasCells][]byte

	nativeSink SinkFunc
	sink       SinkFunc
	sinkWarned bool
}

// NewRenderContext creates a render context. nativeSink may be nil;
// uploads are then dropped (with a single warning) until a sink is
// installed with SetSink.
func NewRenderContext(nativeSink SinkFunc, trackerConfig sprite.TrackerConfig, opts Options) *RenderContext {
	return &RenderContext{
		opts:        opts,
		tracker:     sprite.NewTracker(trackerConfig),
		blankFont:   Font{kind: fontBlank},
		missingFont: Font{kind: fontMissing},
		boxFont:     Font{kind: fontBox},
		nativeSink:  nativeSink,
		sink:        nativeSink,
	}
}

// SetSpriteLimits updates the GPU texture limits. The texture size
// takes effect at the next metric recomputation; the array length
// bounds the atlas from the next sprite allocation on.
func (rc *RenderContext) SetSpriteLimits(maxTextureSize, maxArrayLen uint32) {
	rc.tracker.SetLimits(maxTextureSize, maxArrayLen)
}

// CurrentLayout reports the live atlas envelope for the GPU binding.
func (rc *RenderContext) CurrentLayout() (xnum, ynum, z uint32) {
	return rc.tracker.CurrentLayout()
}

// Metrics returns the current global cell metrics.
func (rc *RenderContext) Metrics() Metrics { return rc.metrics }

// SetFont installs a new font configuration: symbol maps, style
// roster, fallback provider and box painter, then recomputes the cell
// metrics. On error the previously installed configuration remains in
// effect.
func (rc *RenderContext) SetFont(cfg FontConfig) (Metrics, error) {
	if cfg.Medium == nil {
		return Metrics{}, ErrNoMediumFont
	}

	next := roster{
		symbolMaps:       cfg.SymbolMaps,
		fallbackProvider: cfg.FallbackProvider,
		boxPainter:       cfg.BoxPainter,
	}
	next.medium = *newFont(cfg.Medium, false, false)
	if cfg.Bold != nil {
		next.bold = *newFont(cfg.Bold, true, false)
	}
	if cfg.Italic != nil {
		next.italic = *newFont(cfg.Italic, false, true)
	}
	if cfg.BI != nil {
		next.bi = *newFont(cfg.BI, true, true)
	}
	next.symbolFonts = make([]*Font, len(cfg.SymbolMapFaces))
	for i, spec := range cfg.SymbolMapFaces {
		next.symbolFonts[i] = newFont(spec.Face, spec.Bold, spec.Italic)
	}

	prev := rc.roster
	rc.roster = next
	m, err := rc.updateCellMetrics(cfg.PtSize, cfg.XDPI, cfg.YDPI)
	if err != nil {
		rc.roster = prev
		return Metrics{}, err
	}
	return m, nil
}

// SetFontSize changes the point size and DPI of every configured face
// and recomputes the cell metrics.
func (rc *RenderContext) SetFontSize(ptSize, xdpi, ydpi float64) (Metrics, error) {
	return rc.updateCellMetrics(ptSize, xdpi, ydpi)
}

// eachConfiguredFont visits every font in the roster that carries a face.
func (rc *RenderContext) eachConfiguredFont(fn func(*Font) error) error {
	for _, f := range rc.roster.styleFonts() {
		if f.face != nil {
			if err := fn(f); err != nil {
				return err
			}
		}
	}
	for _, f := range rc.roster.fallbacks {
		if f.face != nil {
			if err := fn(f); err != nil {
				return err
			}
		}
	}
	for _, f := range rc.roster.symbolFonts {
		if f.face != nil {
			if err := fn(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateCellMetrics propagates the size to every configured face,
// invalidates the sprite caches, rereads the cell geometry from the
// medium face, applies the line-height adjustments and resets the
// atlas layout and composition canvas.
func (rc *RenderContext) updateCellMetrics(ptSize, xdpi, ydpi float64) (Metrics, error) {
	charSize := fixed.Int26_6(math.Round(ptSize * 64))
	err := rc.eachConfiguredFont(func(f *Font) error {
		if err := f.face.SetSize(charSize, charSize, xdpi, ydpi); err != nil {
			return err
		}
		f.cache.Clear()
		return nil
	})
	if err != nil {
		return Metrics{}, err
	}
	rc.boxFont.cache.Clear()

	fm, err := rc.roster.medium.face.CellMetrics()
	if err != nil {
		return Metrics{}, err
	}
	if fm.CellWidth == 0 {
		return Metrics{}, ErrNoCellWidth
	}

	cellHeight := fm.CellHeight
	if rc.opts.AdjustLineHeightPx != 0 {
		cellHeight += rc.opts.AdjustLineHeightPx
	}
	if frac := rc.opts.AdjustLineHeightFrac; frac != 0 && frac != 1.0 {
		cellHeight = int(float64(cellHeight) * frac)
	}
	if cellHeight < minCellHeight || cellHeight > maxCellHeight {
		return Metrics{}, &CellHeightError{Height: cellHeight}
	}

	m := Metrics{
		CellWidth:          fm.CellWidth,
		CellHeight:         cellHeight,
		Baseline:           fm.Baseline,
		UnderlinePosition:  min(cellHeight-1, fm.UnderlinePosition),
		UnderlineThickness: fm.UnderlineThickness,
	}

	rc.ptSize, rc.xdpi, rc.ydpi = ptSize, xdpi, ydpi
	rc.metrics = m
	rc.tracker.SetLayout(uint32(m.CellWidth), uint32(m.CellHeight))
	rc.canvas = make([]byte, canvasCells*m.CellWidth*m.CellHeight)
	for i := range rc.cellScratch {
		rc.cellScratch[i] = make([]byte, m.CellWidth*m.CellHeight)
	}
	return m, nil
}

// SendPrerenderedSprites uploads the blank sprite followed by the
// given cell-sized buffers (cursor shapes, underlines and the like),
// advancing the tracker past each slot. It returns the x coordinate
// of the last slot used.
func (rc *RenderContext) SendPrerenderedSprites(bufs ...[]byte) (uint32, error) {
	clearCanvas(rc.canvas)
	pos, err := rc.tracker.Allocate()
	if err != nil {
		return 0, err
	}
	rc.sendSprite(pos, rc.canvas[:rc.metrics.CellWidth*rc.metrics.CellHeight])
	for _, buf := range bufs {
		pos, err = rc.tracker.Allocate()
		if err != nil {
			return 0, err
		}
		rc.sendSprite(pos, buf)
	}
	return pos.X, nil
}

func clearCanvas(canvas []byte) {
	for i := range canvas {
		canvas[i] = 0
	}
}
