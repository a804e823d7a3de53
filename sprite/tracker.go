// Package sprite manages glyph sprites inside the GPU atlas: a
// process-wide monotonic slot allocator (Tracker) and a per-font
// glyph-to-slot cache (Cache).
//
// The atlas is an append-only 3D array of cell-sized sprites. Slots
// are handed out in strictly lexicographic (x, y, z) order and are
// never freed or moved; when the cell size changes the whole atlas
// is discarded and the cursor returns to the origin.
//
// None of the types in this package are safe for concurrent use.
// All operations run on the render thread.
package sprite

import "errors"

// ErrAtlasFull is returned when the tracker has handed out every
// slot the GPU texture limits allow.
var ErrAtlasFull = errors.New("sprite: out of texture space for sprites")

// Position is a slot in the 3D sprite atlas.
type Position struct {
	X, Y, Z uint32
}

// TrackerConfig holds the GPU texture limits for a Tracker.
type TrackerConfig struct {
	// MaxTextureSize is the maximum texture edge in pixels.
	// Default: 1000
	MaxTextureSize uint32

	// MaxArrayLen is the maximum number of texture array layers.
	// Default: 1000
	MaxArrayLen uint32
}

// DefaultTrackerConfig returns the default tracker limits.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxTextureSize: 1000,
		MaxArrayLen:    1000,
	}
}

// maxCoord bounds xnum and max_y so positions fit in 16 bits on the GPU side.
const maxCoord = 65535

// maxLayers bounds the z coordinate.
const maxLayers = 65536

// Tracker allocates (x, y, z) atlas positions monotonically.
// The zero value is not ready for use; call NewTracker.
type Tracker struct {
	maxTextureSize uint32
	maxArrayLen    uint32

	x, y, z uint32
	xnum    uint32
	ynum    uint32
	maxY    uint32

	full bool
}

// NewTracker creates a tracker with the given limits.
// Zero-value config fields use the defaults.
func NewTracker(config TrackerConfig) *Tracker {
	if config.MaxTextureSize == 0 {
		config.MaxTextureSize = DefaultTrackerConfig().MaxTextureSize
	}
	if config.MaxArrayLen == 0 {
		config.MaxArrayLen = DefaultTrackerConfig().MaxArrayLen
	}
	return &Tracker{
		maxTextureSize: config.MaxTextureSize,
		maxArrayLen:    config.MaxArrayLen,
		maxY:           100,
	}
}

// SetLimits updates the texture limits. The cursor is untouched; the
// texture size takes effect at the next SetLayout, while the array
// length bounds the z range from the next allocation on.
func (t *Tracker) SetLimits(maxTextureSize, maxArrayLen uint32) {
	t.maxTextureSize = maxTextureSize
	t.maxArrayLen = maxArrayLen
}

// SetLayout recomputes the atlas grid for a cell size and rewinds the
// cursor to the origin. Called on every cell-metric change.
func (t *Tracker) SetLayout(cellWidth, cellHeight uint32) {
	t.xnum = clamp(t.maxTextureSize/cellWidth, 1, maxCoord)
	t.maxY = clamp(t.maxTextureSize/cellHeight, 1, maxCoord)
	t.ynum = 1
	t.x, t.y, t.z = 0, 0, 0
	t.full = false
}

// Allocate returns the current slot and advances the cursor.
// Once the z range is exhausted it returns ErrAtlasFull forever
// (until the next SetLayout).
func (t *Tracker) Allocate() (Position, error) {
	if t.full {
		return Position{}, ErrAtlasFull
	}
	pos := Position{X: t.x, Y: t.y, Z: t.z}
	t.increment()
	return pos, nil
}

func (t *Tracker) increment() {
	t.x++
	if t.x >= t.xnum {
		t.x = 0
		t.y++
		t.ynum = min(max(t.ynum, t.y+1), t.maxY)
		if t.y >= t.maxY {
			t.y = 0
			t.z++
			if t.z >= min(maxLayers, t.maxArrayLen) {
				t.full = true
			}
		}
	}
}

// CurrentLayout reports the live atlas envelope: the x and y grid
// dimensions and the highest z layer the cursor has reached. The GPU
// binding sizes its texture array as xnum × ynum × (z+1).
func (t *Tracker) CurrentLayout() (xnum, ynum, z uint32) {
	return t.xnum, t.ynum, t.z
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
