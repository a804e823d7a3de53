package face

import (
	"fmt"

	"golang.org/x/image/math/fixed"
)

// FaceError wraps a rasterizer or parser failure with the operation
// that produced it.
type FaceError struct {
	Op   string
	Path string
	Err  error
}

func (e *FaceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("face: failed to %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("face: failed to %s: %v", e.Op, e.Err)
}

func (e *FaceError) Unwrap() error { return e.Err }

// SetSizeError reports a character size the face cannot be scaled to.
type SetSizeError struct {
	CharWidth, CharHeight fixed.Int26_6
	XDPI, YDPI            float64
}

func (e *SetSizeError) Error() string {
	return fmt.Sprintf("face: failed to set char size %v x %v at %gx%g dpi", e.CharWidth, e.CharHeight, e.XDPI, e.YDPI)
}
