package glow

import (
	"errors"
	"fmt"
)

// Sentinel errors for the glow package.
var (
	// ErrNoCellWidth is returned when the medium face yields a zero
	// cell width at the requested size.
	ErrNoCellWidth = errors.New("glow: failed to calculate cell width for the specified font")

	// ErrNoMediumFont is returned by SetFont when no medium face is given.
	ErrNoMediumFont = errors.New("glow: a medium font face is required")
)

// CellHeightError reports a cell height outside the supported range
// after the line-height adjustments were applied.
type CellHeightError struct {
	Height int
}

func (e *CellHeightError) Error() string {
	if e.Height < minCellHeight {
		return fmt.Sprintf("glow: line height %d too small after adjustment", e.Height)
	}
	return fmt.Sprintf("glow: line height %d too large after adjustment", e.Height)
}
