package glow

import "github.com/glowterm/glow/sprite"

// SinkFunc uploads one sprite to the GPU atlas. buf holds
// cell_width × cell_height bytes of grayscale intensity and is only
// valid for the duration of the call.
type SinkFunc func(x, y, z uint32, buf []byte)

// SetSink installs a caller-provided GPU sink. Passing nil restores
// the native sink given at construction.
func (rc *RenderContext) SetSink(sink SinkFunc) {
	if sink == nil {
		rc.sink = rc.nativeSink
		return
	}
	rc.sink = sink
}

// sendSprite hands a sprite buffer to the active sink. Without any
// sink installed the upload is dropped; sprite allocation still
// proceeded, so this is logged once rather than treated as an error.
func (rc *RenderContext) sendSprite(pos sprite.Position, buf []byte) {
	if rc.sink == nil {
		if !rc.sinkWarned {
			rc.sinkWarned = true
			logger().Warn("glow: no GPU sink installed, dropping sprite uploads")
		}
		return
	}
	rc.sink(pos.X, pos.Y, pos.Z, buf)
}
