// Package glsink is the native GPU sink: it keeps the sprite atlas in
// an R8 OpenGL 2D texture array and streams sprites into it. It is
// split from the root package so headless embedders (and tests) never
// link against OpenGL.
//
// The caller owns the GL context and must have it current on the
// render thread for every call.
package glsink

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Sink uploads sprites into a GL_TEXTURE_2D_ARRAY atlas texture.
type Sink struct {
	tex        uint32
	width      int32
	height     int32
	depth      int32
	cellWidth  int32
	cellHeight int32
}

// New creates a sink with no texture allocated yet; EnsureLayout
// allocates it once the atlas envelope is known.
func New() *Sink {
	return &Sink{}
}

// Texture returns the GL texture name, 0 before the first EnsureLayout.
func (s *Sink) Texture() uint32 { return s.tex }

// EnsureLayout (re)allocates the atlas texture for the given envelope
// as reported by the tracker: xnum × ynum cells of cellWidth ×
// cellHeight pixels on zEnvelope+1 layers. Existing contents are
// discarded, so callers pair this with a sprite-cache clear, which
// the metrics cascade already performs.
func (s *Sink) EnsureLayout(xnum, ynum, zEnvelope uint32, cellWidth, cellHeight int) {
	width := int32(xnum) * int32(cellWidth)
	height := int32(ynum) * int32(cellHeight)
	depth := int32(zEnvelope) + 1
	if s.tex != 0 && width == s.width && height == s.height && depth == s.depth {
		return
	}
	if s.tex != 0 {
		gl.DeleteTextures(1, &s.tex)
		s.tex = 0
	}
	gl.GenTextures(1, &s.tex)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, s.tex)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.R8, width, height, depth, 0, gl.RED, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	s.width, s.height, s.depth = width, height, depth
	s.cellWidth, s.cellHeight = int32(cellWidth), int32(cellHeight)
}

// Send uploads one cell-sized sprite at atlas position (x, y, z).
// It is the SinkFunc the render context calls.
func (s *Sink) Send(x, y, z uint32, buf []byte) {
	if s.tex == 0 || len(buf) == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, s.tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage3D(
		gl.TEXTURE_2D_ARRAY, 0,
		int32(x)*s.cellWidth, int32(y)*s.cellHeight, int32(z),
		s.cellWidth, s.cellHeight, 1,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(buf),
	)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

// Delete releases the atlas texture.
func (s *Sink) Delete() {
	if s.tex != 0 {
		gl.DeleteTextures(1, &s.tex)
		s.tex = 0
	}
}
