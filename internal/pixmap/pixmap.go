// Package pixmap implements the shared, lock-free canvas: a fixed-size
// grid of pixels that many goroutines read and write concurrently without
// any cross-cell consistency guarantee. The write-heavy, fire-and-forget
// nature of the pixelflut workload makes a single lock a non-starter; cells
// are independent atomics instead.
package pixmap

import (
	"fmt"

	"go.uber.org/atomic"
)

// ErrInvalidSize is returned by New when either dimension is zero.
type ErrInvalidSize struct {
	Width, Height int
}

func (e ErrInvalidSize) Error() string {
	return fmt.Sprintf("invalid pixmap size %dx%d", e.Width, e.Height)
}

// ErrInvalidCoordinates is returned by Get/Set when (x, y) falls outside
// the pixmap's dimensions.
type ErrInvalidCoordinates struct {
	X, Y, Width, Height int
}

func (e ErrInvalidCoordinates) Error() string {
	return fmt.Sprintf("coordinates (%d, %d) outside %dx%d canvas", e.X, e.Y, e.Width, e.Height)
}

// Pixmap is a width x height grid of atomically readable/writable cells.
// Its dimensions never change after New returns. A Pixmap is safe for
// concurrent use by any number of goroutines; individual Get/Set calls are
// wait-free, but there is no ordering between concurrent writes to the
// same cell and no consistency between adjacent cells.
type Pixmap struct {
	width, height int
	cells         []atomic.Uint32
}

// New allocates a width x height pixmap, all cells initialized to black
// (0x000000). Both dimensions must be positive.
func New(width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize{Width: width, Height: height}
	}
	return &Pixmap{
		width:  width,
		height: height,
		cells:  make([]atomic.Uint32, width*height),
	}, nil
}

// Size returns the pixmap's fixed dimensions.
func (p *Pixmap) Size() (width, height int) {
	return p.width, p.height
}

// index computes the row-major cell index for (x, y), reporting whether it
// is in bounds. Negative x/y are rejected explicitly so that a negative
// coordinate (impossible from the wire protocol, but not from an internal
// caller) can't alias a valid cell.
func (p *Pixmap) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, false
	}
	return y*p.width + x, true
}

// Get reads the color at (x, y). The read is a plain atomic load: it can
// race arbitrarily with concurrent Set calls but never observes a torn
// 32-bit word.
func (p *Pixmap) Get(x, y int) (uint32, error) {
	idx, ok := p.index(x, y)
	if !ok {
		return 0, ErrInvalidCoordinates{X: x, Y: y, Width: p.width, Height: p.height}
	}
	return p.cells[idx].Load(), nil
}

// Set writes the color at (x, y). Two concurrent Set calls to the same
// cell never interleave into a blended value — one write wins outright.
func (p *Pixmap) Set(x, y int, color uint32) error {
	idx, ok := p.index(x, y)
	if !ok {
		return ErrInvalidCoordinates{X: x, Y: y, Width: p.width, Height: p.height}
	}
	p.cells[idx].Store(color)
	return nil
}

// SetIndex writes directly by row-major cell index, skipping the bounds
// check. Used by the fast parser's hot path, which has already computed
// and range-checked the index itself to avoid doing it twice.
func (p *Pixmap) SetIndex(idx int, color uint32) {
	p.cells[idx].Store(color)
}

// InBounds reports whether (x, y) addresses a real cell, letting a caller
// precompute an index once (e.g. the fast parser) without provoking a
// second bounds check inside Set.
func (p *Pixmap) InBounds(x, y int) bool {
	_, ok := p.index(x, y)
	return ok
}

// Index is InBounds plus the row-major index, for callers that need both.
func (p *Pixmap) Index(x, y int) (int, bool) {
	return p.index(x, y)
}

// RawCells returns the backing cell slice directly: the zero-cost escape
// hatch for sinks (snapshot encoder, future rendering/streaming sinks) that
// need to copy the whole canvas in one pass. Callers must not assume any
// consistency between adjacent cells — this is the same relaxed contract
// Get/Set already make, just exposed in bulk.
func (p *Pixmap) RawCells() []atomic.Uint32 {
	return p.cells
}
