// Package fast implements the byte-trick streaming parser of spec §4.4: it
// never tokenizes, never allocates, and is byte-exact only for the
// dominant `PX X Y CCCCCC\n` command. A line is applied only when its
// command token is `PX` and it carries a color token; anything else is
// silently dropped. The coordinate and color tokens are not validated:
// bytes that are not decimal or hex digits decode to arbitrary values. The
// compliant parser in internal/parser/compliant remains the source of
// truth for correctness and error reporting.
package fast

import (
	"math/bits"

	"github.com/pixelflut/flut/internal/color"
	"github.com/pixelflut/flut/internal/pixmap"
)

// State holds the four 64-bit shift registers that make this parser
// streamable across buffer boundaries: a caller can feed it any number of
// byte slices in sequence and it behaves as if they were concatenated.
type State struct {
	h0, h1, h2, h3 uint64
}

// Consume feeds buf through the parser, applying every complete `PX x y
// color\n` line it finds directly to pm. Partial lines at the end of buf
// are retained in the registers and completed by a later Consume call.
func (s *State) Consume(buf []byte, pm *pixmap.Pixmap) {
	h0, h1, h2, h3 := s.h0, s.h1, s.h2, s.h3
	width, height := pm.Size()

	for _, c := range buf {
		prev := h0
		h0 = h0<<8 | uint64(c)

		switch c {
		case ' ', '\t':
			h3, h2, h1 = h2, h1, prev
			h0 = 0
		case '\n':
			x := parseDecTrick(h2)
			y := parseDecTrick(h1)
			col := parseHexTrick(prev)
			if h3 == pxMagic && x < uint64(width) && y < uint64(height) {
				idx := int(y)*width + int(x)
				pm.SetIndex(idx, col)
			}
			h0, h1, h2, h3 = 0, 0, 0, 0
		}
	}

	s.h0, s.h1, s.h2, s.h3 = h0, h1, h2, h3
}

// parseDecTrick decodes up to 8 right-justified, zero-padded ASCII decimal
// digits held in a shift register (most recent byte in the low-order
// byte) into an unsigned integer, per spec §4.4. The register is
// byte-reversed first (equivalent to the source algorithm's `from_be`)
// to line the digits up for the position-dependent SWAR reduction.
func parseDecTrick(reg uint64) uint64 {
	word := bits.ReverseBytes64(reg)

	lo := (word & 0x0f000f000f000f00) >> 8
	hi := (word & 0x000f000f000f000f) * 10
	word = lo + hi

	lo = (word & 0x00ff000000ff0000) >> 16
	hi = (word & 0x000000ff000000ff) * 100
	word = lo + hi

	lo = (word & 0x0000ffff00000000) >> 32
	hi = (word & 0x000000000000ffff) * 10000
	word = lo + hi

	return word
}

// parseHexTrick decodes the six right-justified hex digits in a shift
// register into a packed 24-bit color, reusing color.DecodeWord's
// branchless bit-trick after the same byte reversal parseDecTrick needs.
func parseHexTrick(reg uint64) uint32 {
	return color.DecodeWord(bits.ReverseBytes64(reg))
}
