package fast

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/pixelflut/flut/internal/pixmap"
)

// WideAvailable reports whether this CPU supports the widened two-pass
// staging pipeline (spec §4.4's "SIMD staged variant"). It's checked once
// at package init via klauspost/cpuid/v2 rather than per call.
var WideAvailable = cpuid.CPU.Supports(cpuid.AVX2)

const pxMagic = uint64('P')<<8 | uint64('X')

// StagedState is the reusable scratch area for the two-pass align-then-parse
// pipeline: an "align" pass rewrites each newline-terminated line into a
// canonical 32-byte layout (four 8-byte fields: command, x, y, color), and
// a second branch-free pass applies the bit-tricks per line. The aligned
// buffer is transient and reused across calls. Each record is 4 uint64
// words (32 bytes); the buffer is sized at 4 words per input byte plus one
// record, an upper bound that holds even when lines carry more than four
// tokens.
type StagedState struct {
	aligned []uint64
}

// Consume runs buf through the staged pipeline when the CPU supports it,
// falling back to the generic byte-at-a-time State otherwise. It has no
// cross-call carry: unlike State, it requires buf to end on a line
// boundary (the stream server only calls it on data already split at '\n',
// see internal/server/stream).
func (s *StagedState) Consume(buf []byte, pm *pixmap.Pixmap) {
	if !WideAvailable {
		var fallback State
		fallback.Consume(buf, pm)
		return
	}
	need := (len(buf) + 1) * 4
	if cap(s.aligned) < need {
		s.aligned = make([]uint64, need)
	}
	aligned := s.aligned[:need]
	for i := range aligned {
		aligned[i] = 0
	}
	n := alignLines(buf, aligned)
	parseAligned(aligned[:n], pm)
}

// alignLines rewrites each newline-terminated line in input into a 32-byte
// (4 x uint64) record in output: field 0 is the command word (right-
// justified, e.g. "PX"), fields 1-3 are the whitespace-delimited arguments,
// each right-justified and zero-padded exactly like State's shift
// registers. It returns the number of uint64 words written.
func alignLines(input []byte, output []uint64) int {
	out := 0
	var cur uint64
	for _, c := range input {
		if out >= len(output) {
			break
		}
		prev := cur
		cur = cur<<8 | uint64(c)
		if c == ' ' || c == '\t' {
			output[out] = prev
			out++
			cur = 0
		} else if c == '\n' {
			output[out] = prev
			out++
			out = (out + 3) &^ 3
			cur = 0
		}
	}
	return out
}

// parseAligned interprets a buffer of 32-byte records produced by
// alignLines as SetPixel commands and applies them to pm, skipping any
// record whose command field isn't "PX" or whose color field is empty. The
// coordinate and color fields are not validated: bytes that are not
// decimal or hex digits decode to arbitrary values.
func parseAligned(aligned []uint64, pm *pixmap.Pixmap) {
	width, height := pm.Size()
	for i := 0; i+3 < len(aligned); i += 4 {
		command := aligned[i]
		if command != pxMagic || aligned[i+3] == 0 {
			continue
		}
		x := parseDecTrick(aligned[i+1])
		y := parseDecTrick(aligned[i+2])
		col := parseHexTrick(aligned[i+3])
		if x < uint64(width) && y < uint64(height) {
			idx := int(y)*width + int(x)
			pm.SetIndex(idx, col)
		}
	}
}
