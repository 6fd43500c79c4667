// Package snapshot implements the binary canvas dump format of spec §6: a
// fixed 10-byte magic, 16 bytes of big-endian width and height, a 256-byte
// zero-filled reserved region, and raw row-major RGB pixel data. It is the one concrete
// piece of the "persistence sink" collaborator spec.md otherwise treats as
// external — the file format is specified, so it's implemented; deciding
// when to snapshot (a CLI flag, a timer) is not.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pixelflut/flut/internal/pixmap"
)

const (
	magicLen      = 10
	headerPayload = 16  // two big-endian uint64s: width, height
	reservedLen   = 256 // offsets 26..281, zero-filled
	headerLen     = magicLen + headerPayload + reservedLen
)

var magic = [magicLen]byte{'P', 'I', 'X', 'E', 'L', 'F', 'L', 'U', 'T', 0x01}

// ErrBadMagic is returned by Read when the file doesn't start with the
// pixelflut snapshot magic.
var ErrBadMagic = fmt.Errorf("snapshot: bad magic")

// ErrDimensionMismatch is returned by Read when the declared width/height
// don't match the amount of pixel data actually present.
type ErrDimensionMismatch struct {
	Width, Height int
	GotBytes      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("snapshot: declared %dx%d needs %d pixel bytes, file has %d",
		e.Width, e.Height, e.Width*e.Height*3, e.GotBytes)
}

// Write encodes pm's full current state to w in the spec §6 layout. Reads
// of individual cells race arbitrarily with concurrent Set calls — a
// snapshot is a best-effort, possibly-torn point-in-time copy, consistent
// with the pixmap's own relaxed contract.
func Write(w io.Writer, pm *pixmap.Pixmap) error {
	width, height := pm.Size()

	header := make([]byte, headerLen)
	copy(header, magic[:])
	binary.BigEndian.PutUint64(header[magicLen:], uint64(width))
	binary.BigEndian.PutUint64(header[magicLen+8:], uint64(height))
	if _, err := w.Write(header); err != nil {
		return err
	}

	cells := pm.RawCells()
	row := make([]byte, width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			word := cells[y*width+x].Load()
			row[x*3] = byte(word >> 16)
			row[x*3+1] = byte(word >> 8)
			row[x*3+2] = byte(word)
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a snapshot from r into a freshly allocated Pixmap,
// validating the magic and that the declared dimensions match the amount
// of pixel data present.
func Read(r io.Reader) (*pixmap.Pixmap, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if string(header[:magicLen]) != string(magic[:]) {
		return nil, ErrBadMagic
	}
	width := int(binary.BigEndian.Uint64(header[magicLen:]))
	height := int(binary.BigEndian.Uint64(header[magicLen+8:]))

	pm, err := pixmap.New(width, height)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(body) != width*height*3 {
		return nil, ErrDimensionMismatch{Width: width, Height: height, GotBytes: len(body)}
	}

	cells := pm.RawCells()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			word := uint32(body[off])<<16 | uint32(body[off+1])<<8 | uint32(body[off+2])
			cells[y*width+x].Store(word)
		}
	}
	return pm, nil
}
