// Package respwriter serializes a protocol.Response into a byte sink, one
// line per message, per spec §4.5.
package respwriter

import (
	"strconv"

	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/protocol"
)

// Write appends the wire form of resp to buf, followed by a single '\n',
// and returns the extended slice. It never allocates beyond what
// strconv.AppendUint needs, keeping the hot path allocation-free.
func Write(buf []byte, resp protocol.Response, catalog help.Catalog) []byte {
	switch resp.Kind {
	case protocol.RespHelp:
		buf = append(buf, catalog.Text(resp.Topic)...)
	case protocol.RespSize:
		buf = append(buf, "SIZE "...)
		buf = strconv.AppendInt(buf, int64(resp.Width), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(resp.Height), 10)
	case protocol.RespPxData:
		buf = append(buf, "PX "...)
		buf = strconv.AppendUint(buf, uint64(resp.X), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, uint64(resp.Y), 10)
		buf = append(buf, " #"...)
		buf = append(buf, resp.Color.Encode()...)
	}
	return append(buf, '\n')
}

// WriteError appends a single-line, human-readable error message, carrying
// no dedicated prefix — clients can only distinguish it from a normal
// response by its content, per spec §7.
func WriteError(buf []byte, reason string) []byte {
	buf = append(buf, reason...)
	return append(buf, '\n')
}
