// Package stream implements the TCP and Unix-domain stream server of spec
// §4.7: a listener goroutine accepts connections and spawns a
// per-connection goroutine that owns one read buffer and one write buffer,
// scans for newlines, and drives parser -> dispatcher -> response writer.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/dispatch"
	"github.com/pixelflut/flut/internal/help"
	compliantparser "github.com/pixelflut/flut/internal/parser/compliant"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/respwriter"
)

// MaxLineLen bounds a line without a newline, per spec §4.7/§8: a slow or
// hostile client can't grow the read buffer without limit.
const MaxLineLen = 32

const (
	readBufSize  = 8 * 1024
	writeBufSize = 2 * 1024
)

// Counters are the throughput counters the stream server bumps; shared
// with the other transports so obslog reports one aggregate rate.
type Counters struct {
	Ops   *atomic.Uint64
	Bytes *atomic.Uint64
}

// Conn is one accepted connection's state: exactly the read and write
// buffers spec §4.7 calls for, reused across the whole connection
// lifetime. Parsing still allocates per line (a string copy of the line
// and the compliant parser's token slice).
type Conn struct {
	c        net.Conn
	log      zerolog.Logger
	pm       *pixmap.Pixmap
	catalog  help.Catalog
	counters Counters

	readBuf  []byte
	pending  []byte // unconsumed bytes carried from a short read
	writeBuf []byte
}

// NewConn wraps an accepted net.Conn for the request/response loop.
func NewConn(c net.Conn, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) *Conn {
	return &Conn{
		c:        c,
		log:      log.With().Str("conn_id", uuid.NewString()).Str("remote", c.RemoteAddr().String()).Logger(),
		pm:       pm,
		catalog:  catalog,
		counters: counters,
		readBuf:  make([]byte, readBufSize),
		writeBuf: make([]byte, 0, writeBufSize),
	}
}

// Serve runs the read -> parse -> dispatch -> write loop until EOF, a read
// error, a write error, or ctx cancellation. A line-too-long violation does
// not end it: the buffer is dropped and the loop continues, per spec §4.7
// step 3 and §7's LineTooLong policy.
func (conn *Conn) Serve(ctx context.Context) {
	defer conn.c.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.c.Close()
		case <-done:
		}
	}()

	for {
		n, err := conn.c.Read(conn.readBuf)
		if n > 0 {
			conn.counters.Bytes.Add(uint64(n))
			conn.handleChunk(conn.readBuf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				conn.log.Debug().Err(err).Msg("read error, closing connection")
			}
			return
		}
	}
}

// handleChunk scans newly read bytes for complete lines, combining them
// with any partial line carried over from the previous read, and flushes
// the accumulated responses once per Read call (spec §4.7 step 4).
func (conn *Conn) handleChunk(chunk []byte) {
	conn.pending = append(conn.pending, chunk...)
	conn.writeBuf = conn.writeBuf[:0]

	for {
		nl := bytes.IndexByte(conn.pending, '\n')
		if nl < 0 {
			break
		}
		line := conn.pending[:nl]
		conn.pending = conn.pending[nl+1:]
		conn.writeBuf = conn.handleLine(line, conn.writeBuf)
	}

	if len(conn.pending) > MaxLineLen {
		conn.pending = conn.pending[:0]
		conn.writeBuf = respwriter.WriteError(conn.writeBuf, "line too long")
	}

	if len(conn.writeBuf) > 0 {
		if _, err := conn.c.Write(conn.writeBuf); err != nil {
			conn.log.Debug().Err(err).Msg("write error, closing connection")
			conn.c.Close()
		}
	}
}

// handleLine parses, dispatches, and serializes a single line, appending
// any resulting wire bytes to buf and returning the extended slice.
func (conn *Conn) handleLine(line []byte, buf []byte) []byte {
	req, err := compliantparser.Parse(string(line))
	if err != nil {
		return respwriter.WriteError(buf, "unknown command")
	}

	resp, err := dispatch.Dispatch(req, conn.pm)
	conn.counters.Ops.Add(1)
	if err != nil {
		var userErr dispatch.UserError
		if errors.As(err, &userErr) {
			return respwriter.WriteError(buf, userErr.Error())
		}
		return respwriter.WriteError(buf, "internal error")
	}
	if resp == nil {
		return buf
	}
	return respwriter.Write(buf, *resp, conn.catalog)
}
