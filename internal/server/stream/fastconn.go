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

	"github.com/pixelflut/flut/internal/parser/fast"
	"github.com/pixelflut/flut/internal/pixmap"
)

// FastConn is the write-only fast-path variant spec §4.7 allows: it hands
// complete lines straight to the byte-trick parser, bypassing per-line
// response writing entirely. It never replies to GET/SIZE/HELP — those
// still need the full Conn loop — but it carries the dominant `PX x y
// color\n` stream at its full line rate. On a CPU with AVX2, it routes
// through the two-pass SIMD-staged pipeline (fast.StagedState) instead of
// the plain byte-at-a-time state machine, per spec §4.4's wide variant.
type FastConn struct {
	c        net.Conn
	log      zerolog.Logger
	pm       *pixmap.Pixmap
	counters Counters

	readBuf []byte
	pending []byte

	state  fast.State
	staged fast.StagedState
}

// NewFastConn wraps an accepted net.Conn for fire-and-forget pixel
// ingestion only.
func NewFastConn(c net.Conn, pm *pixmap.Pixmap, counters Counters, log zerolog.Logger) *FastConn {
	return &FastConn{
		c:        c,
		log:      log.With().Str("conn_id", uuid.NewString()).Str("remote", c.RemoteAddr().String()).Logger(),
		pm:       pm,
		counters: counters,
		readBuf:  make([]byte, readBufSize),
	}
}

// Serve reads until EOF or error, feeding every complete line through the
// staged SIMD pipeline when the CPU supports it (fast.WideAvailable) and
// through the plain shift-register parser otherwise. A read that ends
// mid-line keeps the trailing partial bytes in pending for the next read,
// since fast.StagedState (unlike fast.State) requires its input to end on
// a line boundary.
func (fc *FastConn) Serve(ctx context.Context) {
	defer fc.c.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			fc.c.Close()
		case <-done:
		}
	}()

	for {
		n, err := fc.c.Read(fc.readBuf)
		if n > 0 {
			fc.counters.Bytes.Add(uint64(n))
			fc.consume(fc.readBuf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fc.log.Debug().Err(err).Msg("read error, closing connection")
			}
			return
		}
	}
}

// consume appends chunk to any carried-over partial line and, if the
// CPU supports the staged pipeline, hands everything up to the last
// newline to fast.StagedState while keeping the remainder pending;
// otherwise it lets fast.State itself carry partial lines across calls.
func (fc *FastConn) consume(chunk []byte) {
	if !fast.WideAvailable {
		fc.state.Consume(chunk, fc.pm)
		return
	}

	fc.pending = append(fc.pending, chunk...)
	lastNL := bytes.LastIndexByte(fc.pending, '\n')
	if lastNL < 0 {
		return
	}
	fc.staged.Consume(fc.pending[:lastNL+1], fc.pm)
	fc.pending = append(fc.pending[:0], fc.pending[lastNL+1:]...)
}
