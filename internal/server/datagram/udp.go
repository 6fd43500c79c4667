// Package datagram implements the UDP server of spec §4.8: one listener
// goroutine receives datagrams and hands each off to a handler goroutine
// that applies every line inside it and replies with at most one
// aggregated datagram.
package datagram

import (
	"bytes"
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/dispatch"
	"github.com/pixelflut/flut/internal/help"
	compliantparser "github.com/pixelflut/flut/internal/parser/compliant"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/respwriter"
)

const maxDatagramSize = 65507 // max UDP payload over IPv4

// Counters mirrors stream.Counters; kept as its own type so this package
// doesn't import the stream package just for a struct shape.
type Counters struct {
	Ops   *atomic.Uint64
	Bytes *atomic.Uint64
}

// Serve receives datagrams on conn until ctx is canceled or a read fails,
// spawning one handler goroutine per datagram. No per-datagram ordering is
// guaranteed against any other datagram, per spec §4.8/§5.
func Serve(ctx context.Context, conn net.PacketConn, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		buf := make([]byte, maxDatagramSize)
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Debug().Err(err).Msg("udp read error")
			return err
		}
		counters.Bytes.Add(uint64(n))
		go handleDatagram(conn, addr, buf[:n], pm, catalog, counters, log)
	}
}

// handleDatagram applies every '\n'-terminated line in the datagram, in
// order, and sends at most one reply datagram back to the sender
// containing every collected response. A datagram of only SetPixel
// commands produces an empty reply buffer and nothing is sent.
func handleDatagram(conn net.PacketConn, addr net.Addr, data []byte, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) {
	var reply []byte

	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		var line []byte
		if nl < 0 {
			line = data
			data = nil
		} else {
			line = data[:nl]
			data = data[nl+1:]
		}
		if len(line) == 0 {
			continue
		}

		req, err := compliantparser.Parse(string(line))
		if err != nil {
			reply = respwriter.WriteError(reply, "unknown command")
			continue
		}
		resp, err := dispatch.Dispatch(req, pm)
		counters.Ops.Add(1)
		if err != nil {
			var userErr dispatch.UserError
			if errors.As(err, &userErr) {
				reply = respwriter.WriteError(reply, userErr.Error())
			}
			continue
		}
		if resp == nil {
			continue
		}
		reply = respwriter.Write(reply, *resp, catalog)
	}

	if len(reply) == 0 {
		return
	}
	if _, err := conn.WriteTo(reply, addr); err != nil {
		log.Debug().Err(err).Str("remote", addr.String()).Msg("udp reply failed")
	}
}
