// Package websocket implements the WebSocket server of spec §4.9: perform
// the opening handshake, then treat every Text or Binary message as one or
// more '\n'-delimited command lines, dispatching each and replying with
// its own Text frame.
package websocket

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/dispatch"
	"github.com/pixelflut/flut/internal/help"
	compliantparser "github.com/pixelflut/flut/internal/parser/compliant"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/respwriter"
)

// Counters mirrors stream.Counters.
type Counters struct {
	Ops   *atomic.Uint64
	Bytes *atomic.Uint64
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8 * 1024,
	WriteBufferSize: 2 * 1024,
	// Pixelflut has no same-origin concern: any page anywhere is meant
	// to be able to paint the shared canvas.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns an http.Handler that upgrades every request to a
// WebSocket connection and serves the line protocol over it. Mount it at
// whatever path main wires up for the WebSocket listener.
func Handler(pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket handshake failed")
			return
		}
		connLog := log.With().Str("conn_id", uuid.NewString()).Str("remote", r.RemoteAddr).Logger()
		serve(r.Context(), conn, pm, catalog, counters, connLog)
	})
}

// serve runs the per-connection frame loop until Close, a protocol
// violation, or the request context is canceled. State machine per spec
// §4.9: Connecting -> Open -> Closing -> Closed, with no reconnection
// attempted at this layer.
func serve(ctx context.Context, conn *websocket.Conn, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			counters.Bytes.Add(uint64(len(payload)))
			if !handleLines(conn, payload, pm, catalog, counters, log) {
				return
			}
		case websocket.CloseMessage:
			return
		default:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "unsupported frame type"),
				time.Now().Add(time.Second))
			return
		}
	}
}

// handleLines splits payload on '\n', dispatches each line, and sends each
// resulting Response as its own Text frame. It returns false if a write
// fails, signaling the caller to tear the connection down.
func handleLines(conn *websocket.Conn, payload []byte, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) bool {
	for len(payload) > 0 {
		nl := bytes.IndexByte(payload, '\n')
		var line []byte
		if nl < 0 {
			line = payload
			payload = nil
		} else {
			line = payload[:nl]
			payload = payload[nl+1:]
		}
		if len(line) == 0 {
			continue
		}

		var out []byte
		req, err := compliantparser.Parse(string(line))
		if err != nil {
			out = respwriter.WriteError(out, "unknown command")
		} else {
			resp, err := dispatch.Dispatch(req, pm)
			counters.Ops.Add(1)
			if err != nil {
				var userErr dispatch.UserError
				if errors.As(err, &userErr) {
					out = respwriter.WriteError(out, userErr.Error())
				} else {
					continue
				}
			} else if resp != nil {
				out = respwriter.Write(out, *resp, catalog)
			} else {
				continue
			}
		}

		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return false
		}
	}
	return true
}
