package websocket_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/server/websocket"
)

func newCounters() websocket.Counters {
	return websocket.Counters{Ops: atomic.NewUint64(0), Bytes: atomic.NewUint64(0)}
}

func dialURL(t *testing.T, httpURL string) string {
	t.Helper()
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestHandlerRoundTrip(t *testing.T) {
	pm, err := pixmap.New(8, 8)
	require.NoError(t, err)

	srv := httptest.NewServer(websocket.Handler(pm, help.Default, newCounters(), zerolog.Nop()))
	defer srv.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial(dialURL(t, srv.URL), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("SIZE\n")))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "SIZE 8 8\n", string(msg))

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("PX 2 2 00FF00\nPX 2 2\n")))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "PX 2 2 #00FF00\n", string(msg))
}

func TestHandlerClosesOnCloseFrame(t *testing.T) {
	pm, err := pixmap.New(4, 4)
	require.NoError(t, err)

	srv := httptest.NewServer(websocket.Handler(pm, help.Default, newCounters(), zerolog.Nop()))
	defer srv.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial(dialURL(t, srv.URL), nil)
	require.NoError(t, err)
	defer conn.Close()

	closeMsg := gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, "")
	require.NoError(t, conn.WriteMessage(gorillaws.CloseMessage, closeMsg))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	_, ok := err.(*gorillaws.CloseError)
	require.True(t, ok, "expected a close error, got %T: %v", err, err)
}
