package stream_test

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/server/stream"
)

func TestServeAcceptsAndHandlesConnections(t *testing.T) {
	pm, err := pixmap.New(4, 4)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- stream.Serve(ctx, ln, pm, help.Default, newCounters(), zerolog.Nop()) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("SIZE\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "SIZE 4 4\n", line)

	cancel()
	require.NoError(t, <-errc)
}
