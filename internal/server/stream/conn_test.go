package stream_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/server/stream"
)

func newCounters() stream.Counters {
	return stream.Counters{Ops: atomic.NewUint64(0), Bytes: atomic.NewUint64(0)}
}

func TestConnServesSizeAndPixelRequests(t *testing.T) {
	pm, err := pixmap.New(8, 8)
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()

	conn := stream.NewConn(server, pm, help.Default, newCounters(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Serve(ctx)

	reader := bufio.NewReader(client)

	_, err = client.Write([]byte("SIZE\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "SIZE 8 8\n", line)

	_, err = client.Write([]byte("PX 1 1 FF00AA\n"))
	require.NoError(t, err)

	_, err = client.Write([]byte("PX 1 1\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "PX 1 1 #FF00AA\n", line)
}

func TestConnRecoversFromLineTooLong(t *testing.T) {
	pm, err := pixmap.New(8, 8)
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()

	conn := stream.NewConn(server, pm, help.Default, newCounters(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Serve(ctx)

	reader := bufio.NewReader(client)

	overlong := make([]byte, stream.MaxLineLen+1)
	for i := range overlong {
		overlong[i] = 'A'
	}
	_, err = client.Write(overlong)
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "line too long\n", line)

	_, err = client.Write([]byte("SIZE\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "SIZE 8 8\n", line)
}

func TestConnClosesOnContextCancel(t *testing.T) {
	pm, err := pixmap.New(4, 4)
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()

	conn := stream.NewConn(server, pm, help.Default, newCounters(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go conn.Serve(ctx)

	cancel()

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err = client.Read(buf)
	require.Error(t, err)
}
