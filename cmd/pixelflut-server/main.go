// Command pixelflut-server runs a pixelflut canvas over TCP, UDP, and
// WebSocket simultaneously, plus a Unix domain socket when a socket path is
// configured, each on its own listener goroutine sharing one pixmap.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/config"
	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/obslog"
	"github.com/pixelflut/flut/internal/parser/fast"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/server/datagram"
	"github.com/pixelflut/flut/internal/server/stream"
	"github.com/pixelflut/flut/internal/server/websocket"
)

func main() {
	cfg, err := config.Parse(pflag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log := obslog.New(cfg.LogLevel)

	pm, err := pixmap.New(cfg.Width, cfg.Height)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid canvas size")
	}

	ops := atomic.NewUint64(0)
	bytesIn := atomic.NewUint64(0)
	streamCounters := stream.Counters{Ops: ops, Bytes: bytesIn}
	dgramCounters := datagram.Counters{Ops: ops, Bytes: bytesIn}
	wsCounters := websocket.Counters{Ops: ops, Bytes: bytesIn}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go obslog.ThroughputLogger(ctx, log, obslog.Counters{Ops: ops, Bytes: bytesIn}, 5*time.Second)

	if cfg.Fast {
		log.Info().Bool("simd_staged", fast.WideAvailable).Msg("fast mode: routing TCP/Unix through the byte-trick SetPixel-only parser")
	}

	tcpLn, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.TCPAddr).Msg("tcp listen failed")
	}
	log.Info().Str("addr", cfg.TCPAddr).Msg("tcp listening")
	go func() {
		var err error
		if cfg.Fast {
			err = stream.ServeFast(ctx, tcpLn, pm, streamCounters, log)
		} else {
			err = stream.Serve(ctx, tcpLn, pm, help.Default, streamCounters, log)
		}
		if err != nil {
			log.Error().Err(err).Msg("tcp server exited")
		}
	}()

	if cfg.UnixPath != "" {
		_ = os.Remove(cfg.UnixPath)
		unixLn, err := net.Listen("unix", cfg.UnixPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.UnixPath).Msg("unix listen failed")
		}
		log.Info().Str("path", cfg.UnixPath).Msg("unix listening")
		go func() {
			var err error
			if cfg.Fast {
				err = stream.ServeFast(ctx, unixLn, pm, streamCounters, log)
			} else {
				err = stream.Serve(ctx, unixLn, pm, help.Default, streamCounters, log)
			}
			if err != nil {
				log.Error().Err(err).Msg("unix server exited")
			}
		}()
	}

	udpConn, err := net.ListenPacket("udp", cfg.UDPAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.UDPAddr).Msg("udp listen failed")
	}
	log.Info().Str("addr", cfg.UDPAddr).Msg("udp listening")
	go func() {
		if err := datagram.Serve(ctx, udpConn, pm, help.Default, dgramCounters, log); err != nil {
			log.Error().Err(err).Msg("udp server exited")
		}
	}()

	if cfg.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/", websocket.Handler(pm, help.Default, wsCounters, log))
		wsSrv := &http.Server{Addr: cfg.WSAddr, Handler: mux}
		go func() {
			log.Info().Str("addr", cfg.WSAddr).Msg("websocket listening")
			if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("websocket server exited")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = wsSrv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
}
