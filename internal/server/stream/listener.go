package stream

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"github.com/pixelflut/flut/internal/help"
	"github.com/pixelflut/flut/internal/pixmap"
)

// Serve accepts connections on ln until ctx is canceled or Accept fails,
// spawning one goroutine per connection. This is the "per-listener task"
// of spec §4.7/§5: it never blocks on anything but Accept itself.
func Serve(ctx context.Context, ln net.Listener, pm *pixmap.Pixmap, catalog help.Catalog, counters Counters, log zerolog.Logger) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Debug().Err(err).Msg("accept failed")
			return err
		}
		conn := NewConn(c, pm, catalog, counters, log)
		go conn.Serve(ctx)
	}
}

// ServeFast is Serve's fast-path counterpart: every accepted connection
// runs the write-only bit-trick parser instead of the full request loop.
func ServeFast(ctx context.Context, ln net.Listener, pm *pixmap.Pixmap, counters Counters, log zerolog.Logger) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Debug().Err(err).Msg("accept failed")
			return err
		}
		conn := NewFastConn(c, pm, counters, log)
		go conn.Serve(ctx)
	}
}
