// Package obslog wires structured logging: zerolog console output when
// attached to a terminal, JSON otherwise, plus a periodic throughput
// logger rendered with dustin/go-humanize so the server's "highest
// throughput the hardware allows" claim is actually observable.
package obslog

import (
	"context"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// New builds the root logger for the process, switching to a pretty
// console writer when stderr is a terminal (the same mattn/go-isatty +
// go-colorable pattern zerolog's own console writer pulls in).
func New(levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = os.Stderr
	var writer zerolog.ConsoleWriter
	if isatty.IsTerminal(out.Fd()) {
		writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = out })
		return zerolog.New(writer).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Counters are the plain atomic counters the transport servers bump: Ops
// once per request they dispatch, Bytes for every byte they receive.
// They're the only thing the hot path touches for observability,
// everything else lives in the periodic logger goroutine.
type Counters struct {
	Ops   *atomic.Uint64
	Bytes *atomic.Uint64
}

// ThroughputLogger logs ops/sec and bytes/sec at a fixed interval until
// ctx is canceled, rendering the byte rate with humanize.Bytes so an
// operator reads "482 MB/s" instead of a raw integer.
func ThroughputLogger(ctx context.Context, log zerolog.Logger, counters Counters, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastOps, lastBytes uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ops := counters.Ops.Load()
			bytes := counters.Bytes.Load()
			opsPerSec := float64(ops-lastOps) / interval.Seconds()
			bytesPerSec := float64(bytes-lastBytes) / interval.Seconds()
			log.Info().
				Float64("ops_per_sec", opsPerSec).
				Str("throughput", humanize.Bytes(uint64(bytesPerSec))+"/s").
				Msg("ingestion throughput")
			lastOps, lastBytes = ops, bytes
		}
	}
}
