package obslog_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/pixelflut/flut/internal/obslog"
)

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log := obslog.New("not-a-real-level")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	log := obslog.New("debug")
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestThroughputLoggerStopsOnContextCancel(t *testing.T) {
	counters := obslog.Counters{Ops: atomic.NewUint64(0), Bytes: atomic.NewUint64(0)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		obslog.ThroughputLogger(ctx, zerolog.Nop(), counters, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ThroughputLogger did not stop after context cancellation")
	}
}
