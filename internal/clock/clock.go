// Package clock provides real and virtual implementations of ports.Clock.
package clock

import (
	"time"

	"github.com/bft-labs/copycat/internal/ports"
)

// RealClock delegates to the standard time package.
type RealClock struct{}

// NewRealClock creates a wall-clock implementation.
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// NewTicker wraps time.NewTicker.
func (c *RealClock) NewTicker(d time.Duration) ports.Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
