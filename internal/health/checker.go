package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const pingTimeout = 2 * time.Second

// Checker caches the health of one component by pinging it periodically.
type Checker struct {
	name    string
	pinger  HealthPinger
	healthy atomic.Bool
	log     zerolog.Logger
}

// NewChecker returns a Checker for pinger. It reports unhealthy until the first check.
func NewChecker(name string, pinger HealthPinger, log zerolog.Logger) *Checker {
	return &Checker{name: name, pinger: pinger, log: log}
}

// Name returns the component name.
func (c *Checker) Name() string { return c.name }

// IsHealthy returns the cached result of the last check.
func (c *Checker) IsHealthy() bool { return c.healthy.Load() }

// Check pings the component once and updates the cached state.
func (c *Checker) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := c.pinger.HealthPing(pctx)
	ok := err == nil
	if prev := c.healthy.Swap(ok); prev != ok {
		if ok {
			c.log.Info().Str("component", c.name).Msg("health: UP")
		} else {
			c.log.Error().Err(err).Str("component", c.name).Msg("health: DOWN")
		}
	}
	return ok
}

// Start checks immediately and then every interval until ctx is done.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
