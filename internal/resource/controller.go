package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrLaunchSlotsExhausted is returned when no launch slot is free.
var ErrLaunchSlotsExhausted = errors.New("launch slots exhausted")

// DefaultMaxInFlightLaunches is used when Config.MaxInFlightLaunches is 0.
const DefaultMaxInFlightLaunches = 1024

// Config holds resource limits.
type Config struct {
	// MaxInFlightLaunches bounds launches that are enqueued but unfinished.
	// If 0, DefaultMaxInFlightLaunches is used.
	MaxInFlightLaunches int64

	// BandwidthBytesPerSec throttles the bytes launches may read.
	// If 0, unlimited.
	BandwidthBytesPerSec int64
}

// Controller manages launch resources.
type Controller struct {
	cfg Config

	launchSem *semaphore.Weighted
	inFlight  atomic.Int64

	bandwidth *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxInFlightLaunches <= 0 {
		cfg.MaxInFlightLaunches = DefaultMaxInFlightLaunches
	}

	c := &Controller{
		cfg:       cfg,
		launchSem: semaphore.NewWeighted(cfg.MaxInFlightLaunches),
	}

	if cfg.BandwidthBytesPerSec > 0 {
		c.bandwidth = rate.NewLimiter(rate.Limit(cfg.BandwidthBytesPerSec), int(cfg.BandwidthBytesPerSec))
	}

	return c
}

// TryAcquireLaunch reserves a launch slot without blocking.
func (c *Controller) TryAcquireLaunch() bool {
	if c == nil {
		return true
	}
	if !c.launchSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseLaunch frees a launch slot.
func (c *Controller) ReleaseLaunch() {
	if c == nil {
		return
	}
	c.inFlight.Add(-1)
	c.launchSem.Release(1)
}

// InFlight returns the number of reserved launch slots.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// MaxInFlight returns the configured launch slot count.
func (c *Controller) MaxInFlight() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxInFlightLaunches
}

// AcquireBandwidth waits until the limiter allows bytes to be read.
// Requests larger than the burst are split.
func (c *Controller) AcquireBandwidth(ctx context.Context, bytes int64) error {
	if c == nil || c.bandwidth == nil || bytes <= 0 {
		return nil
	}
	burst := int64(c.bandwidth.Burst())
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.bandwidth.WaitN(ctx, int(n)); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
