package device

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/segreduce/internal/resource"
	"github.com/hupe1980/segreduce/policy"
)

// CPUConfig configures the CPU backend.
type CPUConfig struct {
	// Workers is the number of goroutines executing groups of one launch.
	// If 0, runtime.GOMAXPROCS(0) is used.
	Workers int

	// MaxInFlightLaunches bounds launches enqueued but not finished across
	// all streams. If 0, resource.DefaultMaxInFlightLaunches is used.
	MaxInFlightLaunches int64

	// BandwidthBytesPerSec throttles launch input reads. If 0, unlimited.
	BandwidthBytesPerSec int64

	// Arch overrides the detected architecture generation. If 0,
	// DetectedArch is used.
	Arch policy.Arch
}

// CPU executes worker groups on goroutines.
type CPU struct {
	workers int
	arch    policy.Arch
	rc      *resource.Controller
}

// NewCPU creates a CPU backend.
func NewCPU(cfg CPUConfig) *CPU {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Arch == 0 {
		cfg.Arch = DetectedArch()
	}
	return &CPU{
		workers: cfg.Workers,
		arch:    cfg.Arch,
		rc: resource.NewController(resource.Config{
			MaxInFlightLaunches:  cfg.MaxInFlightLaunches,
			BandwidthBytesPerSec: cfg.BandwidthBytesPerSec,
		}),
	}
}

// Name implements Backend.
func (c *CPU) Name() string { return "cpu" }

// Arch implements Backend.
func (c *CPU) Arch() policy.Arch { return c.arch }

// Workers returns the group parallelism of one launch.
func (c *CPU) Workers() int { return c.workers }

// InFlight returns the number of launches enqueued but not finished.
func (c *CPU) InFlight() int64 { return c.rc.InFlight() }

// Launch implements Backend.
func (c *CPU) Launch(s *Stream, l Launch) error {
	if s == nil {
		return fmt.Errorf("%w: %s: nil stream", ErrInvalidLaunch, l.Name)
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if !c.rc.TryAcquireLaunch() {
		return fmt.Errorf("%w: %s: %w", ErrResourceExhausted, l.Name, resource.ErrLaunchSlotsExhausted)
	}

	err := s.Submit(Task{
		Name: l.Name,
		Run: func(ctx context.Context) error {
			if err := c.rc.AcquireBandwidth(ctx, l.Bytes); err != nil {
				return err
			}
			return c.execute(l)
		},
		Done: c.rc.ReleaseLaunch,
	})
	if err != nil {
		c.rc.ReleaseLaunch()
		return err
	}
	return nil
}

// execute runs the grid. Workers claim groups from a shared cursor so
// uneven group costs balance out.
func (c *CPU) execute(l Launch) error {
	workers := min(c.workers, l.Groups)

	var (
		next   atomic.Int64
		failed atomic.Bool
		g      errgroup.Group
	)
	for range workers {
		g.Go(func() error {
			for !failed.Load() {
				id := int(next.Add(1) - 1)
				if id >= l.Groups {
					return nil
				}
				if err := runGroup(l, id); err != nil {
					failed.Store(true)
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Sequential executes every group in order on the stream goroutine.
// Results are deterministic, which makes it the reference backend in tests.
type Sequential struct {
	arch policy.Arch
}

// NewSequential creates a Sequential backend reporting arch. If arch is 0,
// DetectedArch is used.
func NewSequential(arch policy.Arch) *Sequential {
	if arch == 0 {
		arch = DetectedArch()
	}
	return &Sequential{arch: arch}
}

// Name implements Backend.
func (b *Sequential) Name() string { return "sequential" }

// Arch implements Backend.
func (b *Sequential) Arch() policy.Arch { return b.arch }

// Launch implements Backend.
func (b *Sequential) Launch(s *Stream, l Launch) error {
	if s == nil {
		return fmt.Errorf("%w: %s: nil stream", ErrInvalidLaunch, l.Name)
	}
	if err := l.Validate(); err != nil {
		return err
	}
	return s.Submit(Task{
		Name: l.Name,
		Run: func(context.Context) error {
			for id := range l.Groups {
				if err := runGroup(l, id); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
