package device

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segreduce/policy"
)

var (
	// ErrInvalidLaunch is returned for launches a backend cannot execute.
	ErrInvalidLaunch = errors.New("invalid launch")
	// ErrResourceExhausted is returned when a backend or stream has no
	// capacity left for another launch.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrStreamClosed is returned when submitting to a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Group identifies one worker group of a launch.
type Group struct {
	// ID is the position of the group in the grid.
	ID int
	// Width is the number of lanes in the group.
	Width int
}

// Kernel is the per-group body of a launch.
type Kernel func(g Group) error

// Launch describes one grid of worker groups.
type Launch struct {
	Name       string
	Groups     int
	GroupWidth int
	// Bytes estimates the input bytes the launch reads.
	Bytes  int64
	Kernel Kernel
}

// Validate checks the launch configuration.
func (l Launch) Validate() error {
	switch {
	case l.Kernel == nil:
		return fmt.Errorf("%w: %s: nil kernel", ErrInvalidLaunch, l.Name)
	case l.Groups <= 0:
		return fmt.Errorf("%w: %s: grid of %d groups", ErrInvalidLaunch, l.Name, l.Groups)
	case l.GroupWidth <= 0:
		return fmt.Errorf("%w: %s: group width %d", ErrInvalidLaunch, l.Name, l.GroupWidth)
	case l.Bytes < 0:
		return fmt.Errorf("%w: %s: negative byte estimate", ErrInvalidLaunch, l.Name)
	}
	return nil
}

// Backend executes launches.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Arch is the architecture generation used to resolve policies.
	Arch() policy.Arch
	// Launch validates l and enqueues it on s. It does not wait for the
	// launch to execute.
	Launch(s *Stream, l Launch) error
}

// KernelError is a failure raised while a launch executed.
type KernelError struct {
	Launch string
	// Group is the failing group, or -1 if the failure was not group specific.
	Group int
	Err   error
}

func (e *KernelError) Error() string {
	if e.Group < 0 {
		return fmt.Sprintf("launch %s: %v", e.Launch, e.Err)
	}
	return fmt.Sprintf("launch %s: group %d: %v", e.Launch, e.Group, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

// runGroup executes one group and converts a panic into an error.
func runGroup(l Launch, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &KernelError{Launch: l.Name, Group: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if kerr := l.Kernel(Group{ID: id, Width: l.GroupWidth}); kerr != nil {
		return &KernelError{Launch: l.Name, Group: id, Err: kerr}
	}
	return nil
}
