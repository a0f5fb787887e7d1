package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultQueueDepth is the task capacity of a stream.
const DefaultQueueDepth = 1024

var streamIDs atomic.Uint64

// Task is a unit of work executed by a stream.
type Task struct {
	Name string
	// Run executes the task. It is skipped when an earlier task in the
	// same synchronization window failed.
	Run func(ctx context.Context) error
	// Done, if set, is called after Run returns or is skipped.
	Done func()
}

// StreamOption configures a Stream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	queueDepth int
}

// WithQueueDepth sets the number of tasks a stream can hold.
func WithQueueDepth(n int) StreamOption {
	return func(o *streamOptions) {
		o.queueDepth = n
	}
}

// Stream is an ordered execution queue.
type Stream struct {
	id    uint64
	tasks chan Task

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	err     error
	closed  bool
}

// NewStream creates a stream and starts its executor.
func NewStream(optFns ...StreamOption) *Stream {
	opts := streamOptions{queueDepth: DefaultQueueDepth}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.queueDepth <= 0 {
		opts.queueDepth = DefaultQueueDepth
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		id:     streamIDs.Add(1),
		tasks:  make(chan Task, opts.queueDepth),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)

	go s.worker()

	return s
}

// ID returns the process-unique stream id.
func (s *Stream) ID() uint64 { return s.id }

// Submit enqueues t without blocking.
func (s *Stream) Submit(t Task) error {
	if t.Run == nil {
		return fmt.Errorf("%w: %s: nil task", ErrInvalidLaunch, t.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}

	select {
	case s.tasks <- t:
		s.pending++
		return nil
	default:
		return fmt.Errorf("%w: stream %d queue full", ErrResourceExhausted, s.id)
	}
}

func (s *Stream) worker() {
	defer close(s.done)

	for t := range s.tasks {
		s.mu.Lock()
		skip := s.err != nil
		s.mu.Unlock()

		var err error
		if !skip {
			err = s.run(t)
		}
		if t.Done != nil {
			t.Done()
		}

		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}
}

func (s *Stream) run(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &KernelError{Launch: t.Name, Group: -1, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if rerr := t.Run(s.ctx); rerr != nil {
		var kerr *KernelError
		if errors.As(rerr, &kerr) {
			return rerr
		}
		return &KernelError{Launch: t.Name, Group: -1, Err: rerr}
	}
	return nil
}

// Synchronize waits for every submitted task and returns the first error
// raised since the previous Synchronize.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.pending > 0 {
		s.idle.Wait()
	}
	err := s.err
	s.err = nil
	return err
}

// Close drains the stream and stops its executor.
// Errors not yet returned by Synchronize are returned.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	<-s.done
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}
