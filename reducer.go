package segreduce

import (
	"context"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/internal/agent"
	"github.com/hupe1980/segreduce/internal/conv"
	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/internal/sizeclass"
	"github.com/hupe1980/segreduce/internal/storage"
	"github.com/hupe1980/segreduce/op"
	"github.com/hupe1980/segreduce/policy"
)

// PrepareLaunch is the name of the launch writing the descriptor table.
const PrepareLaunch = "segreduce.prepare"

// ClassLaunch returns the name of the launch reducing class c.
func ClassLaunch(c policy.Class) string { return "segreduce." + c.String() }

// Reducer dispatches segmented reductions of T onto a backend.
//
// Policies and size class thresholds are resolved once by New. A Reducer is
// safe for concurrent use; every dispatch owns its scratch buffer.
type Reducer[T any] struct {
	backend     device.Backend
	arch        policy.Arch
	set         policy.Set
	thresholds  sizeclass.Thresholds
	maxElements int64
	maxWidth    OffsetWidth
	elemBytes   int64

	metrics MetricsCollector
	logger  *Logger
}

// New creates a Reducer.
func New[T any](optFns ...Option) (*Reducer[T], error) {
	o := applyOptions(optFns)

	if !o.maxWidth.Valid() {
		return nil, fmt.Errorf("%w: offset width %s", ErrConfiguration, o.maxWidth)
	}

	set := o.chain.Resolve(o.arch)
	t := sizeclass.FromPolicies(set)
	if o.thresholds != nil {
		t = sizeclass.Thresholds{Small: o.thresholds.Small, Medium: o.thresholds.Medium}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	var zero T
	return &Reducer[T]{
		backend:     o.backend,
		arch:        o.arch,
		set:         set,
		thresholds:  t,
		maxElements: o.maxElements,
		maxWidth:    o.maxWidth,
		elemBytes:   int64(unsafe.Sizeof(zero)),
		metrics:     o.metricsCollector,
		logger:      o.logger.WithArch(o.arch),
	}, nil
}

// Arch returns the generation policies were resolved for.
func (r *Reducer[T]) Arch() policy.Arch { return r.arch }

// Policies returns the resolved policy set.
func (r *Reducer[T]) Policies() policy.Set { return r.set }

// Thresholds returns the size class thresholds.
func (r *Reducer[T]) Thresholds() SizeThresholds {
	return SizeThresholds{Small: r.thresholds.Small, Medium: r.thresholds.Medium}
}

// Backend returns the execution backend.
func (r *Reducer[T]) Backend() device.Backend { return r.backend }

// Dispatch reduces each of numSegments segments of in to one value of out.
//
// With a nil storage the call only sizes: the required scratch byte count is
// written to *storageBytes and nothing else happens. Called again with a
// buffer of at least that many bytes and the identical shape, Dispatch
// classifies the segments, fills the buffer and enqueues the launches on
// stream. It returns without waiting; failures raised while the launches
// execute are reported by stream.Synchronize. In the execution call
// storageBytes may be nil; len(storage) is the provided size.
//
// Non-commutative operators produce the left fold of every segment onto
// init. Zero-length segments produce init.
//
// Using a different shape for the two calls, or reusing storage while an
// earlier dispatch on it is still executing, is undefined behavior.
func (r *Reducer[T]) Dispatch(
	ctx context.Context,
	storage []byte,
	storageBytes *int,
	in, out []T,
	numSegments int,
	shape Shape,
	o op.Operator[T],
	init T,
	stream *device.Stream,
) error {
	c := r.newCall(ctx, numSegments, len(in))

	if storage == nil {
		bytes, err := r.size(c, storageBytes, shape)
		r.metrics.RecordSizing(numSegments, bytes, time.Since(c.start), err)
		return err
	}

	launches, err := r.execute(c, storage, in, out, shape, o, init, stream)
	r.metrics.RecordDispatch(numSegments, int64(len(in)), launches, time.Since(c.start), err)
	return err
}

// Reduce runs both phases on a private stream, waits for the launches and
// returns one value per segment.
func (r *Reducer[T]) Reduce(ctx context.Context, in []T, numSegments int, shape Shape, o op.Operator[T], init T) ([]T, error) {
	var n int
	if err := r.Dispatch(ctx, nil, &n, in, nil, numSegments, shape, o, init, nil); err != nil {
		return nil, err
	}

	s := device.NewStream()
	defer s.Close() //nolint:errcheck // errors are returned by Synchronize

	out := make([]T, numSegments)
	if err := r.Dispatch(ctx, make([]byte, n), &n, in, out, numSegments, shape, o, init, s); err != nil {
		return nil, err
	}
	if err := s.Synchronize(); err != nil {
		return nil, err
	}
	return out, nil
}

// call tracks one Dispatch through the state machine.
type call struct {
	ctx      context.Context
	logger   *Logger
	state    State
	start    time.Time
	segments int
	elements int
}

func (r *Reducer[T]) newCall(ctx context.Context, segments, elements int) *call {
	return &call{
		ctx:      ctx,
		logger:   r.logger.WithDispatchID(uuid.New()).WithCount(segments),
		state:    StateConfiguring,
		start:    time.Now(),
		segments: segments,
		elements: elements,
	}
}

func (c *call) to(s State) {
	c.logger.LogTransition(c.ctx, c.state, s)
	c.state = s
}

// configured is the outcome of the Configuring state.
type configured struct {
	src    segment.Source
	width  OffsetWidth
	layout storage.Layout
}

func (r *Reducer[T]) configure(numElements, numSegments int, shape Shape) (configured, error) {
	if numSegments < 0 {
		return configured{}, &ShapeError{Segment: -1, Reason: fmt.Sprintf("negative segment count %d", numSegments)}
	}
	if _, err := conv.IntToUint32(numSegments); err != nil {
		return configured{}, fmt.Errorf("%w: %d segments exceed %d", ErrProblemTooLarge, numSegments, uint32(math.MaxUint32))
	}
	if r.maxElements > 0 && int64(numElements) > r.maxElements {
		return configured{}, fmt.Errorf("%w: %d elements exceed %d", ErrProblemTooLarge, numElements, r.maxElements)
	}

	width, err := segment.SelectWidth(uint64(numElements), r.maxWidth) //nolint:gosec // len is non-negative
	if err != nil {
		return configured{}, &OverflowError{Total: uint64(numElements), Width: r.maxWidth, cause: err} //nolint:gosec // len is non-negative
	}

	src, err := shape.source(numSegments)
	if err != nil {
		return configured{}, err
	}
	if err := src.Validate(int64(numElements)); err != nil {
		return configured{}, translateError(err, r.maxWidth)
	}

	layout, err := storage.Plan(storage.Shape{NumSegments: numSegments, Width: width})
	if err != nil {
		return configured{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return configured{src: src, width: width, layout: layout}, nil
}

func (r *Reducer[T]) size(c *call, storageBytes *int, shape Shape) (int, error) {
	fail := func(err error) (int, error) {
		c.to(StateFailed)
		c.logger.LogSizing(c.ctx, 0, 0, err)
		return 0, err
	}

	if storageBytes == nil {
		return fail(fmt.Errorf("%w: nil storage size", ErrConfiguration))
	}
	cfg, err := r.configure(c.elements, c.segments, shape)
	if err != nil {
		return fail(err)
	}

	c.to(StateSizing)
	bytes := cfg.layout.Bytes()
	*storageBytes = bytes
	c.to(StateAwaitingStorage)

	c.logger.LogSizing(c.ctx, cfg.width, bytes, nil)
	return bytes, nil
}

func (r *Reducer[T]) execute(
	c *call,
	buf []byte,
	in, out []T,
	shape Shape,
	o op.Operator[T],
	init T,
	stream *device.Stream,
) (int, error) {
	launches := 0
	fail := func(err error) (int, error) {
		c.to(StateFailed)
		c.logger.LogDispatch(c.ctx, int64(c.elements), launches, err)
		return launches, err
	}

	cfg, err := r.configure(c.elements, c.segments, shape)
	if err != nil {
		return fail(err)
	}
	switch {
	case o == nil:
		return fail(fmt.Errorf("%w: nil operator", ErrConfiguration))
	case stream == nil:
		return fail(fmt.Errorf("%w: nil stream", ErrConfiguration))
	case len(out) < c.segments:
		return fail(fmt.Errorf("%w: output holds %d values for %d segments", ErrConfiguration, len(out), c.segments))
	}

	c.to(StateExecuting)

	scratch, err := cfg.layout.Bind(buf)
	if err != nil {
		return fail(translateError(err, r.maxWidth))
	}

	if c.segments == 0 {
		c.to(StateCompleted)
		c.logger.LogDispatch(c.ctx, int64(c.elements), 0, nil)
		return 0, nil
	}

	buckets := sizeclass.Partition(cfg.src, r.thresholds)

	prep, err := agent.Prepare(agent.PrepareParams[T]{
		Source:  cfg.src,
		Buckets: buckets,
		Scratch: scratch,
		Out:     out,
		Init:    init,
	})
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrConfiguration, err))
	}
	if err := r.launch(c, stream, "", device.Launch{
		Name:       PrepareLaunch,
		Groups:     1,
		GroupWidth: 1,
		Bytes:      launchBytes(int64(c.segments), int64(3*cfg.width.Bytes())),
		Kernel:     prep,
	}); err != nil {
		return fail(err)
	}
	launches++

	commutative := op.IsCommutative(o)
	for _, class := range policy.Classes {
		count := buckets.Count(class)
		if count == 0 {
			continue
		}

		geo := agent.Plan(r.set, class, count)
		k, err := agent.Kernel(agent.Params[T]{
			In:               in,
			Out:              out,
			Op:               o,
			Init:             init,
			Commutative:      commutative,
			Class:            class,
			Policy:           r.set.For(class),
			SegmentsPerGroup: geo.SegmentsPerGroup,
			Scratch:          scratch,
		})
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrConfiguration, err))
		}
		if err := r.launch(c, stream, class.String(), device.Launch{
			Name:       ClassLaunch(class),
			Groups:     geo.Groups,
			GroupWidth: geo.GroupWidth,
			Bytes:      launchBytes(buckets.Elements[class], r.elemBytes),
			Kernel:     k,
		}); err != nil {
			return fail(err)
		}
		launches++
		r.metrics.RecordLaunch(class.String(), count, geo.Groups)
	}

	c.to(StateCompleted)
	c.logger.LogDispatch(c.ctx, int64(c.elements), launches, nil)
	return launches, nil
}

func (r *Reducer[T]) launch(c *call, s *device.Stream, class string, l device.Launch) error {
	err := r.backend.Launch(s, l)
	c.logger.LogLaunch(c.ctx, l.Name, l.Groups, l.GroupWidth, err)
	if err != nil {
		return &LaunchError{Launch: l.Name, Class: class, cause: err}
	}
	return nil
}

// launchBytes estimates the bytes a launch reads, saturating on overflow.
func launchBytes(n, size int64) int64 {
	b, err := conv.MulInt64(n, size)
	if err != nil {
		return math.MaxInt64
	}
	return b
}
