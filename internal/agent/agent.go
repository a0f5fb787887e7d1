package agent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/internal/pool"
	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/internal/sizeclass"
	"github.com/hupe1980/segreduce/internal/storage"
	"github.com/hupe1980/segreduce/op"
	"github.com/hupe1980/segreduce/policy"
)

// ErrInvalidParams is returned when kernel parameters are incomplete.
var ErrInvalidParams = errors.New("invalid agent parameters")

// Geometry is the launch shape of one size class.
type Geometry struct {
	Groups     int
	GroupWidth int
	// SegmentsPerGroup is the number of segments one group reduces.
	SegmentsPerGroup int
}

// Plan returns the geometry for count segments of class c.
//
// Medium groups are as wide as Large groups and split into
// Large.GroupWidth/Medium.GroupWidth sub-groups. Small groups run one lane
// per segment.
func Plan(s policy.Set, c policy.Class, count int) Geometry {
	var g Geometry
	switch c {
	case policy.Large:
		g = Geometry{GroupWidth: s.Large.GroupWidth, SegmentsPerGroup: 1}
	case policy.Medium:
		sub := max(1, s.Large.GroupWidth/s.Medium.GroupWidth)
		g = Geometry{GroupWidth: sub * s.Medium.GroupWidth, SegmentsPerGroup: sub}
	default:
		g = Geometry{GroupWidth: s.Large.GroupWidth, SegmentsPerGroup: s.Large.GroupWidth}
	}
	g.Groups = (count + g.SegmentsPerGroup - 1) / g.SegmentsPerGroup
	return g
}

// Params configures the kernel of one size class.
type Params[T any] struct {
	In  []T
	Out []T

	Op          op.Operator[T]
	Init        T
	Commutative bool

	Class  policy.Class
	Policy policy.Policy
	// SegmentsPerGroup must match the Geometry the launch was planned with.
	SegmentsPerGroup int

	Scratch *storage.Scratch
}

func (p *Params[T]) validate() error {
	switch {
	case p.Op == nil:
		return fmt.Errorf("%w: nil operator", ErrInvalidParams)
	case p.Scratch == nil:
		return fmt.Errorf("%w: nil scratch", ErrInvalidParams)
	case p.SegmentsPerGroup <= 0:
		return fmt.Errorf("%w: %d segments per group", ErrInvalidParams, p.SegmentsPerGroup)
	}
	return p.Policy.Validate(p.Class)
}

// Kernel builds the per-group body reducing the segments of p.Class.
func Kernel[T any](p Params[T]) (device.Kernel, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	reduce := sequential[T]{o: p.Op, init: p.Init}.reduce
	if p.Class != policy.Small {
		r := &grouped[T]{
			o:           p.Op,
			init:        p.Init,
			commutative: p.Commutative,
			policy:      p.Policy,
			lanes:       pool.New[T](p.Policy.GroupWidth),
		}
		reduce = r.reduce
	}

	bucket := storage.ClassBucket(p.Class)
	return func(g device.Group) error {
		if err := p.Scratch.CheckHeader(); err != nil {
			return err
		}
		start, count := p.Scratch.Bucket(bucket)

		first := g.ID * p.SegmentsPerGroup
		last := min(first+p.SegmentsPerGroup, count)
		for slot := first; slot < last; slot++ {
			id, d := p.Scratch.Get(start + slot)
			if d.End() > int64(len(p.In)) || int(id) >= len(p.Out) {
				return fmt.Errorf("segment %d [%d, %d) out of bounds", id, d.Begin, d.End())
			}
			p.Out[id] = reduce(p.In[d.Begin:d.End()])
		}
		return nil
	}, nil
}

// PrepareParams configures the prepare kernel.
type PrepareParams[T any] struct {
	Source  segment.Source
	Buckets *sizeclass.Buckets
	Scratch *storage.Scratch
	Out     []T
	Init    T
}

// Prepare builds a single-group kernel that writes the descriptor table and
// the outputs of zero-length segments. It must run before the class kernels.
func Prepare[T any](p PrepareParams[T]) (device.Kernel, error) {
	if p.Source == nil || p.Buckets == nil || p.Scratch == nil {
		return nil, fmt.Errorf("%w: incomplete prepare parameters", ErrInvalidParams)
	}
	return func(device.Group) error {
		p.Scratch.Materialize(p.Source, p.Buckets)

		start, count := p.Scratch.Bucket(storage.EmptyBucket)
		for i := range count {
			id, _ := p.Scratch.Get(start + i)
			p.Out[id] = p.Init
		}
		return nil
	}, nil
}
