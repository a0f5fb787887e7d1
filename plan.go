package segreduce

import (
	"github.com/hupe1980/segreduce/internal/agent"
	"github.com/hupe1980/segreduce/internal/sizeclass"
	"github.com/hupe1980/segreduce/policy"
)

// ClassPlan describes the launch of one size class.
type ClassPlan struct {
	Class    policy.Class
	Segments int
	Elements int64
	Policy   policy.Policy

	Groups           int
	GroupWidth       int
	SegmentsPerGroup int
}

// DispatchPlan is what an execution call would do for a shape.
type DispatchPlan struct {
	Arch          policy.Arch
	Width         OffsetWidth
	StorageBytes  int
	Thresholds    SizeThresholds
	EmptySegments int
	Classes       [policy.NumClasses]ClassPlan
}

// Launches returns the number of launches an execution call enqueues.
func (p DispatchPlan) Launches() int {
	n := 0
	for _, c := range p.Classes {
		if c.Segments > 0 {
			n++
		}
	}
	if n > 0 || p.EmptySegments > 0 {
		n++ // prepare
	}
	return n
}

// Plan classifies the segments of shape over numElements input elements
// without launching anything.
func (r *Reducer[T]) Plan(numElements, numSegments int, shape Shape) (DispatchPlan, error) {
	cfg, err := r.configure(numElements, numSegments, shape)
	if err != nil {
		return DispatchPlan{}, err
	}

	b := sizeclass.Partition(cfg.src, r.thresholds)
	p := DispatchPlan{
		Arch:          r.arch,
		Width:         cfg.width,
		StorageBytes:  cfg.layout.Bytes(),
		Thresholds:    r.Thresholds(),
		EmptySegments: b.EmptyCount(),
	}
	for _, c := range policy.Classes {
		count := b.Count(c)
		geo := agent.Plan(r.set, c, count)
		p.Classes[c] = ClassPlan{
			Class:            c,
			Segments:         count,
			Elements:         b.Elements[c],
			Policy:           r.set.For(c),
			Groups:           geo.Groups,
			GroupWidth:       geo.GroupWidth,
			SegmentsPerGroup: geo.SegmentsPerGroup,
		}
	}
	return p, nil
}
