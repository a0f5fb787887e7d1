// Package sizeclass buckets segments by length so each bucket can be handed
// to the agent matching its parallel granularity.
package sizeclass

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/policy"
)

// ErrInvalidThresholds is returned when thresholds are not 0 <= Small < Medium.
var ErrInvalidThresholds = errors.New("invalid size class thresholds")

// Thresholds separates the size classes. A length equal to a threshold
// belongs to the lower class.
type Thresholds struct {
	Small  int64
	Medium int64
}

// FromPolicies derives thresholds from the tile sizes of a policy set:
// a segment a single Small tile covers is Small, one a single Medium tile
// covers is Medium.
func FromPolicies(s policy.Set) Thresholds {
	return Thresholds{Small: s.Small.TileSize(), Medium: s.Medium.TileSize()}
}

// Validate checks the thresholds.
func (t Thresholds) Validate() error {
	if t.Small < 0 || t.Small >= t.Medium {
		return fmt.Errorf("%w: small=%d medium=%d", ErrInvalidThresholds, t.Small, t.Medium)
	}
	return nil
}

// Classify maps a segment length to its class.
// Zero-length segments never reach an agent; see Partition.
func (t Thresholds) Classify(n int64) policy.Class {
	switch {
	case n <= t.Small:
		return policy.Small
	case n <= t.Medium:
		return policy.Medium
	default:
		return policy.Large
	}
}

// Buckets holds segment ids per class.
type Buckets struct {
	// Empty holds zero-length segments, which bypass the agents.
	Empty   *roaring.Bitmap
	ByClass [policy.NumClasses]*roaring.Bitmap
	// Elements is the number of input elements per class.
	Elements [policy.NumClasses]int64
}

// Count returns the number of segments in class c.
func (b *Buckets) Count(c policy.Class) int {
	return int(b.ByClass[c].GetCardinality())
}

// EmptyCount returns the number of zero-length segments.
func (b *Buckets) EmptyCount() int {
	return int(b.Empty.GetCardinality())
}

// Partition classifies every segment of src. src must have been validated
// and hold at most math.MaxUint32 segments.
func Partition(src segment.Source, t Thresholds) *Buckets {
	b := &Buckets{Empty: roaring.New()}
	for i := range b.ByClass {
		b.ByClass[i] = roaring.New()
	}

	// Ids arrive in ascending order; batching them keeps roaring appends
	// on the fast path.
	const batch = 1024
	var (
		pending [policy.NumClasses][]uint32
		empty   []uint32
	)
	flush := func() {
		for c := range pending {
			if len(pending[c]) > 0 {
				b.ByClass[c].AddMany(pending[c])
				pending[c] = pending[c][:0]
			}
		}
		if len(empty) > 0 {
			b.Empty.AddMany(empty)
			empty = empty[:0]
		}
	}

	n := src.Len()
	for i := range n {
		length := src.At(i).Length
		id := uint32(i) //nolint:gosec // bounded by caller
		if length == 0 {
			empty = append(empty, id)
		} else {
			c := t.Classify(length)
			pending[c] = append(pending[c], id)
			b.Elements[c] += length
		}
		if (i+1)%batch == 0 {
			flush()
		}
	}
	flush()

	for i := range b.ByClass {
		b.ByClass[i].RunOptimize()
	}
	b.Empty.RunOptimize()
	return b
}
