package agent

import (
	"github.com/hupe1980/segreduce/internal/pool"
	"github.com/hupe1980/segreduce/op"
	"github.com/hupe1980/segreduce/policy"
)

// sequential is the single-lane fold of the Small agent.
type sequential[T any] struct {
	o    op.Operator[T]
	init T
}

func (s sequential[T]) reduce(seg []T) T {
	acc := s.init
	for _, v := range seg {
		acc = s.o.Combine(acc, v)
	}
	return acc
}

// grouped reduces one segment with a group of policy.GroupWidth lanes.
type grouped[T any] struct {
	o           op.Operator[T]
	init        T
	commutative bool
	policy      policy.Policy
	lanes       *pool.Pool[T]
}

func (r *grouped[T]) reduce(seg []T) T {
	if len(seg) == 0 {
		return r.init
	}
	l := r.lanes.Get()
	defer r.lanes.Put(l)

	if r.commutative {
		return r.relaxed(l, seg)
	}
	return r.ordered(l, seg)
}

// ordered walks the segment tile by tile. Lane i of a tile owns the i-th
// ItemsPerLane chunk, so lane order is element order.
func (r *grouped[T]) ordered(l *pool.Lanes[T], seg []T) T {
	width := r.policy.GroupWidth
	items := r.policy.ItemsPerLane
	tile := width * items

	acc := r.init
	for base := 0; base < len(seg); base += tile {
		end := min(base+tile, len(seg))

		l.Valid.ClearAll()
		for lane := range width {
			lo := base + lane*items
			if lo >= end {
				break
			}
			hi := min(lo+items, end)
			l.Set(lane, fold(r.o, seg[lo], seg[lo+1:hi]))
		}

		if agg, ok := reduceLanes(l, r.o, r.policy.Network, width, false); ok {
			acc = r.o.Combine(acc, agg)
		}
	}
	return acc
}

// relaxed strides vector loads across the whole segment: lane i reads
// vectors i, i+width, i+2*width, ...
func (r *grouped[T]) relaxed(l *pool.Lanes[T], seg []T) T {
	width := r.policy.GroupWidth
	vec := r.policy.VectorWidth
	stride := width * vec

	for lane := range width {
		for lo := lane * vec; lo < len(seg); lo += stride {
			hi := min(lo+vec, len(seg))
			v := fold(r.o, seg[lo], seg[lo+1:hi])
			if l.Has(lane) {
				l.Partials[lane] = r.o.Combine(l.Partials[lane], v)
			} else {
				l.Set(lane, v)
			}
		}
	}

	agg, ok := reduceLanes(l, r.o, r.policy.Network, width, true)
	if !ok {
		return r.init
	}
	return r.o.Combine(r.init, agg)
}

func fold[T any](o op.Operator[T], first T, rest []T) T {
	acc := first
	for _, v := range rest {
		acc = o.Combine(acc, v)
	}
	return acc
}
