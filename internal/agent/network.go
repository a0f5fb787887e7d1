package agent

import (
	"github.com/hupe1980/segreduce/internal/pool"
	"github.com/hupe1980/segreduce/op"
	"github.com/hupe1980/segreduce/policy"
)

// merge combines lane src into lane dst. dst holds the lower indexed elements
// unless the caller knows the operator is commutative.
func merge[T any](l *pool.Lanes[T], o op.Operator[T], dst, src int) {
	if !l.Has(src) {
		return
	}
	if !l.Has(dst) {
		l.Set(dst, l.Partials[src])
		return
	}
	l.Partials[dst] = o.Combine(l.Partials[dst], l.Partials[src])
}

// tree merges adjacent partials pairwise, doubling the stride each step.
// Lane 0 ends up with the aggregate of lanes [0, width) in lane order.
func tree[T any](l *pool.Lanes[T], o op.Operator[T], width int) {
	for stride := 1; stride < width; stride <<= 1 {
		for i := 0; i+stride < width; i += stride << 1 {
			merge(l, o, i, i+stride)
		}
	}
}

// butterfly exchanges partials between lanes i and i^mask. The lower lane's
// value is always the left operand, so the network preserves lane order.
// Every lane ends up with the aggregate; width must be a power of two.
func butterfly[T any](l *pool.Lanes[T], o op.Operator[T], width int) {
	for mask := 1; mask < width; mask <<= 1 {
		for i := range width {
			j := i | mask
			if i&mask != 0 || j >= width {
				continue
			}
			merge(l, o, i, j)
			if l.Has(i) {
				l.Set(j, l.Partials[i])
			}
		}
	}
}

// shuffleDown folds the upper half of the lanes onto the lower half. Lane i
// is paired with lane i+offset, which is only valid for commutative
// operators.
func shuffleDown[T any](l *pool.Lanes[T], o op.Operator[T], width int) {
	for offset := width >> 1; offset > 0; offset >>= 1 {
		for i := range offset {
			merge(l, o, i, i+offset)
		}
	}
}

// reduceLanes runs the network n over the first width lanes and reports the
// aggregate in lane 0.
func reduceLanes[T any](l *pool.Lanes[T], o op.Operator[T], n policy.Network, width int, commutative bool) (T, bool) {
	switch n {
	case policy.NetworkShuffle:
		if commutative {
			shuffleDown(l, o, width)
		} else {
			butterfly(l, o, width)
		}
	case policy.NetworkTree:
		tree(l, o, width)
	}
	return l.Partials[0], l.Has(0)
}
