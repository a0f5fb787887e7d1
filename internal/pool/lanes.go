// Package pool provides reusable lane partial buffers for worker groups.
// Uses sync.Pool for memory reuse and bitsets for tracking which lanes hold
// a partial.
package pool

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Lanes is the per-group scratch of a reduction network: one partial per
// lane plus a flag telling whether the lane loaded anything.
type Lanes[T any] struct {
	Partials []T
	Valid    *bitset.BitSet
}

// Set stores v as the partial of lane i.
func (l *Lanes[T]) Set(i int, v T) {
	l.Partials[i] = v
	l.Valid.Set(uint(i)) //nolint:gosec // i >= 0
}

// Has reports whether lane i holds a partial.
func (l *Lanes[T]) Has(i int) bool {
	return l.Valid.Test(uint(i)) //nolint:gosec // i >= 0
}

// Width returns the number of lanes.
func (l *Lanes[T]) Width() int { return len(l.Partials) }

// Reset clears every partial.
func (l *Lanes[T]) Reset() {
	var zero T
	for i := range l.Partials {
		l.Partials[i] = zero
	}
	l.Valid.ClearAll()
}

// Pool hands out Lanes of a fixed width.
type Pool[T any] struct {
	width int
	p     sync.Pool
}

// New creates a pool of width-lane buffers.
func New[T any](width int) *Pool[T] {
	pl := &Pool[T]{width: width}
	pl.p.New = func() any {
		return &Lanes[T]{
			Partials: make([]T, width),
			Valid:    bitset.New(uint(width)), //nolint:gosec // width > 0
		}
	}
	return pl
}

// Width returns the lane count of buffers handed out by the pool.
func (p *Pool[T]) Width() int { return p.width }

// Get retrieves a cleared buffer.
func (p *Pool[T]) Get() *Lanes[T] {
	l := p.p.Get().(*Lanes[T])
	l.Valid.ClearAll()
	return l
}

// Put returns l to the pool. Partials are zeroed so pooled buffers do not
// keep accumulator values alive.
func (p *Pool[T]) Put(l *Lanes[T]) {
	l.Reset()
	p.p.Put(l)
}
