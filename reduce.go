package segreduce

import (
	"context"

	"github.com/hupe1980/segreduce/op"
)

// Reduce builds a Reducer from opts and runs Reducer.Reduce.
func Reduce[T any](ctx context.Context, in []T, numSegments int, shape Shape, o op.Operator[T], init T, opts ...Option) ([]T, error) {
	r, err := New[T](opts...)
	if err != nil {
		return nil, err
	}
	return r.Reduce(ctx, in, numSegments, shape, o, init)
}

// Sum returns the sum of every segment. Strings are concatenated in order.
func Sum[T op.Addable](ctx context.Context, in []T, numSegments int, shape Shape, opts ...Option) ([]T, error) {
	var zero T
	return Reduce[T](ctx, in, numSegments, shape, op.Sum[T]{}, zero, opts...)
}

// Min returns the minimum of every segment. Empty segments yield the
// largest value of T.
func Min[T op.Number](ctx context.Context, in []T, numSegments int, shape Shape, opts ...Option) ([]T, error) {
	return Reduce[T](ctx, in, numSegments, shape, op.Min[T]{}, op.Highest[T](), opts...)
}

// Max returns the maximum of every segment. Empty segments yield the
// lowest value of T.
func Max[T op.Number](ctx context.Context, in []T, numSegments int, shape Shape, opts ...Option) ([]T, error) {
	return Reduce[T](ctx, in, numSegments, shape, op.Max[T]{}, op.Lowest[T](), opts...)
}
