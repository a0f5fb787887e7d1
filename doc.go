// Package segreduce reduces every segment of a large array to one value in
// parallel.
//
// A Reducer resolves architecture-specific tuning policies once, classifies
// segments by length at dispatch time and runs each size class with the
// reduction agent matched to its granularity on a pluggable execution
// backend.
//
// # Quick Start
//
//	ctx := context.Background()
//	sums, _ := segreduce.Sum(ctx, []int{1, 2, 3, 4, 5, 6}, 2,
//	    segreduce.Offsets([]int64{0, 3}, []int64{3, 6}))
//	// sums == [6 15]
//
// # Two-Phase Dispatch
//
// The engine never allocates scratch memory. Dispatch is called twice: first
// with a nil buffer to learn the size, then with a buffer the caller owns:
//
//	r, _ := segreduce.New[float32]()
//	s := device.NewStream()
//	defer s.Close()
//
//	var n int
//	_ = r.Dispatch(ctx, nil, &n, in, nil, segs, shape, op.Sum[float32]{}, 0, nil)
//	buf := make([]byte, n)
//	_ = r.Dispatch(ctx, buf, &n, in, out, segs, shape, op.Sum[float32]{}, 0, s)
//	err := s.Synchronize() // device-side failures surface here
//
// Both calls must use the same shape.
//
// # Ordering
//
// Operators that are not known to be commutative are combined strictly left
// to right within every segment, whatever the parallel decomposition. Built-in
// operators over arithmetic types are commutative and may be reordered;
// floating point results can then differ in the last bits between runs. Use
// op.Func to force the ordered path, or op.Commutative to opt a custom
// operator into the relaxed one.
//
// # Errors
//
// Host-detectable problems are returned synchronously and match
// ErrConfiguration, ErrProblemTooLarge, ErrInsufficientStorage, ErrLaunch or
// ErrOverflow with errors.Is. Nothing is retried.
package segreduce
