package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segreduce"
	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/op"
	"github.com/hupe1980/segreduce/policy"
	"github.com/hupe1980/segreduce/tuning"
)

// errMismatch is returned when the dispatch disagrees with the reference fold.
var errMismatch = errors.New("result mismatch")

type runFlags struct {
	segments int
	maxLen   int64
	opName   string
	seed     uint64
	verbose  bool
}

func newRunCmd(loadConfig func() (*tuning.Config, error)) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reduce generated segments and verify against a sequential fold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			if f.verbose {
				opts = append(opts, segreduce.WithLogger(segreduce.NewLogger(
					slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))))
			}

			metrics := &segreduce.BasicMetricsCollector{}
			opts = append(opts, segreduce.WithMetricsCollector(metrics))

			rng := rand.New(rand.NewPCG(f.seed, f.seed^0x9e3779b97f4a7c15))
			offsets := generateOffsets(rng, f.segments, f.maxLen)

			w := cmd.OutOrStdout()
			switch f.opName {
			case "sum":
				err = runInts(cmd.Context(), w, rng, offsets, op.Sum[int64]{}, 0, opts)
			case "min":
				err = runInts(cmd.Context(), w, rng, offsets, op.Min[int64]{}, op.Highest[int64](), opts)
			case "max":
				err = runInts(cmd.Context(), w, rng, offsets, op.Max[int64]{}, op.Lowest[int64](), opts)
			case "concat":
				in := make([]string, offsets[len(offsets)-1])
				for i := range in {
					in[i] = strconv.Itoa(rng.IntN(10))
				}
				err = run(cmd.Context(), w, in, offsets, op.Sum[string]{}, "", opts)
			default:
				return fmt.Errorf("unknown operator %q (sum, min, max, concat)", f.opName)
			}
			if err != nil {
				return err
			}

			stats := metrics.GetStats()
			fmt.Fprintf(w, "launches:  %d\n", stats.LaunchCount)
			return nil
		},
	}

	cmd.Flags().IntVar(&f.segments, "segments", 1000, "number of segments")
	cmd.Flags().Int64Var(&f.maxLen, "max-len", 4096, "maximum segment length")
	cmd.Flags().StringVar(&f.opName, "op", "sum", "operator: sum, min, max or concat")
	cmd.Flags().Uint64Var(&f.seed, "seed", 42, "random seed")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log dispatch states to stderr")
	return cmd
}

// generateOffsets returns contiguous offsets of n segments with lengths in
// [0, maxLen].
func generateOffsets(rng *rand.Rand, n int, maxLen int64) []int64 {
	off := make([]int64, n+1)
	for i := range n {
		var l int64
		if maxLen > 0 {
			l = rng.Int64N(maxLen + 1)
		}
		off[i+1] = off[i] + l
	}
	return off
}

func runInts(ctx context.Context, w io.Writer, rng *rand.Rand, offsets []int64, o op.Operator[int64], init int64, opts []segreduce.Option) error {
	in := make([]int64, offsets[len(offsets)-1])
	for i := range in {
		in[i] = rng.Int64N(1<<20) - 1<<19
	}
	return run(ctx, w, in, offsets, o, init, opts)
}

func run[T any](ctx context.Context, w io.Writer, in []T, offsets []int64, o op.Operator[T], init T, opts []segreduce.Option) error {
	r, err := segreduce.New[T](opts...)
	if err != nil {
		return err
	}

	numSegments := len(offsets) - 1
	shape := segreduce.ContiguousOffsets(offsets)

	plan, err := r.Plan(len(in), numSegments, shape)
	if err != nil {
		return err
	}

	var n int
	if err := r.Dispatch(ctx, nil, &n, in, nil, numSegments, shape, o, init, nil); err != nil {
		return err
	}

	s := device.NewStream()
	defer s.Close() //nolint:errcheck // errors are returned by Synchronize

	buf := make([]byte, n)
	out := make([]T, numSegments)

	start := time.Now()
	if err := r.Dispatch(ctx, buf, &n, in, out, numSegments, shape, o, init, s); err != nil {
		return err
	}
	if err := s.Synchronize(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i := range numSegments {
		want := init
		for _, v := range in[offsets[i]:offsets[i+1]] {
			want = o.Combine(want, v)
		}
		if !reflect.DeepEqual(want, out[i]) {
			return fmt.Errorf("%w: segment %d: got %v, want %v", errMismatch, i, out[i], want)
		}
	}

	traits := op.Describe(o)
	fmt.Fprintf(w, "arch:      %s\n", plan.Arch)
	fmt.Fprintf(w, "operator:  %s (commutative=%t)\n", traits.Name, traits.Commutative)
	fmt.Fprintf(w, "segments:  %d (empty %d)\n", numSegments, plan.EmptySegments)
	fmt.Fprintf(w, "elements:  %d (%s offsets)\n", len(in), plan.Width)
	fmt.Fprintf(w, "storage:   %d bytes\n", n)
	for _, c := range policy.Classes {
		cp := plan.Classes[c]
		fmt.Fprintf(w, "%-9s  %d segments, %d elements, %d groups x %d lanes\n",
			c.String()+":", cp.Segments, cp.Elements, cp.Groups, cp.GroupWidth)
	}
	fmt.Fprintf(w, "elapsed:   %s\n", elapsed)
	fmt.Fprintln(w, "verified:  ok")
	return nil
}
