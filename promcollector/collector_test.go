package promcollector

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segreduce"
	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/op"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := New(reg)

	c.RecordSizing(3, 1024, time.Millisecond, nil)
	c.RecordSizing(3, 0, time.Millisecond, errors.New("bad"))
	c.RecordDispatch(3, 600, 2, time.Millisecond, nil)
	c.RecordLaunch("small", 2, 1)
	c.RecordLaunch("large", 1, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("sizing", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("sizing", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("execution", "success")))
	assert.Equal(t, 600.0, testutil.ToFloat64(c.elements))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.segments.WithLabelValues("small")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.launches.WithLabelValues("large")))

	expected := `
# HELP segreduce_elements_total Input elements of successful dispatches
# TYPE segreduce_elements_total counter
segreduce_elements_total 600
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "segreduce_elements_total"))
}

func TestCollector_WithReducer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	r, err := segreduce.New[int](
		segreduce.WithBackend(device.NewSequential(0)),
		segreduce.WithMetricsCollector(c),
		segreduce.WithSizeThresholds(1, 2),
	)
	require.NoError(t, err)

	out, err := r.Reduce(t.Context(), []int{1, 2, 3, 4, 5, 6}, 3, segreduce.ContiguousOffsets([]int64{0, 1, 3, 6}), op.Sum[int]{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 15}, out)

	for _, class := range []string{"small", "medium", "large"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(c.segments.WithLabelValues(class)), class)
	}
	assert.Equal(t, 6.0, testutil.ToFloat64(c.elements))

	n, err := testutil.GatherAndCount(reg, "segreduce_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCollector_NilRegisterer(t *testing.T) {
	c := New(nil)
	assert.NotPanics(t, func() { c.RecordLaunch("small", 1, 1) })
}
