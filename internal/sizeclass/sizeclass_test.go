package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/policy"
)

func TestClassify_Boundaries(t *testing.T) {
	th := Thresholds{Small: 16, Medium: 512}
	require.NoError(t, th.Validate())

	tests := []struct {
		n    int64
		want policy.Class
	}{
		{1, policy.Small},
		{15, policy.Small},
		{16, policy.Small},
		{17, policy.Medium},
		{511, policy.Medium},
		{512, policy.Medium},
		{513, policy.Large},
		{1 << 40, policy.Large},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.n), "length %d", tt.n)
	}
}

func TestThresholds_Validate(t *testing.T) {
	assert.ErrorIs(t, Thresholds{Small: 8, Medium: 8}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{Small: -1, Medium: 8}.Validate(), ErrInvalidThresholds)
	assert.NoError(t, Thresholds{Small: 0, Medium: 1}.Validate())
}

func TestFromPolicies(t *testing.T) {
	s := policy.Default().Resolve(policy.ArchSIMD256)
	th := FromPolicies(s)
	assert.Equal(t, s.Small.TileSize(), th.Small)
	assert.Equal(t, s.Medium.TileSize(), th.Medium)
	require.NoError(t, th.Validate())
}

func TestPartition(t *testing.T) {
	th := Thresholds{Small: 2, Medium: 4}
	// lengths: 0, 1, 2, 3, 4, 5, 0, 9
	offsets := []int64{0, 0, 1, 3, 6, 10, 15, 15, 24}
	src := segment.Contiguous{Offsets: offsets}
	require.NoError(t, src.Validate(24))

	b := Partition(src, th)
	assert.Equal(t, []uint32{0, 6}, b.Empty.ToArray())
	assert.Equal(t, []uint32{1, 2}, b.ByClass[policy.Small].ToArray())
	assert.Equal(t, []uint32{3, 4}, b.ByClass[policy.Medium].ToArray())
	assert.Equal(t, []uint32{5, 7}, b.ByClass[policy.Large].ToArray())
	assert.Equal(t, 2, b.EmptyCount())
	assert.Equal(t, 2, b.Count(policy.Large))
	assert.Equal(t, [policy.NumClasses]int64{3, 7, 14}, b.Elements)
}

func TestPartition_ManySegments(t *testing.T) {
	th := Thresholds{Small: 1, Medium: 2}
	src := segment.Fixed{Count: 5000, Size: 3}
	b := Partition(src, th)
	assert.Equal(t, 5000, b.Count(policy.Large))
	assert.Equal(t, 0, b.Count(policy.Small))
	assert.Equal(t, int64(15000), b.Elements[policy.Large])
}
