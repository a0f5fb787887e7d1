package segment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segreduce/internal/conv"
)

func TestFixed(t *testing.T) {
	f := Fixed{Count: 3, Size: 4}
	require.NoError(t, f.Validate(12))
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, Descriptor{Begin: 8, Length: 4}, f.At(2))
	assert.Equal(t, int64(12), f.At(2).End())

	assert.ErrorIs(t, f.Validate(11), ErrInvalidShape)
	assert.ErrorIs(t, Fixed{Count: 1, Size: -1}.Validate(10), ErrInvalidShape)
	assert.ErrorIs(t, Fixed{Count: -1, Size: 1}.Validate(10), ErrInvalidShape)
	assert.ErrorIs(t, Fixed{Count: math.MaxInt32, Size: math.MaxInt64 / 2}.Validate(math.MaxInt64), conv.ErrOverflow)
	require.NoError(t, Fixed{Count: 4, Size: 0}.Validate(0))
}

func TestPairs(t *testing.T) {
	p := Pairs{Begin: []int64{0, 3, 3}, End: []int64{3, 3, 6}}
	require.NoError(t, p.Validate(6))
	assert.Equal(t, Descriptor{Begin: 3, Length: 0}, p.At(1))

	var se *ShapeError
	err := Pairs{Begin: []int64{0}, End: []int64{1, 2}}.Validate(6)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, -1, se.Segment)

	err = Pairs{Begin: []int64{0, 4}, End: []int64{3, 2}}.Validate(6)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Segment)
	assert.Contains(t, err.Error(), "negative length")

	err = Pairs{Begin: []int64{2, 1}, End: []int64{3, 2}}.Validate(6)
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Reason, "below previous")

	err = Pairs{Begin: []int64{0}, End: []int64{7}}.Validate(6)
	assert.ErrorIs(t, err, ErrInvalidShape)

	err = Pairs{Begin: []int64{-1}, End: []int64{1}}.Validate(6)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestContiguous(t *testing.T) {
	c := Contiguous{Offsets: []int64{0, 3, 6}}
	require.NoError(t, c.Validate(6))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, Descriptor{Begin: 3, Length: 3}, c.At(1))

	assert.Equal(t, 0, Contiguous{}.Len())
	assert.Equal(t, 0, Contiguous{Offsets: []int64{5}}.Len())
	assert.ErrorIs(t, Contiguous{Offsets: []int64{0, 4, 2}}.Validate(6), ErrInvalidShape)
}

func TestSelectWidth(t *testing.T) {
	tests := []struct {
		name    string
		total   uint64
		widest  Width
		want    Width
		wantErr bool
	}{
		{"empty", 0, Wide, Narrow, false},
		{"small", 1000, Wide, Narrow, false},
		{"narrow boundary", math.MaxUint32, Wide, Narrow, false},
		{"first wide", math.MaxUint32 + 1, Wide, Wide, false},
		{"narrow only overflows", math.MaxUint32 + 1, Narrow, 0, true},
		{"beyond int64", math.MaxInt64 + 1, Wide, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectWidth(tt.total, tt.widest)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWidthOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 4, Narrow.Bytes())
	assert.Equal(t, "wide", Wide.String())
	assert.False(t, Width(3).Valid())
}
