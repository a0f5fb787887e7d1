//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("valid max uint32", func(t *testing.T) {
		got, err := IntToUint32(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := IntToUint32(math.MaxUint32 + 1)
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestInt64ToUint32(t *testing.T) {
	got, err := Int64ToUint32(math.MaxUint32)
	assert.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Int64ToUint32(math.MaxUint32 + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Int64ToUint32(-5)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestInt64ToInt(t *testing.T) {
	got, err := Int64ToInt(math.MaxInt64)
	assert.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)
}

func TestMulInt64(t *testing.T) {
	got, err := MulInt64(1<<31, 1<<31)
	assert.NoError(t, err)
	assert.Equal(t, int64(1<<62), got)

	got, err = MulInt64(0, math.MaxInt64)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = MulInt64(1<<32, 1<<32)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulInt64(-1, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAddInt64(t *testing.T) {
	got, err := AddInt64(math.MaxInt64-1, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, err = AddInt64(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
