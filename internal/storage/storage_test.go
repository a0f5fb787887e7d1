package storage

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/internal/sizeclass"
	"github.com/hupe1980/segreduce/policy"
)

func mustPlan(t *testing.T, n int, w segment.Width) Layout {
	t.Helper()
	l, err := Plan(Shape{NumSegments: n, Width: w})
	require.NoError(t, err)
	return l
}

func TestPlan_ZeroSegmentsIsMetadataOnly(t *testing.T) {
	for _, w := range []segment.Width{segment.Narrow, segment.Wide} {
		assert.Equal(t, MetadataBytes, mustPlan(t, 0, w).Bytes(), w.String())
	}
}

func TestPlan_DeterministicAndMonotone(t *testing.T) {
	for _, w := range []segment.Width{segment.Narrow, segment.Wide} {
		prev := 0
		for n := range 2000 {
			a := mustPlan(t, n, w)
			b := mustPlan(t, n, w)
			require.Equal(t, a, b)
			require.GreaterOrEqual(t, a.Bytes(), prev, "n=%d", n)
			prev = a.Bytes()
		}
	}

	assert.Greater(t, mustPlan(t, 1000, segment.Wide).Bytes(), mustPlan(t, 1000, segment.Narrow).Bytes())
}

func TestPlan_RejectsBadShape(t *testing.T) {
	_, err := Plan(Shape{NumSegments: -1, Width: segment.Narrow})
	assert.Error(t, err)

	_, err = Plan(Shape{NumSegments: 1, Width: 3})
	assert.Error(t, err)
}

func TestBind_InsufficientStorage(t *testing.T) {
	l := mustPlan(t, 100, segment.Narrow)
	_, err := l.Bind(make([]byte, l.Bytes()-1))
	require.ErrorIs(t, err, ErrInsufficientStorage)

	var serr *InsufficientStorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, l.Bytes(), serr.Required)
	assert.Equal(t, l.Bytes()-1, serr.Provided)

	_, err = l.Bind(nil)
	assert.ErrorIs(t, err, ErrInsufficientStorage)
}

func TestBind_AlignsRegardlessOfBase(t *testing.T) {
	l := mustPlan(t, 37, segment.Wide)
	backing := make([]byte, l.Bytes()+Alignment)

	for _, shift := range []int{0, 1, 7, 63, 255} {
		buf := backing[shift : shift+l.Bytes()]
		s, err := l.Bind(buf)
		require.NoError(t, err)
		assert.Zero(t, uintptr(unsafe.Pointer(&s.meta[0]))%Alignment)
		assert.Zero(t, uintptr(unsafe.Pointer(&s.ids[0]))%Alignment)
		assert.Zero(t, uintptr(unsafe.Pointer(&s.begin64[0]))%Alignment)
		assert.Zero(t, uintptr(unsafe.Pointer(&s.len64[0]))%Alignment)
	}
}

func TestScratch_PutGet(t *testing.T) {
	for _, w := range []segment.Width{segment.Narrow, segment.Wide} {
		t.Run(w.String(), func(t *testing.T) {
			l := mustPlan(t, 3, w)
			s, err := l.Bind(make([]byte, l.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 3, s.Len())
			assert.Equal(t, w, s.Width())

			s.Put(0, 7, segment.Descriptor{Begin: 0, Length: 5})
			s.Put(1, 2, segment.Descriptor{Begin: 5, Length: 0})
			s.Put(2, 9, segment.Descriptor{Begin: 1 << 31, Length: 1 << 30})

			id, d := s.Get(2)
			assert.Equal(t, uint32(9), id)
			assert.Equal(t, segment.Descriptor{Begin: 1 << 31, Length: 1 << 30}, d)

			id, d = s.Get(1)
			assert.Equal(t, uint32(2), id)
			assert.Equal(t, int64(0), d.Length)
		})
	}
}

func TestScratch_Header(t *testing.T) {
	l := mustPlan(t, 4, segment.Narrow)
	buf := make([]byte, l.Bytes())
	s, err := l.Bind(buf)
	require.NoError(t, err)
	assert.Error(t, s.CheckHeader())

	s.WriteHeader()
	require.NoError(t, s.CheckHeader())

	// Rebinding the same buffer with another shape is detected.
	other := mustPlan(t, 3, segment.Narrow)
	s2, err := other.Bind(buf)
	require.NoError(t, err)
	assert.Error(t, s2.CheckHeader())
}

func TestScratch_Materialize(t *testing.T) {
	src := segment.Contiguous{Offsets: []int64{0, 0, 1, 3, 6, 10, 15, 15, 24}}
	require.NoError(t, src.Validate(24))

	b := sizeclass.Partition(src, sizeclass.Thresholds{Small: 2, Medium: 4})

	l := mustPlan(t, src.Len(), segment.Narrow)
	s, err := l.Bind(make([]byte, l.Bytes()))
	require.NoError(t, err)
	s.Materialize(src, b)
	require.NoError(t, s.CheckHeader())

	want := map[Bucket][]uint32{
		ClassBucket(policy.Small):  {1, 2},
		ClassBucket(policy.Medium): {3, 4},
		ClassBucket(policy.Large):  {5, 7},
		EmptyBucket:                {0, 6},
	}

	next := 0
	for _, bucket := range []Bucket{ClassBucket(policy.Small), ClassBucket(policy.Medium), ClassBucket(policy.Large), EmptyBucket} {
		start, count := s.Bucket(bucket)
		assert.Equal(t, next, start, bucket.String())
		require.Equal(t, len(want[bucket]), count, bucket.String())

		for i := range count {
			id, d := s.Get(start + i)
			assert.Equal(t, want[bucket][i], id)
			assert.Equal(t, src.At(int(id)), d)
		}
		next = start + count
	}
	assert.Equal(t, src.Len(), next)
}

func TestBucket_String(t *testing.T) {
	assert.Equal(t, "empty", EmptyBucket.String())
	assert.Equal(t, policy.Large.String(), ClassBucket(policy.Large).String())
}
