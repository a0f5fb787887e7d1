package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanes_Basic(t *testing.T) {
	p := New[int](8)
	assert.Equal(t, 8, p.Width())

	l := p.Get()
	defer p.Put(l)

	require.Equal(t, 8, l.Width())
	assert.False(t, l.Has(3))

	l.Set(3, 42)
	assert.True(t, l.Has(3))
	assert.Equal(t, 42, l.Partials[3])
	assert.Equal(t, uint(1), l.Valid.Count())
}

func TestLanes_GetReturnsCleared(t *testing.T) {
	p := New[string](4)

	l := p.Get()
	l.Set(0, "a")
	l.Set(3, "b")
	p.Put(l)

	l = p.Get()
	defer p.Put(l)
	for i := range l.Width() {
		assert.False(t, l.Has(i))
		assert.Empty(t, l.Partials[i])
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := New[int](16)

	var wg sync.WaitGroup
	for g := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				l := p.Get()
				for i := range l.Width() {
					assert.False(t, l.Has(i))
					l.Set(i, g)
				}
				p.Put(l)
			}
		}()
	}
	wg.Wait()
}
