package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base() Entry {
	return Entry{
		MinArch: 100,
		Small:   Full(Policy{GroupWidth: 1, ItemsPerLane: 4, VectorWidth: 1, Network: NetworkNone, Load: LoadDefault}),
		Medium:  Full(Policy{GroupWidth: 8, ItemsPerLane: 4, VectorWidth: 1, Network: NetworkTree, Load: LoadDefault}),
		Large:   Full(Policy{GroupWidth: 32, ItemsPerLane: 4, VectorWidth: 1, Network: NetworkTree, Load: LoadDefault}),
	}
}

func TestChain_Resolve(t *testing.T) {
	c, err := NewChain(
		base(),
		Entry{MinArch: 300, Large: Patch{GroupWidth: 64}},
		Entry{MinArch: 500, Large: Patch{ItemsPerLane: 8, VectorWidth: 4}},
	)
	require.NoError(t, err)
	assert.Equal(t, []Arch{100, 300, 500}, c.Thresholds())
	assert.Equal(t, 3, c.Len())

	tests := []struct {
		name      string
		arch      Arch
		wantWidth int
		wantItems int
	}{
		{"below all thresholds picks smallest", 50, 32, 4},
		{"exact first", 100, 32, 4},
		{"between", 299, 32, 4},
		{"exact second", 300, 64, 4},
		{"third inherits width", 500, 64, 8},
		{"above all", 10000, 64, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := c.ResolveClass(tt.arch, Large)
			assert.Equal(t, tt.wantWidth, p.GroupWidth)
			assert.Equal(t, tt.wantItems, p.ItemsPerLane)
		})
	}
}

func TestChain_InheritsUntouchedClasses(t *testing.T) {
	c, err := NewChain(base(), Entry{MinArch: 200, Medium: Patch{Network: NetworkShuffle}})
	require.NoError(t, err)

	s := c.Resolve(200)
	assert.Equal(t, NetworkShuffle, s.Medium.Network)
	assert.Equal(t, 8, s.Medium.GroupWidth)
	assert.Equal(t, c.Resolve(100).Large, s.Large)
	assert.Equal(t, c.Resolve(100).Small, s.Small)
}

func TestChain_Invalid(t *testing.T) {
	_, err := NewChain()
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = NewChain(base(), Entry{MinArch: 100})
	assert.ErrorIs(t, err, ErrInvalidPolicy, "duplicate threshold")

	_, err = NewChain(base(), Entry{MinArch: 50})
	assert.ErrorIs(t, err, ErrInvalidPolicy, "decreasing threshold")

	_, err = NewChain(Entry{MinArch: 100, Large: Patch{GroupWidth: 32}})
	assert.ErrorIs(t, err, ErrInvalidPolicy, "incomplete first entry")

	_, err = NewChain(base(), Entry{MinArch: 200, Medium: Patch{GroupWidth: 64}})
	assert.ErrorIs(t, err, ErrInvalidPolicy, "medium wider than large")

	assert.Panics(t, func() { MustChain() })
}

func TestPolicy_Validate(t *testing.T) {
	good := Policy{GroupWidth: 16, ItemsPerLane: 8, VectorWidth: 4, Network: NetworkShuffle, Load: LoadReadOnly}
	require.NoError(t, good.Validate(Large))
	assert.Equal(t, int64(128), good.TileSize())

	bad := good
	bad.GroupWidth = 12
	assert.ErrorIs(t, bad.Validate(Large), ErrInvalidPolicy, "shuffle needs power of two")

	bad = good
	bad.Network = NetworkTree
	bad.GroupWidth = 12
	assert.NoError(t, bad.Validate(Large), "tree accepts any width")

	bad = good
	bad.VectorWidth = 3
	assert.ErrorIs(t, bad.Validate(Large), ErrInvalidPolicy)

	bad = good
	bad.Network = NetworkNone
	assert.ErrorIs(t, bad.Validate(Medium), ErrInvalidPolicy)

	assert.ErrorIs(t, good.Validate(Small), ErrInvalidPolicy)

	bad = good
	bad.Load = LoadUnset
	assert.ErrorIs(t, bad.Validate(Large), ErrInvalidPolicy)
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	for _, a := range []Arch{0, ArchGeneric, ArchSIMD128, ArchSIMD256, ArchSIMD512, 999} {
		require.NoError(t, c.Resolve(a).Validate(), a.String())
	}
	assert.Equal(t, 1, c.ResolveClass(ArchSIMD512, Small).GroupWidth)
	assert.Equal(t, 256, c.ResolveClass(ArchSIMD512, Large).GroupWidth)
	assert.Equal(t, 16, c.ResolveClass(ArchSIMD512, Large).VectorWidth)
	assert.Len(t, DefaultEntries(), c.Len())
}

func TestParse(t *testing.T) {
	a, ok := ParseArch("SIMD256")
	assert.True(t, ok)
	assert.Equal(t, ArchSIMD256, a)

	a, ok = ParseArch("350")
	assert.True(t, ok)
	assert.Equal(t, Arch(350), a)
	assert.Equal(t, "arch(350)", a.String())

	_, ok = ParseArch("warp9")
	assert.False(t, ok)

	n, ok := ParseNetwork("shuffle")
	assert.True(t, ok)
	assert.Equal(t, NetworkShuffle, n)

	l, ok := ParseLoadHint("streaming")
	assert.True(t, ok)
	assert.Equal(t, LoadStreaming, l)

	_, ok = ParseLoadHint("bogus")
	assert.False(t, ok)
	assert.Equal(t, "medium", Medium.String())
}
