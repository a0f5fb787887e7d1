package policy

// defaultEntries is the built-in catalog. Each generation only lists the
// knobs it changes relative to the previous one.
var defaultEntries = []Entry{
	{
		MinArch: ArchGeneric,
		Small:   Full(Policy{GroupWidth: 1, ItemsPerLane: 8, VectorWidth: 1, Network: NetworkNone, Load: LoadDefault}),
		Medium:  Full(Policy{GroupWidth: 16, ItemsPerLane: 8, VectorWidth: 1, Network: NetworkTree, Load: LoadDefault}),
		Large:   Full(Policy{GroupWidth: 128, ItemsPerLane: 8, VectorWidth: 1, Network: NetworkTree, Load: LoadDefault}),
	},
	{
		MinArch: ArchSIMD128,
		Small:   Patch{ItemsPerLane: 16},
		Medium:  Patch{ItemsPerLane: 16, VectorWidth: 4, Network: NetworkShuffle},
		Large:   Patch{ItemsPerLane: 16, VectorWidth: 4, Network: NetworkShuffle, Load: LoadReadOnly},
	},
	{
		MinArch: ArchSIMD256,
		Medium:  Patch{GroupWidth: 32, VectorWidth: 8},
		Large:   Patch{GroupWidth: 256, VectorWidth: 8},
	},
	{
		MinArch: ArchSIMD512,
		Medium:  Patch{VectorWidth: 16},
		Large:   Patch{ItemsPerLane: 32, VectorWidth: 16, Load: LoadStreaming},
	},
}

var defaultChain = MustChain(defaultEntries...)

// Default returns the built-in catalog.
func Default() *Chain {
	return defaultChain
}

// DefaultEntries returns a copy of the built-in catalog entries, for callers
// that want to extend it.
func DefaultEntries() []Entry {
	out := make([]Entry, len(defaultEntries))
	copy(out, defaultEntries)
	return out
}
