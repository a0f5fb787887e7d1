package policy

import (
	"fmt"
	"sort"
)

// Patch overrides a subset of policy knobs. Zero fields inherit.
type Patch struct {
	GroupWidth   int
	ItemsPerLane int
	VectorWidth  int
	Network      Network
	Load         LoadHint
}

// Apply returns base with the non-zero fields of p applied.
func (p Patch) Apply(base Policy) Policy {
	if p.GroupWidth != 0 {
		base.GroupWidth = p.GroupWidth
	}
	if p.ItemsPerLane != 0 {
		base.ItemsPerLane = p.ItemsPerLane
	}
	if p.VectorWidth != 0 {
		base.VectorWidth = p.VectorWidth
	}
	if p.Network != NetworkUnset {
		base.Network = p.Network
	}
	if p.Load != LoadUnset {
		base.Load = p.Load
	}
	return base
}

// Full returns a patch that sets every knob of p.
func Full(p Policy) Patch {
	return Patch(p)
}

// Entry is one link of a chain.
type Entry struct {
	// MinArch is the oldest generation this entry applies to.
	MinArch Arch
	Small   Patch
	Medium  Patch
	Large   Patch
}

type link struct {
	minArch Arch
	set     Set
}

// Chain is an immutable, flattened policy chain.
type Chain struct {
	links []link
}

// NewChain validates and flattens entries. Thresholds must be strictly
// increasing; the first entry must produce complete policies on its own.
func NewChain(entries ...Entry) (*Chain, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrInvalidPolicy)
	}

	links := make([]link, 0, len(entries))
	var prev Set
	for i, e := range entries {
		if i > 0 && e.MinArch <= entries[i-1].MinArch {
			return nil, fmt.Errorf("%w: entry %d: threshold %d not above %d",
				ErrInvalidPolicy, i, e.MinArch, entries[i-1].MinArch)
		}
		set := Set{
			Small:  e.Small.Apply(prev.Small),
			Medium: e.Medium.Apply(prev.Medium),
			Large:  e.Large.Apply(prev.Large),
		}
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.MinArch, err)
		}
		links = append(links, link{minArch: e.MinArch, set: set})
		prev = set
	}
	return &Chain{links: links}, nil
}

// MustChain is like NewChain but panics on error.
func MustChain(entries ...Entry) *Chain {
	c, err := NewChain(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve returns the set of the entry with the greatest threshold not
// exceeding arch, or the first entry if arch is below every threshold.
func (c *Chain) Resolve(arch Arch) Set {
	i := sort.Search(len(c.links), func(i int) bool { return c.links[i].minArch > arch })
	if i == 0 {
		return c.links[0].set
	}
	return c.links[i-1].set
}

// ResolveClass is shorthand for Resolve(arch).For(class).
func (c *Chain) ResolveClass(arch Arch, class Class) Policy {
	return c.Resolve(arch).For(class)
}

// Thresholds returns the entry thresholds in ascending order.
func (c *Chain) Thresholds() []Arch {
	out := make([]Arch, len(c.links))
	for i, l := range c.links {
		out[i] = l.minArch
	}
	return out
}

// Len returns the number of entries.
func (c *Chain) Len() int { return len(c.links) }

// Resolved is a flattened chain entry.
type Resolved struct {
	MinArch Arch
	Set     Set
}

// Entries returns the flattened entries in ascending threshold order.
func (c *Chain) Entries() []Resolved {
	out := make([]Resolved, len(c.links))
	for i, l := range c.links {
		out[i] = Resolved{MinArch: l.minArch, Set: l.set}
	}
	return out
}
