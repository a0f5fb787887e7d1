// Package policy provides architecture-keyed tuning configurations for the
// segmented reduction agents.
//
// A Chain is an ordered table of entries keyed by a minimum architecture
// generation. Each entry patches the policy set it inherits from the previous
// entry, so a newer generation only spells out the knobs it changes. The
// layering is flattened once by NewChain; Resolve is a lookup.
package policy

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrInvalidPolicy is returned for malformed policies or chains.
var ErrInvalidPolicy = errors.New("invalid policy")

// Arch is an architecture generation. Larger values are newer.
type Arch uint32

const (
	// ArchGeneric is scalar execution with no vector unit.
	ArchGeneric Arch = 100
	// ArchSIMD128 has 128-bit vector loads (SSE4, NEON).
	ArchSIMD128 Arch = 200
	// ArchSIMD256 has 256-bit vector loads (AVX2, SVE2).
	ArchSIMD256 Arch = 300
	// ArchSIMD512 has 512-bit vector loads (AVX-512).
	ArchSIMD512 Arch = 400
)

// String returns the string representation of an Arch.
func (a Arch) String() string {
	switch a {
	case ArchGeneric:
		return "generic"
	case ArchSIMD128:
		return "simd128"
	case ArchSIMD256:
		return "simd256"
	case ArchSIMD512:
		return "simd512"
	default:
		return fmt.Sprintf("arch(%d)", uint32(a))
	}
}

// ParseArch parses a generation name or number.
func ParseArch(s string) (Arch, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return ArchGeneric, true
	case "simd128":
		return ArchSIMD128, true
	case "simd256":
		return ArchSIMD256, true
	case "simd512":
		return ArchSIMD512, true
	}
	var n uint32
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil || n == 0 {
		return 0, false
	}
	return Arch(n), true
}

// Class is a segment size class.
type Class uint8

const (
	Small Class = iota
	Medium
	Large
)

// NumClasses is the number of size classes.
const NumClasses = 3

// Classes lists the size classes in ascending order.
var Classes = [NumClasses]Class{Small, Medium, Large}

// String returns the string representation of a Class.
func (c Class) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return "unknown"
	}
}

// Network is the group-wide reduction network used to merge lane partials.
type Network uint8

const (
	// NetworkUnset inherits the previous entry's network in a Patch.
	NetworkUnset Network = iota
	// NetworkNone means a single lane, nothing to merge.
	NetworkNone
	// NetworkTree merges adjacent partials pairwise.
	NetworkTree
	// NetworkShuffle exchanges partials across lanes in log2(width) steps.
	NetworkShuffle
)

// String returns the string representation of a Network.
func (n Network) String() string {
	switch n {
	case NetworkUnset:
		return "unset"
	case NetworkNone:
		return "none"
	case NetworkTree:
		return "tree"
	case NetworkShuffle:
		return "shuffle"
	default:
		return "unknown"
	}
}

// ParseNetwork parses a network name.
func ParseNetwork(s string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset":
		return NetworkUnset, true
	case "none":
		return NetworkNone, true
	case "tree":
		return NetworkTree, true
	case "shuffle":
		return NetworkShuffle, true
	default:
		return NetworkUnset, false
	}
}

// LoadHint is the cache behavior requested for input loads.
type LoadHint uint8

const (
	// LoadUnset inherits the previous entry's hint in a Patch.
	LoadUnset LoadHint = iota
	LoadDefault
	// LoadReadOnly routes loads through the read-only path.
	LoadReadOnly
	// LoadStreaming marks input as touched once.
	LoadStreaming
)

// String returns the string representation of a LoadHint.
func (l LoadHint) String() string {
	switch l {
	case LoadUnset:
		return "unset"
	case LoadDefault:
		return "default"
	case LoadReadOnly:
		return "readonly"
	case LoadStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// ParseLoadHint parses a load hint name.
func ParseLoadHint(s string) (LoadHint, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset":
		return LoadUnset, true
	case "default":
		return LoadDefault, true
	case "readonly":
		return LoadReadOnly, true
	case "streaming":
		return LoadStreaming, true
	default:
		return LoadUnset, false
	}
}

// Policy is a resolved set of tuning knobs for one size class.
type Policy struct {
	// GroupWidth is the number of lanes cooperating on one segment.
	GroupWidth int
	// ItemsPerLane is the number of elements each lane loads per tile.
	ItemsPerLane int
	// VectorWidth is the number of contiguous elements per vectorized load.
	// Only commutative reductions use loads wider than one element.
	VectorWidth int
	Network     Network
	Load        LoadHint
}

// TileSize is the number of elements a group consumes per tile.
func (p Policy) TileSize() int64 {
	return int64(p.GroupWidth) * int64(p.ItemsPerLane)
}

// String returns a compact representation of the policy.
func (p Policy) String() string {
	return fmt.Sprintf("width=%d items=%d vec=%d net=%s load=%s",
		p.GroupWidth, p.ItemsPerLane, p.VectorWidth, p.Network, p.Load)
}

// Validate checks the policy is usable for the given class.
func (p Policy) Validate(c Class) error {
	switch {
	case p.GroupWidth <= 0:
		return fmt.Errorf("%w: %s: group width %d", ErrInvalidPolicy, c, p.GroupWidth)
	case p.ItemsPerLane <= 0:
		return fmt.Errorf("%w: %s: items per lane %d", ErrInvalidPolicy, c, p.ItemsPerLane)
	case p.VectorWidth <= 0:
		return fmt.Errorf("%w: %s: vector width %d", ErrInvalidPolicy, c, p.VectorWidth)
	case p.ItemsPerLane%p.VectorWidth != 0:
		return fmt.Errorf("%w: %s: items per lane %d not a multiple of vector width %d",
			ErrInvalidPolicy, c, p.ItemsPerLane, p.VectorWidth)
	case p.Network == NetworkUnset || p.Network > NetworkShuffle:
		return fmt.Errorf("%w: %s: network %s", ErrInvalidPolicy, c, p.Network)
	case p.Load == LoadUnset || p.Load > LoadStreaming:
		return fmt.Errorf("%w: %s: load hint %s", ErrInvalidPolicy, c, p.Load)
	case p.Network == NetworkShuffle && bits.OnesCount(uint(p.GroupWidth)) != 1:
		return fmt.Errorf("%w: %s: shuffle network needs a power-of-two width, got %d",
			ErrInvalidPolicy, c, p.GroupWidth)
	}

	if c == Small {
		if p.GroupWidth != 1 || p.Network != NetworkNone {
			return fmt.Errorf("%w: small: must be a single lane without a network", ErrInvalidPolicy)
		}
		return nil
	}
	if p.GroupWidth > 1 && p.Network == NetworkNone {
		return fmt.Errorf("%w: %s: width %d needs a reduction network", ErrInvalidPolicy, c, p.GroupWidth)
	}
	return nil
}

// Set holds one policy per size class.
type Set struct {
	Small  Policy
	Medium Policy
	Large  Policy
}

// For returns the policy for class c.
func (s Set) For(c Class) Policy {
	switch c {
	case Small:
		return s.Small
	case Medium:
		return s.Medium
	default:
		return s.Large
	}
}

// Validate checks every class policy and the relation between them.
func (s Set) Validate() error {
	for _, c := range Classes {
		if err := s.For(c).Validate(c); err != nil {
			return err
		}
	}
	if s.Medium.GroupWidth > s.Large.GroupWidth {
		return fmt.Errorf("%w: medium width %d exceeds large width %d",
			ErrInvalidPolicy, s.Medium.GroupWidth, s.Large.GroupWidth)
	}
	if s.Small.TileSize() >= s.Medium.TileSize() {
		return fmt.Errorf("%w: small tile %d must be below medium tile %d",
			ErrInvalidPolicy, s.Small.TileSize(), s.Medium.TileSize())
	}
	return nil
}
