package segment

import (
	"errors"
	"fmt"
	"math"
)

// ErrWidthOverflow is returned when no permitted width can index the input.
var ErrWidthOverflow = errors.New("offset width overflow")

// Width is the integer width used to index elements.
type Width uint8

const (
	// Narrow offsets are 32 bits wide.
	Narrow Width = 4
	// Wide offsets are 64 bits wide.
	Wide Width = 8
)

// Bytes returns the size of one offset.
func (w Width) Bytes() int { return int(w) }

// MaxElements returns the largest element count the width can index,
// counting the one-past-the-end offset.
func (w Width) MaxElements() uint64 {
	if w == Narrow {
		return math.MaxUint32
	}
	return math.MaxInt64
}

// String returns the string representation of a Width.
func (w Width) String() string {
	switch w {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// Valid reports whether w is Narrow or Wide.
func (w Width) Valid() bool { return w == Narrow || w == Wide }

// SelectWidth returns the narrowest width indexing total elements, never
// wider than widest.
func SelectWidth(total uint64, widest Width) (Width, error) {
	for _, w := range []Width{Narrow, Wide} {
		if w > widest {
			break
		}
		if total <= w.MaxElements() {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %d elements exceed %s offsets", ErrWidthOverflow, total, widest)
}
