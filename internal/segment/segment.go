package segment

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segreduce/internal/conv"
)

// ErrInvalidShape is returned for malformed segment sources.
var ErrInvalidShape = errors.New("invalid segment shape")

// ShapeError reports which segment violates the shape contract.
type ShapeError struct {
	// Segment is the offending segment, or -1 for shape-wide problems.
	Segment int
	Reason  string
}

func (e *ShapeError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidShape, e.Reason)
	}
	return fmt.Sprintf("%v: segment %d: %s", ErrInvalidShape, e.Segment, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidShape }

// Descriptor is one contiguous run of input elements.
type Descriptor struct {
	Begin  int64
	Length int64
}

// End returns the exclusive end offset.
func (d Descriptor) End() int64 { return d.Begin + d.Length }

// Source yields segment descriptors.
type Source interface {
	// Len returns the number of segments.
	Len() int
	// At returns segment i. Only valid after Validate succeeded.
	At(i int) Descriptor
	// Validate checks every segment lies within [0, total) with a
	// non-negative length and that begin offsets never decrease.
	Validate(total int64) error
}

// Fixed is Count segments of Size elements each.
type Fixed struct {
	Count int
	Size  int64
}

// Len implements Source.
func (f Fixed) Len() int { return f.Count }

// At implements Source.
func (f Fixed) At(i int) Descriptor {
	return Descriptor{Begin: int64(i) * f.Size, Length: f.Size}
}

// Elements returns Count*Size, failing if it overflows int64.
func (f Fixed) Elements() (int64, error) {
	return conv.MulInt64(int64(f.Count), f.Size)
}

// Validate implements Source.
func (f Fixed) Validate(total int64) error {
	if f.Count < 0 {
		return &ShapeError{Segment: -1, Reason: fmt.Sprintf("negative segment count %d", f.Count)}
	}
	if f.Size < 0 {
		return &ShapeError{Segment: -1, Reason: fmt.Sprintf("negative segment size %d", f.Size)}
	}
	n, err := f.Elements()
	if err != nil {
		return err
	}
	if n > total {
		return &ShapeError{Segment: -1, Reason: fmt.Sprintf("%d segments of %d elements exceed input of %d", f.Count, f.Size, total)}
	}
	return nil
}

// Pairs is a begin/end offset pair per segment.
type Pairs struct {
	Begin []int64
	End   []int64
}

// Len implements Source.
func (p Pairs) Len() int { return len(p.Begin) }

// At implements Source.
func (p Pairs) At(i int) Descriptor {
	return Descriptor{Begin: p.Begin[i], Length: p.End[i] - p.Begin[i]}
}

// Validate implements Source.
func (p Pairs) Validate(total int64) error {
	if len(p.Begin) != len(p.End) {
		return &ShapeError{Segment: -1, Reason: fmt.Sprintf("%d begin offsets but %d end offsets", len(p.Begin), len(p.End))}
	}
	return validateRange(p, total)
}

// Contiguous shares one offsets array between adjacent segments.
type Contiguous struct {
	Offsets []int64
}

// Len implements Source.
func (c Contiguous) Len() int {
	if len(c.Offsets) == 0 {
		return 0
	}
	return len(c.Offsets) - 1
}

// At implements Source.
func (c Contiguous) At(i int) Descriptor {
	return Descriptor{Begin: c.Offsets[i], Length: c.Offsets[i+1] - c.Offsets[i]}
}

// Validate implements Source.
func (c Contiguous) Validate(total int64) error {
	return validateRange(c, total)
}

func validateRange(src Source, total int64) error {
	prevBegin := int64(0)
	for i := range src.Len() {
		d := src.At(i)
		switch {
		case d.Begin < 0:
			return &ShapeError{Segment: i, Reason: fmt.Sprintf("negative begin offset %d", d.Begin)}
		case d.Length < 0:
			return &ShapeError{Segment: i, Reason: fmt.Sprintf("negative length %d", d.Length)}
		case d.Begin < prevBegin:
			return &ShapeError{Segment: i, Reason: fmt.Sprintf("begin offset %d below previous %d", d.Begin, prevBegin)}
		case d.End() > total:
			return &ShapeError{Segment: i, Reason: fmt.Sprintf("end offset %d beyond input of %d", d.End(), total)}
		}
		prevBegin = d.Begin
	}
	return nil
}
