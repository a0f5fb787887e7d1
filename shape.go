package segreduce

import (
	"fmt"

	"github.com/hupe1980/segreduce/internal/segment"
)

type shapeKind uint8

const (
	shapeUnset shapeKind = iota
	shapeFixed
	shapePairs
	shapeContiguous
)

// Shape describes where the segments of a dispatch lie in the input.
// The zero Shape is invalid.
type Shape struct {
	kind    shapeKind
	size    int64
	begin   []int64
	end     []int64
	offsets []int64
}

// FixedSize is numSegments back-to-back segments of size elements.
func FixedSize(size int64) Shape {
	return Shape{kind: shapeFixed, size: size}
}

// Offsets describes segment i as [begin[i], end[i]). Both slices must hold
// exactly numSegments offsets.
func Offsets(begin, end []int64) Shape {
	return Shape{kind: shapePairs, begin: begin, end: end}
}

// ContiguousOffsets describes segment i as [offsets[i], offsets[i+1]).
// offsets must hold numSegments+1 entries.
func ContiguousOffsets(offsets []int64) Shape {
	return Shape{kind: shapeContiguous, offsets: offsets}
}

// String returns the string representation of a Shape.
func (s Shape) String() string {
	switch s.kind {
	case shapeFixed:
		return fmt.Sprintf("fixed(%d)", s.size)
	case shapePairs:
		return fmt.Sprintf("offsets(%d)", len(s.begin))
	case shapeContiguous:
		return fmt.Sprintf("contiguous(%d)", len(s.offsets))
	default:
		return "unset"
	}
}

// source checks the shape holds numSegments segments and returns it as a
// segment source. Offsets are not validated here.
func (s Shape) source(numSegments int) (segment.Source, error) {
	switch s.kind {
	case shapeFixed:
		return segment.Fixed{Count: numSegments, Size: s.size}, nil
	case shapePairs:
		if len(s.begin) != numSegments || len(s.end) != numSegments {
			return nil, &ShapeError{Segment: -1, Reason: fmt.Sprintf(
				"%d segments but %d begin and %d end offsets", numSegments, len(s.begin), len(s.end))}
		}
		return segment.Pairs{Begin: s.begin, End: s.end}, nil
	case shapeContiguous:
		if numSegments == 0 && len(s.offsets) <= 1 {
			return segment.Contiguous{}, nil
		}
		if len(s.offsets) != numSegments+1 {
			return nil, &ShapeError{Segment: -1, Reason: fmt.Sprintf(
				"%d segments need %d offsets, got %d", numSegments, numSegments+1, len(s.offsets))}
		}
		return segment.Contiguous{Offsets: s.offsets}, nil
	default:
		return nil, &ShapeError{Segment: -1, Reason: "segment shape not set"}
	}
}
