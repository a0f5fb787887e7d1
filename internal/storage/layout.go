package storage

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/policy"
)

// ErrInsufficientStorage is returned when a buffer is smaller than planned.
var ErrInsufficientStorage = errors.New("insufficient temporary storage")

const (
	// Alignment is the byte alignment of every region.
	Alignment = 256

	headerBytes      = 64
	bucketBlockBytes = 64
)

// Bucket indexes a range of the descriptor table.
type Bucket uint8

const (
	// EmptyBucket holds zero-length segments.
	EmptyBucket = Bucket(policy.NumClasses)
	// NumBuckets counts the class buckets plus EmptyBucket.
	NumBuckets = policy.NumClasses + 1
)

// ClassBucket returns the bucket of class c.
func ClassBucket(c policy.Class) Bucket { return Bucket(c) }

// String returns the string representation of a Bucket.
func (b Bucket) String() string {
	if b == EmptyBucket {
		return "empty"
	}
	return policy.Class(b).String()
}

var (
	metaRegion = alignUp(headerBytes + NumBuckets*bucketBlockBytes)

	// MetadataBytes is the size requested for a dispatch without segments.
	MetadataBytes = Alignment - 1 + metaRegion
)

// InsufficientStorageError reports the planned and provided sizes.
type InsufficientStorageError struct {
	Required int
	Provided int
}

func (e *InsufficientStorageError) Error() string {
	return fmt.Sprintf("%v: required %d bytes, provided %d", ErrInsufficientStorage, e.Required, e.Provided)
}

func (e *InsufficientStorageError) Unwrap() error { return ErrInsufficientStorage }

// Shape is everything the storage size depends on.
type Shape struct {
	NumSegments int
	Width       segment.Width
}

// Layout is a planned scratch layout.
type Layout struct {
	shape    Shape
	idsOff   int
	beginOff int
	lenOff   int
	region   int
}

// Plan computes the layout for shape. Identical shapes give identical
// layouts; more segments never give a smaller one.
func Plan(shape Shape) (Layout, error) {
	if shape.NumSegments < 0 {
		return Layout{}, fmt.Errorf("storage: negative segment count %d", shape.NumSegments)
	}
	if !shape.Width.Valid() {
		return Layout{}, fmt.Errorf("storage: invalid offset width %s", shape.Width)
	}

	n := shape.NumSegments
	l := Layout{shape: shape}
	l.idsOff = metaRegion
	l.beginOff = l.idsOff + alignUp(n*4)
	l.lenOff = l.beginOff + alignUp(n*shape.Width.Bytes())
	l.region = l.lenOff + alignUp(n*shape.Width.Bytes())
	return l, nil
}

// Bytes returns the number of bytes the caller must provide.
func (l Layout) Bytes() int {
	return Alignment - 1 + l.region
}

// Shape returns the planned shape.
func (l Layout) Shape() Shape { return l.shape }

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
