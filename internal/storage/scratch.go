package storage

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/internal/sizeclass"
	"github.com/hupe1980/segreduce/policy"
)

const headerMagic uint32 = 0x53524431 // "SRD1"

// Scratch is a bound scratch buffer.
//
// Writes happen once while the dispatch is prepared; agents only read.
type Scratch struct {
	width segment.Width
	n     int

	meta []byte
	ids  []uint32

	begin32, len32 []uint32
	begin64, len64 []uint64
}

// Bind carves buf according to l.
func (l Layout) Bind(buf []byte) (*Scratch, error) {
	required := l.Bytes()
	if len(buf) < required {
		return nil, &InsufficientStorageError{Required: required, Provided: len(buf)}
	}

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment only
	pad := int((Alignment - addr%Alignment) % Alignment)
	region := buf[pad : pad+l.region : pad+l.region]

	n := l.shape.NumSegments
	s := &Scratch{
		width: l.shape.Width,
		n:     n,
		meta:  region[:metaRegion],
		ids:   view[uint32](region, l.idsOff, n),
	}
	if s.width == segment.Narrow {
		s.begin32 = view[uint32](region, l.beginOff, n)
		s.len32 = view[uint32](region, l.lenOff, n)
	} else {
		s.begin64 = view[uint64](region, l.beginOff, n)
		s.len64 = view[uint64](region, l.lenOff, n)
	}
	return s, nil
}

// view reinterprets n elements of region starting at the aligned offset off.
func view[E uint32 | uint64](region []byte, off, n int) []E {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*E)(unsafe.Pointer(&region[off])), n) //nolint:gosec // off is Alignment aligned
}

// Len returns the number of descriptor slots.
func (s *Scratch) Len() int { return s.n }

// Width returns the offset width of the descriptor table.
func (s *Scratch) Width() segment.Width { return s.width }

// WriteHeader records the shape the buffer was bound with.
func (s *Scratch) WriteHeader() {
	binary.LittleEndian.PutUint32(s.meta[0:], headerMagic)
	s.meta[4] = byte(s.width)
	binary.LittleEndian.PutUint64(s.meta[8:], uint64(s.n)) //nolint:gosec // n >= 0
}

// CheckHeader verifies the header written by WriteHeader.
func (s *Scratch) CheckHeader() error {
	if binary.LittleEndian.Uint32(s.meta[0:]) != headerMagic ||
		segment.Width(s.meta[4]) != s.width ||
		binary.LittleEndian.Uint64(s.meta[8:]) != uint64(s.n) { //nolint:gosec // n >= 0
		return fmt.Errorf("storage: scratch header does not match bound shape")
	}
	return nil
}

func (s *Scratch) block(b Bucket) []byte {
	off := headerBytes + int(b)*bucketBlockBytes
	return s.meta[off : off+bucketBlockBytes]
}

// SetBucket records the descriptor range of bucket b.
func (s *Scratch) SetBucket(b Bucket, start, count int) {
	blk := s.block(b)
	binary.LittleEndian.PutUint64(blk[0:], uint64(start)) //nolint:gosec // start >= 0
	binary.LittleEndian.PutUint64(blk[8:], uint64(count)) //nolint:gosec // count >= 0
}

// Bucket returns the descriptor range of bucket b.
func (s *Scratch) Bucket(b Bucket) (start, count int) {
	blk := s.block(b)
	return int(binary.LittleEndian.Uint64(blk[0:])), int(binary.LittleEndian.Uint64(blk[8:])) //nolint:gosec // written by SetBucket
}

// Put stores descriptor d of segment id in slot.
// d must fit the bound width.
func (s *Scratch) Put(slot int, id uint32, d segment.Descriptor) {
	s.ids[slot] = id
	if s.width == segment.Narrow {
		s.begin32[slot] = uint32(d.Begin)  //nolint:gosec // validated against width
		s.len32[slot] = uint32(d.Length) //nolint:gosec // validated against width
		return
	}
	s.begin64[slot] = uint64(d.Begin)  //nolint:gosec // non-negative
	s.len64[slot] = uint64(d.Length) //nolint:gosec // non-negative
}

// Get returns the segment id and descriptor stored in slot.
func (s *Scratch) Get(slot int) (uint32, segment.Descriptor) {
	if s.width == segment.Narrow {
		return s.ids[slot], segment.Descriptor{Begin: int64(s.begin32[slot]), Length: int64(s.len32[slot])}
	}
	return s.ids[slot], segment.Descriptor{Begin: int64(s.begin64[slot]), Length: int64(s.len64[slot])} //nolint:gosec // written by Put
}

// Materialize writes the header, the bucket ranges and the descriptor table
// for the classified segments of src.
func (s *Scratch) Materialize(src segment.Source, b *sizeclass.Buckets) {
	s.WriteHeader()

	slot := 0
	fill := func(bucket Bucket, ids *roaring.Bitmap) {
		start := slot
		it := ids.Iterator()
		for it.HasNext() {
			id := it.Next()
			s.Put(slot, id, src.At(int(id)))
			slot++
		}
		s.SetBucket(bucket, start, slot-start)
	}

	for _, c := range policy.Classes {
		fill(ClassBucket(c), b.ByClass[c])
	}
	fill(EmptyBucket, b.Empty)
}
