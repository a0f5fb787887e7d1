package segreduce

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/segreduce/internal/conv"
	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/internal/storage"
)

var (
	// ErrConfiguration is returned for malformed arguments or shapes.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProblemTooLarge is returned when a request exceeds a configured
	// limit. It is a configuration error.
	ErrProblemTooLarge = fmt.Errorf("%w: problem too large", ErrConfiguration)

	// ErrInsufficientStorage is returned when the execution call receives a
	// buffer smaller than the sizing call reported.
	ErrInsufficientStorage = errors.New("insufficient temporary storage")

	// ErrLaunch is returned when the backend rejects a launch.
	ErrLaunch = errors.New("launch failed")

	// ErrOverflow is returned when the input cannot be indexed by the widest
	// permitted offset width.
	ErrOverflow = errors.New("offset overflow")
)

// ShapeError indicates a malformed segment shape.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ShapeError struct {
	// Segment is the offending segment, or -1 for shape-wide problems.
	Segment int
	Reason  string
	cause   error
}

func (e *ShapeError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: segment %d: %s", ErrConfiguration, e.Segment, e.Reason)
}

func (e *ShapeError) Unwrap() []error { return causes(ErrConfiguration, e.cause) }

// InsufficientStorageError reports the required and provided buffer sizes.
type InsufficientStorageError struct {
	Required int
	Provided int
}

func (e *InsufficientStorageError) Error() string {
	return fmt.Sprintf("%v: required %d bytes, provided %d", ErrInsufficientStorage, e.Required, e.Provided)
}

func (e *InsufficientStorageError) Unwrap() error { return ErrInsufficientStorage }

// LaunchError indicates the backend rejected a launch.
//
// The backend error can be matched with errors.Is, for example against
// device.ErrResourceExhausted.
type LaunchError struct {
	Launch string
	// Class is the size class of the launch, empty for the prepare launch.
	Class string
	cause error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrLaunch, e.Launch, e.cause)
}

func (e *LaunchError) Unwrap() []error { return causes(ErrLaunch, e.cause) }

// OverflowError indicates the input exceeds the widest offset width.
type OverflowError struct {
	// Total is the number of elements described, saturated at math.MaxUint64.
	Total uint64
	Width OffsetWidth
	cause error
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%v: %d elements exceed %s offsets", ErrOverflow, e.Total, e.Width)
}

func (e *OverflowError) Unwrap() []error { return causes(ErrOverflow, e.cause) }

func causes(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

// translateError maps internal errors onto the public taxonomy. width is the
// widest permitted offset width.
func translateError(err error, width OffsetWidth) error {
	if err == nil {
		return nil
	}

	var se *segment.ShapeError
	if errors.As(err, &se) {
		return &ShapeError{Segment: se.Segment, Reason: se.Reason, cause: err}
	}
	var ie *storage.InsufficientStorageError
	if errors.As(err, &ie) {
		return &InsufficientStorageError{Required: ie.Required, Provided: ie.Provided}
	}
	if errors.Is(err, conv.ErrOverflow) || errors.Is(err, segment.ErrWidthOverflow) {
		return &OverflowError{Total: math.MaxUint64, Width: width, cause: err}
	}

	return err
}
