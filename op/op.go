package op

import (
	"cmp"
	"fmt"
	"reflect"
)

// Operator combines two accumulator values into one.
//
// Implementations must be pure and associative. Commutativity is optional and
// reported through IsCommutative.
type Operator[T any] interface {
	Combine(a, b T) T
}

// Tagged lets an operator declare its own commutativity.
// It takes precedence over the built-in registry.
type Tagged interface {
	Commutative() bool
}

// Integer is the set of integer accumulator types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float is the set of floating point accumulator types.
type Float interface {
	~float32 | ~float64
}

// Number is the set of arithmetic accumulator types usable with Product.
type Number interface {
	Integer | Float
}

// Addable is the set of types usable with Sum.
type Addable interface {
	Number | ~complex64 | ~complex128 | ~string
}

// Sum adds (or concatenates) two values.
type Sum[T Addable] struct{}

func (Sum[T]) Combine(a, b T) T { return a + b }
func (Sum[T]) kind() Kind       { return KindSum }

// Product multiplies two values.
type Product[T Number] struct{}

func (Product[T]) Combine(a, b T) T { return a * b }
func (Product[T]) kind() Kind       { return KindProduct }

// Min keeps the smaller value. Ties keep the left operand.
type Min[T cmp.Ordered] struct{}

func (Min[T]) Combine(a, b T) T {
	if b < a {
		return b
	}
	return a
}
func (Min[T]) kind() Kind { return KindMin }

// Max keeps the larger value. Ties keep the left operand.
type Max[T cmp.Ordered] struct{}

func (Max[T]) Combine(a, b T) T {
	if b > a {
		return b
	}
	return a
}
func (Max[T]) kind() Kind { return KindMax }

// LogicalOr is boolean disjunction.
type LogicalOr[T ~bool] struct{}

func (LogicalOr[T]) Combine(a, b T) T { return a || b }
func (LogicalOr[T]) kind() Kind       { return KindLogicalOr }

// LogicalAnd is boolean conjunction.
type LogicalAnd[T ~bool] struct{}

func (LogicalAnd[T]) Combine(a, b T) T { return a && b }
func (LogicalAnd[T]) kind() Kind       { return KindLogicalAnd }

// BitOr is bitwise or.
type BitOr[T Integer] struct{}

func (BitOr[T]) Combine(a, b T) T { return a | b }
func (BitOr[T]) kind() Kind       { return KindBitOr }

// BitAnd is bitwise and.
type BitAnd[T Integer] struct{}

func (BitAnd[T]) Combine(a, b T) T { return a & b }
func (BitAnd[T]) kind() Kind       { return KindBitAnd }

// BitXor is bitwise exclusive or.
type BitXor[T Integer] struct{}

func (BitXor[T]) Combine(a, b T) T { return a ^ b }
func (BitXor[T]) kind() Kind       { return KindBitXor }

// Func adapts a plain function. It is reported as non-commutative.
type Func[T any] func(a, b T) T

func (f Func[T]) Combine(a, b T) T { return f(a, b) }

type commutativeFunc[T any] func(a, b T) T

func (f commutativeFunc[T]) Combine(a, b T) T { return f(a, b) }
func (commutativeFunc[T]) Commutative() bool  { return true }

// Commutative adapts fn and tags it as commutative.
// The caller is responsible for fn actually being commutative.
func Commutative[T any](fn func(a, b T) T) Operator[T] {
	return commutativeFunc[T](fn)
}

// Traits summarizes what is known about an operator.
type Traits struct {
	Name        string
	Commutative bool
}

// Describe returns the traits of o.
func Describe[T any](o Operator[T]) Traits {
	name := "custom"
	if b, ok := any(o).(builtin); ok {
		name = b.kind().String()
	} else if o != nil {
		name = fmt.Sprintf("%T", o)
	}
	return Traits{Name: name, Commutative: IsCommutative(o)}
}

// IsCommutative reports whether o may be applied in any order.
// Unknown operators default to false.
func IsCommutative[T any](o Operator[T]) bool {
	if o == nil {
		return false
	}
	if t, ok := any(o).(Tagged); ok {
		return t.Commutative()
	}
	b, ok := any(o).(builtin)
	if !ok {
		return false
	}
	return registry[b.kind()].commutative && IsArithmetic[T]()
}

// IsArithmetic reports whether T is a bool, integer or floating point kind.
func IsArithmetic[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
