package op

import (
	"math"
	"reflect"
)

// Highest returns the largest value representable by T.
// Floating point types return +Inf.
func Highest[T Number]() T {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		v := int64(math.MaxInt8)
		return T(v)
	case reflect.Int16:
		v := int64(math.MaxInt16)
		return T(v)
	case reflect.Int32:
		v := int64(math.MaxInt32)
		return T(v)
	case reflect.Int, reflect.Int64:
		v := int64(math.MaxInt64)
		if reflect.TypeFor[T]().Size() == 4 {
			v = math.MaxInt32
		}
		return T(v)
	case reflect.Uint8:
		v := uint64(math.MaxUint8)
		return T(v)
	case reflect.Uint16:
		v := uint64(math.MaxUint16)
		return T(v)
	case reflect.Uint32:
		v := uint64(math.MaxUint32)
		return T(v)
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		v := uint64(math.MaxUint64)
		if reflect.TypeFor[T]().Size() == 4 {
			v = math.MaxUint32
		}
		return T(v)
	default:
		v := math.Inf(1)
		return T(v)
	}
}

// Lowest returns the smallest value representable by T.
// Floating point types return -Inf.
func Lowest[T Number]() T {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		v := int64(math.MinInt8)
		return T(v)
	case reflect.Int16:
		v := int64(math.MinInt16)
		return T(v)
	case reflect.Int32:
		v := int64(math.MinInt32)
		return T(v)
	case reflect.Int, reflect.Int64:
		v := int64(math.MinInt64)
		if reflect.TypeFor[T]().Size() == 4 {
			v = math.MinInt32
		}
		return T(v)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return 0
	default:
		v := math.Inf(-1)
		return T(v)
	}
}
