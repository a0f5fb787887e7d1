package op

// Kind identifies a built-in operator independent of its type argument.
type Kind uint8

const (
	KindSum Kind = iota + 1
	KindProduct
	KindMin
	KindMax
	KindLogicalOr
	KindLogicalAnd
	KindBitOr
	KindBitAnd
	KindBitXor
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if e, ok := registry[k]; ok {
		return e.name
	}
	return "unknown"
}

type builtin interface {
	kind() Kind
}

type registryEntry struct {
	name        string
	commutative bool
}

// registry lists the algebraic properties of the built-in operators when
// applied to arithmetic accumulators.
var registry = map[Kind]registryEntry{
	KindSum:        {name: "sum", commutative: true},
	KindProduct:    {name: "product", commutative: true},
	KindMin:        {name: "min", commutative: true},
	KindMax:        {name: "max", commutative: true},
	KindLogicalOr:  {name: "logical_or", commutative: true},
	KindLogicalAnd: {name: "logical_and", commutative: true},
	KindBitOr:      {name: "bit_or", commutative: true},
	KindBitAnd:     {name: "bit_and", commutative: true},
	KindBitXor:     {name: "bit_xor", commutative: true},
}

// KindOf returns the built-in kind of o, or false for custom operators.
func KindOf[T any](o Operator[T]) (Kind, bool) {
	b, ok := any(o).(builtin)
	if !ok {
		return 0, false
	}
	return b.kind(), true
}
