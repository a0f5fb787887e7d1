// Package op provides binary combine operators and their algebraic traits.
//
// # Commutativity
//
// Reduction agents may reorder element combination only when an operator is
// known to be commutative. IsCommutative answers that question:
//
//  1. An operator implementing Tagged decides for itself.
//  2. A built-in operator (Sum, Product, Min, Max, LogicalOr, LogicalAnd,
//     BitOr, BitAnd, BitXor) is commutative when its accumulator type is
//     arithmetic (bool, integer or floating point kinds).
//  3. Everything else is treated as non-commutative.
//
// Sum over strings concatenates and is therefore never commutative, even
// though it shares the built-in kind with numeric addition.
package op
