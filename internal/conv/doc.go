// Package conv provides overflow-checked integer conversion and arithmetic.
//
// Use cases:
//   - Narrowing caller-supplied offsets to the selected offset width
//   - Computing problem sizes (segment count times segment size) that may
//     exceed the widest offset representation
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
