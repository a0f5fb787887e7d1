// Package segment describes how the input is cut into segments and selects
// the offset width used to index it.
//
// Three sources are supported:
//
//   - Fixed: Count segments of Size elements each, back to back
//   - Pairs: independent begin and end offset arrays
//   - Contiguous: one offsets array, segment i spans [Offsets[i], Offsets[i+1])
package segment
