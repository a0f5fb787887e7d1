// Package agent implements the reduction kernels run by the execution
// backend, one per size class.
//
//   - Large: one full worker group per segment.
//   - Medium: a group is split into sub-groups, one segment per sub-group.
//   - Small: one lane per segment, folded sequentially without a network.
//
// Every kernel reads its segments from the descriptor table of a bound
// storage.Scratch and writes exactly one output per segment.
//
// # Ordering
//
// Without commutativity, lanes own contiguous chunks of each tile and
// partials are merged in lane order at every step, so the result equals the
// left fold of the segment onto the initial value. With commutativity, lanes
// load VectorWidth-element vectors in a grid-strided pattern and the network
// may pair lanes out of order. For floating point this is a relaxed
// precision path.
package agent
