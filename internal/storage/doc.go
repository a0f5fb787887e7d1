// Package storage plans and binds the scratch buffer of a dispatch.
//
// The engine never allocates scratch memory itself. Plan computes the exact
// byte count for a shape; the caller allocates it; Bind carves the caller's
// buffer into fixed regions:
//
//	┌──────────────┬──────────────────────┬──────────┬──────────┬──────────┐
//	│ align slack  │ header + 4 buckets   │ ids u32  │ begins w │ lengths w│
//	│ < 256 bytes  │ (start, count) each  │ n        │ n        │ n        │
//	└──────────────┴──────────────────────┴──────────┴──────────┴──────────┘
//
// Every region starts on a 256-byte boundary. The descriptor table is
// struct-of-arrays; w is the resolved offset width. Bucket ranges partition
// the table in the order Small, Medium, Large, Empty.
//
// Bind must be called with the same shape Plan was called with. This is a
// usage contract and is not detected.
package storage
