// Package device provides the parallel execution layer the reduction agents
// run on: a Backend executes launches of worker groups onto ordered Streams.
//
// # Execution Model
//
// A Launch is a grid of Groups, each Group a set of Width cooperating lanes.
// Backends decide how groups map onto hardware. The CPU backend spreads
// groups over a bounded set of goroutines and runs the lanes of one group on
// the same goroutine; the Sequential backend runs everything in order on the
// stream goroutine.
//
// # Streams
//
// Launches submitted to the same Stream execute in submission order.
// Nothing is ordered across streams. Submission never blocks; errors raised
// while a launch executes are recorded on the stream and returned by the next
// Synchronize:
//
//	s := device.NewStream()
//	defer s.Close()
//
//	if err := backend.Launch(s, launch); err != nil {
//	    // rejected on the host: invalid launch or exhausted resources
//	}
//	if err := s.Synchronize(); err != nil {
//	    // failed on the device
//	}
//
// # Architecture Detection
//
// The host architecture generation is derived from CPU features at init
// (golang.org/x/sys/cpu). Set SEGREDUCE_ARCH to force an older generation.
package device
