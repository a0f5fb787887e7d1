// Package resource implements the limits a device backend enforces on
// launches.
//
//   - Launch slots: bounds the number of launches enqueued but not yet
//     finished (non-blocking, fail-fast)
//   - Bandwidth: token bucket throttling the bytes a launch may read per
//     second
//
// # Launch Slots
//
// TryAcquireLaunch never blocks. A false return means the device queue is
// exhausted and the launch must be rejected:
//
//	rc := resource.NewController(resource.Config{MaxInFlightLaunches: 64})
//
//	if !rc.TryAcquireLaunch() {
//	    return ErrResourceExhausted
//	}
//	defer rc.ReleaseLaunch()
//
// # Bandwidth
//
//	rc := resource.NewController(resource.Config{
//	    BandwidthBytesPerSec: 8 << 30, // 8GiB/s
//	})
//	if err := rc.AcquireBandwidth(ctx, launchBytes); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
