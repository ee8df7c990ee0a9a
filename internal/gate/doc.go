// Package gate implements the safety-checked commit of gate voltage
// targets to the instrument.
//
// Gate electrodes on an electrostatically defined device must never jump
// far from the last known-safe configuration (the "pretuned point") in a
// single step: an excessive jump can irreversibly damage the device. This
// package guards every move with a validate-commit-verify protocol:
//
//  1. Check: each of the 6 checked gates is compared against the pretuned
//     point. Any absolute deviation above the tolerance (5 mV) makes the
//     whole move unsafe.
//  2. Unsafe: the full 8-channel rollback set is forced back to the
//     pretuned point and a *SafetyError is returned. No target value is
//     ever written.
//  3. Safe: the target is written gate by gate in index order (some
//     hardware settles order-dependently), then the realized voltages are
//     read back in a single batched read and returned.
//
// The readback, not the target, is ground truth for subsequent operations:
// DAC quantization and settling mean the committed voltage can differ
// slightly from the requested one.
//
// # Usage Example
//
//	setter, err := gate.NewSetter(conn, device.Channels, device.Pretuned)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	actual, err := setter.SetChecked(target)
//	if gate.IsSafetyViolation(err) {
//	    // hardware is back at the pretuned point; abort the tuning run
//	    log.Fatal(err)
//	}
//
// There are no retries anywhere in this package: instrument failures
// propagate immediately, and a failure mid-commit leaves the channels in
// a mixed state with no automatic recovery.
package gate
