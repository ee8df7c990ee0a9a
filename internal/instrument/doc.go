// Package instrument provides access to the DAC voltage source that
// drives the device's gate electrodes.
//
// The package defines the Conn interface consumed by the rest of gatectl
// and a WebSocket client implementation for DAC instrument servers. All
// operations are blocking: a set command returns only once the instrument
// has acknowledged that the output has settled, and a batched read returns
// the realized voltage of each requested channel in request order.
//
// # Usage Example
//
//	conn, err := instrument.Dial("ws://dac-rack2.local:7768/channels")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	if err := conn.SetChannel("SB1", -0.412); err != nil {
//	    log.Fatal(err)
//	}
//
//	values, err := conn.ReadChannels([]string{"SB1", "SB2"})
//
// # Error Handling
//
// All failures surface as *Error with a category (network, timeout,
// protocol, remote, validation). The package performs no retries; callers
// that need retry semantics must provide their own, and the safety-checked
// commit path in package gate deliberately does not.
package instrument
