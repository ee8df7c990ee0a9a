// Package discovery provides mDNS-based discovery of DAC instrument servers.
//
// Instrument servers advertise themselves on the local network using the
// "_gatectl-dac._tcp" service type. The TXT record may carry the WebSocket
// path ("path=/channels") and the number of available channels
// ("channels=24").
//
// # Usage Example
//
//	instruments, err := discovery.ScanForInstruments(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, inst := range instruments {
//	    fmt.Printf("Found %s -> %s\n", inst.Name, inst.Endpoint())
//	}
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Instruments must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
