package discovery

import (
	"fmt"
	"time"
)

// Instrument represents a discovered DAC instrument server on the network
type Instrument struct {
	// Name is the advertised instance name (e.g., "dac-rack2")
	Name string

	// Hostname is the mDNS hostname (e.g., "dac-rack2.local")
	Hostname string

	// IP is the IPv4 address
	IP string

	// Port is the WebSocket port
	Port int

	// Path is the WebSocket path advertised in the TXT record
	Path string

	// Channels is the advertised channel count (0 if not advertised)
	Channels int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the instrument was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instrument
func (i *Instrument) String() string {
	return fmt.Sprintf("DAC instrument %s (%s) at %s:%d", i.Name, i.Hostname, i.IP, i.Port)
}

// Endpoint returns the WebSocket URL for the instrument
func (i *Instrument) Endpoint() string {
	path := i.Path
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("ws://%s:%d%s", i.IP, i.Port, path)
}

// GetMetadata retrieves a TXT record value by key, or returns empty string if not found
func (i *Instrument) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
