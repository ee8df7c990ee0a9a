package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type advertised by DAC instrument servers
	ServiceType = "_gatectl-dac._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for instrument discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default WebSocket port for instrument servers
	DefaultPort = 7768

	// DefaultPath is the WebSocket path used when a server does not
	// advertise one in its TXT record
	DefaultPath = "/channels"
)

// Scanner handles mDNS instrument discovery
type Scanner struct {
	// Timeout is the maximum time to wait for instrument discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForInstruments discovers all DAC instrument servers on the local network
func (s *Scanner) ScanForInstruments() ([]*Instrument, error) {
	return s.ScanForInstrumentsWithContext(context.Background())
}

// ScanForInstrumentsWithContext discovers instruments with a custom context
func (s *Scanner) ScanForInstrumentsWithContext(ctx context.Context) ([]*Instrument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	instruments := make([]*Instrument, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			instrument := s.parseServiceEntry(entry)
			if instrument != nil {
				instruments = append(instruments, instrument)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	return instruments, nil
}

// WaitForInstrument waits for a specific instrument by instance name.
// Returns the instrument or an error if not found within timeout.
func (s *Scanner) WaitForInstrument(name string) (*Instrument, error) {
	return s.WaitForInstrumentWithContext(context.Background(), name)
}

// WaitForInstrumentWithContext waits for a specific instrument with a custom context
func (s *Scanner) WaitForInstrumentWithContext(ctx context.Context, name string) (*Instrument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Instrument, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			instrument := s.parseServiceEntry(entry)
			if instrument != nil && instrument.Name == name {
				found <- instrument
				cancel()
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case instrument := <-found:
		return instrument, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("instrument %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instrument.
// Returns nil if the entry is unusable (no address).
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Instrument {
	if entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records ("key=value") into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	channels := 0
	if v, ok := metadata["channels"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			channels = n
		}
	}

	return &Instrument{
		Name:         entry.Instance,
		Hostname:     strings.TrimSuffix(entry.HostName, "."),
		IP:           ip,
		Port:         port,
		Path:         metadata["path"],
		Channels:     channels,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForInstruments is a convenience function to scan with a custom timeout
func ScanForInstruments(timeout time.Duration) ([]*Instrument, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForInstruments()
}

// FindInstrument searches for a specific instrument by name with default timeout
func FindInstrument(name string) (*Instrument, error) {
	scanner := NewScanner()
	return scanner.WaitForInstrument(name)
}
