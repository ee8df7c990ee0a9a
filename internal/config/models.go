package config

import (
	"fmt"
	"time"
)

// CheckedGates is the number of gates covered by the safety check
const CheckedGates = 6

// RollbackChannels is the number of channel entries a device definition
// must provide: the checked gates plus the auxiliary channels included in
// an emergency rollback.
const RollbackChannels = 8

// Registry represents the entire gatectl configuration file.
// It stores the device definitions (channel mappings and pretuned points)
// and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device describes one physical sample and the instrument that drives it.
type Device struct {
	// Label is a user-friendly description (e.g., "GaAs double dot, cooldown 12")
	Label string `yaml:"label,omitempty"`

	// Endpoint is the WebSocket URL of the DAC instrument server
	Endpoint string `yaml:"endpoint"`

	// Channels maps gate index to physical channel id, in gate order.
	// The first 6 entries are the checked gates; entries 7 and 8 are the
	// auxiliary channels included in an emergency rollback.
	Channels []string `yaml:"channels"`

	// Pretuned is the pretuned point: the last known-safe voltage for
	// each channel in Channels, in the same order.
	Pretuned []float64 `yaml:"pretuned"`

	// PretunedAt records when the pretuned point was last adopted
	PretunedAt time.Time `yaml:"pretuned_at,omitempty"`

	// LastSeen is the last time the instrument was discovered or reached
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	// DefaultDevice is used when no --device flag is given
	DefaultDevice string `yaml:"default_device,omitempty"`

	// DiscoverTimeout is the mDNS scan timeout in seconds
	DiscoverTimeout int `yaml:"discover_timeout,omitempty"`

	// ConfirmMoves requires the typed confirmation before every checked
	// move. Enabled by default; --yes overrides it per invocation.
	ConfirmMoves bool `yaml:"confirm_moves"`
}

// NewRegistry creates an empty registry with default preferences
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			DiscoverTimeout: 10,
			ConfirmMoves:    true,
		},
	}
}

// Device looks up a device definition by name and validates it
func (r *Registry) Device(name string) (*Device, error) {
	if name == "" && r.Preferences != nil {
		name = r.Preferences.DefaultDevice
	}
	if name == "" {
		return nil, fmt.Errorf("no device specified and no default device configured")
	}

	dev, ok := r.Devices[name]
	if !ok {
		return nil, fmt.Errorf("device %q not found in configuration", name)
	}

	if err := dev.Validate(); err != nil {
		return nil, fmt.Errorf("device %q: %w", name, err)
	}
	return dev, nil
}

// Validate checks that a device definition covers the full rollback set
func (d *Device) Validate() error {
	if d.Endpoint == "" {
		return fmt.Errorf("instrument endpoint is empty")
	}
	if len(d.Channels) < RollbackChannels {
		return fmt.Errorf("channel mapping has %d entries, need at least %d", len(d.Channels), RollbackChannels)
	}
	if len(d.Pretuned) < RollbackChannels {
		return fmt.Errorf("pretuned point has %d entries, need at least %d", len(d.Pretuned), RollbackChannels)
	}
	seen := make(map[string]bool, len(d.Channels))
	for i, ch := range d.Channels {
		if ch == "" {
			return fmt.Errorf("channel entry %d is empty", i+1)
		}
		if seen[ch] {
			return fmt.Errorf("channel %q mapped to more than one gate", ch)
		}
		seen[ch] = true
	}
	return nil
}

// AdoptPretuned replaces the pretuned values of the checked gates with a
// committed readback. The auxiliary rollback channels keep their values:
// the readback only covers the checked gates.
func (d *Device) AdoptPretuned(actual []float64) error {
	if len(actual) != CheckedGates {
		return fmt.Errorf("readback has %d values, expected %d", len(actual), CheckedGates)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	copy(d.Pretuned[:CheckedGates], actual)
	d.PretunedAt = time.Now()
	return nil
}
