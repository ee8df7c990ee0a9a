package config

import (
	"strings"
	"testing"
)

func validDevice() *Device {
	return &Device{
		Label:    "GaAs double dot, cooldown 12",
		Endpoint: "ws://dac-rack2.local:7768/channels",
		Channels: []string{"SB1", "SB2", "SB3", "SB4", "T", "N", "SD1", "SD2"},
		Pretuned: []float64{-0.5, -0.45, -0.72, -0.3, -0.1, -0.6, -0.3, -0.25},
	}
}

func TestDevice_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Device)
		wantErr string
	}{
		{"valid", func(d *Device) {}, ""},
		{"empty endpoint", func(d *Device) { d.Endpoint = "" }, "endpoint"},
		{"short mapping", func(d *Device) { d.Channels = d.Channels[:6] }, "channel mapping"},
		{"short pretuned", func(d *Device) { d.Pretuned = d.Pretuned[:6] }, "pretuned point"},
		{"empty channel id", func(d *Device) { d.Channels[2] = "" }, "entry 3"},
		{"duplicate channel", func(d *Device) { d.Channels[5] = "SB1" }, "more than one gate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := validDevice()
			tt.mutate(dev)

			err := dev.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDevice_AdoptPretuned(t *testing.T) {
	dev := validDevice()
	original7 := dev.Pretuned[6]
	original8 := dev.Pretuned[7]

	actual := []float64{-0.501, -0.449, -0.721, -0.299, -0.101, -0.599}
	if err := dev.AdoptPretuned(actual); err != nil {
		t.Fatalf("AdoptPretuned failed: %v", err)
	}

	for i, v := range actual {
		if dev.Pretuned[i] != v {
			t.Errorf("Pretuned[%d] is %g, expected adopted %g", i, dev.Pretuned[i], v)
		}
	}

	// Auxiliary rollback channels keep their values
	if dev.Pretuned[6] != original7 || dev.Pretuned[7] != original8 {
		t.Error("Auxiliary channel pretuned values were overwritten")
	}

	if dev.PretunedAt.IsZero() {
		t.Error("Expected PretunedAt to be stamped")
	}

	// Wrong length is rejected
	if err := dev.AdoptPretuned([]float64{0, 0}); err == nil {
		t.Error("Expected error for short readback")
	}
}

func TestRegistry_Device(t *testing.T) {
	reg := NewRegistry()
	reg.Devices["dot-a"] = validDevice()

	// Explicit lookup
	if _, err := reg.Device("dot-a"); err != nil {
		t.Fatalf("Device lookup failed: %v", err)
	}

	// Unknown device
	if _, err := reg.Device("dot-b"); err == nil {
		t.Error("Expected error for unknown device")
	}

	// No name, no default
	if _, err := reg.Device(""); err == nil {
		t.Error("Expected error with no default device")
	}

	// Default device fallback
	reg.Preferences.DefaultDevice = "dot-a"
	if _, err := reg.Device(""); err != nil {
		t.Errorf("Default device lookup failed: %v", err)
	}

	// Invalid definitions are rejected at lookup
	reg.Devices["broken"] = &Device{Endpoint: "ws://x", Channels: []string{"a"}, Pretuned: []float64{0}}
	if _, err := reg.Device("broken"); err == nil {
		t.Error("Expected error for invalid device definition")
	}
}

func TestParseRegistry(t *testing.T) {
	yaml := `
version: 1
devices:
  dot-a:
    label: test sample
    endpoint: ws://dac.local:7768/channels
    channels: [SB1, SB2, SB3, SB4, T, N, SD1, SD2]
    pretuned: [-0.5, -0.45, -0.72, -0.3, -0.1, -0.6, -0.3, -0.25]
preferences:
  default_device: dot-a
  confirm_moves: true
`
	reg, err := ParseRegistry([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseRegistry failed: %v", err)
	}

	dev, err := reg.Device("")
	if err != nil {
		t.Fatalf("Default device lookup failed: %v", err)
	}
	if dev.Channels[4] != "T" {
		t.Errorf("Channel 5 is %q, expected T", dev.Channels[4])
	}
	if dev.Pretuned[7] != -0.25 {
		t.Errorf("Pretuned[7] is %g, expected -0.25", dev.Pretuned[7])
	}

	// Unsupported version
	if _, err := ParseRegistry([]byte("version: 2\n")); err == nil {
		t.Error("Expected error for unsupported version")
	}

	// Missing sections are normalized
	reg, err = ParseRegistry([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("ParseRegistry failed for minimal config: %v", err)
	}
	if reg.Devices == nil || reg.Preferences == nil {
		t.Error("Expected missing sections to be initialized")
	}
}
