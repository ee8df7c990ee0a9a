package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact phrase", "I AGREE\n", true},
		{"phrase with surrounding whitespace", "  I AGREE  \n", true},
		{"wrong phrase", "yes\n", false},
		{"lowercase", "i agree\n", false},
		{"empty line", "\n", false},
		{"closed input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, "GATE VOLTAGE MOVE", []string{"Gate 1 moves by 4.2 mV"})
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "GATE VOLTAGE MOVE") {
				t.Error("Expected title in rendered output")
			}
			if !strings.Contains(out.String(), "Gate 1 moves by 4.2 mV") {
				t.Error("Expected warning in rendered output")
			}
		})
	}
}

func TestFormatMovePlan(t *testing.T) {
	channels := []string{"SB1", "SB2", "SB3", "SB4", "T", "N"}
	reference := []float64{0, 0, 0, 0, 0, 0}

	safeTarget := []float64{0.001, 0, 0, 0, 0, 0}
	plan, unsafe := FormatMovePlan(channels, reference, safeTarget, 5e-3)
	if unsafe {
		t.Error("Expected safe plan for 1 mV move")
	}
	if !strings.Contains(plan, "SB1") {
		t.Error("Expected channel id in plan")
	}

	unsafeTarget := []float64{0.01, 0, 0, 0, 0, 0}
	plan, unsafe = FormatMovePlan(channels, reference, unsafeTarget, 5e-3)
	if !unsafe {
		t.Error("Expected unsafe plan for 10 mV move")
	}
	if !strings.Contains(plan, "exceeds tolerance") {
		t.Error("Expected tolerance marker in plan")
	}
}

func TestFormatCommitResult(t *testing.T) {
	channels := []string{"SB1", "SB2", "SB3", "SB4", "T", "N"}
	target := []float64{0.001, 0, 0, 0, 0, 0}
	actual := []float64{0.00101, 0, 0, 0, 0, 0}

	out := FormatCommitResult(channels, target, actual)
	if !strings.Contains(out, "Move committed") {
		t.Error("Expected success banner")
	}
	if !strings.Contains(out, "ground truth") {
		t.Error("Expected readback note")
	}
}
