package ui

import (
	"fmt"
	"math"
	"strings"
)

// FormatMovePlan renders the per-gate comparison between the pretuned
// point and a requested target. Gates whose deviation exceeds tolerance
// are marked; the returned unsafe flag is true if any gate is marked.
func FormatMovePlan(channels []string, reference, target []float64, tolerance float64) (string, bool) {
	var sb strings.Builder
	unsafe := false

	sb.WriteString(LabelStyle.Render("Gate  Channel    Pretuned      Target        Delta"))
	sb.WriteString("\n")

	for i := range target {
		delta := target[i] - reference[i]
		line := fmt.Sprintf("  %-4d%-10s%+12.6f  %+12.6f  %+12.6f", i+1, channels[i], reference[i], target[i], delta)

		if math.Abs(delta) > tolerance {
			unsafe = true
			sb.WriteString(ErrorStyle.Render(line + "  " + FailureMarker + " exceeds tolerance"))
		} else {
			sb.WriteString(ValueStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	return sb.String(), unsafe
}

// FormatCommitResult renders the outcome of a committed move: the
// requested target next to the realized readback.
func FormatCommitResult(channels []string, target, actual []float64) string {
	var sb strings.Builder

	sb.WriteString(SuccessStyle.Render(SuccessMarker + " Move committed"))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render("Gate  Channel    Requested     Realized"))
	sb.WriteString("\n")

	for i := range actual {
		line := fmt.Sprintf("  %-4d%-10s%+12.6f  %+12.6f", i+1, channels[i], target[i], actual[i])
		sb.WriteString(ValueStyle.Render(line))
		sb.WriteString("\n")
	}

	sb.WriteString(MutedStyle.Render("  The realized values are ground truth for subsequent moves."))
	sb.WriteString("\n")

	return sb.String()
}

// FormatSafetyStop renders an emergency-stop notice
func FormatSafetyStop(message string) string {
	return ErrorStyle.Render(FailureMarker+" EMERGENCY STOP") + "\n" +
		ValueStyle.Render("  "+message) + "\n"
}
