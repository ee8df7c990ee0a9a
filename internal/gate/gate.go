package gate

import (
	"math"

	"go.uber.org/zap"

	"github.com/openqlab/gatectl/internal/instrument"
	"github.com/openqlab/gatectl/internal/logging"
)

const (
	// GateCount is the number of gates covered by the deviation check
	GateCount = 6

	// RollbackCount is the number of channels forced back to the pretuned
	// point on a safety violation. The emergency set is wider than the
	// checked set: channels 7 and 8 carry auxiliary gates that must
	// return to the pretuned point with the rest.
	RollbackCount = 8

	// Tolerance is the maximum allowed per-gate deviation (in volts)
	// between the pretuned point and a requested target. A deviation of
	// exactly Tolerance is safe.
	Tolerance = 5e-3
)

// Setter applies gate voltage targets to the instrument with a safety
// check against the pretuned point.
//
// All collaborators are explicit fields; Setter holds no ambient state.
// A Setter assumes exclusive access to its channel set for the duration
// of each call. Callers running concurrent invocations must serialize
// them externally.
type Setter struct {
	// Conn is the instrument connection used for all writes and reads
	Conn instrument.Conn

	// Channels maps gate index to physical channel id. Index i drives
	// gate i+1. Length must be at least RollbackCount.
	Channels []string

	// Reference is the pretuned point: the last known-safe voltage for
	// each gate. Length must be at least RollbackCount.
	Reference []float64

	// Tolerance is the per-gate deviation limit. NewSetter initializes
	// it to the package Tolerance.
	Tolerance float64
}

// NewSetter creates a Setter after validating the channel mapping and
// pretuned point cover the full rollback set.
func NewSetter(conn instrument.Conn, channels []string, reference []float64) (*Setter, error) {
	if conn == nil {
		return nil, newValidationError("instrument connection is nil")
	}
	if len(channels) < RollbackCount {
		return nil, newValidationErrorf("channel mapping has %d entries, need at least %d", len(channels), RollbackCount)
	}
	if len(reference) < RollbackCount {
		return nil, newValidationErrorf("pretuned point has %d entries, need at least %d", len(reference), RollbackCount)
	}

	return &Setter{
		Conn:      conn,
		Channels:  channels,
		Reference: reference,
		Tolerance: Tolerance,
	}, nil
}

// SetChecked moves the first GateCount gates to target.
//
// The target is compared gate by gate against the pretuned point before
// anything is written. If any deviation exceeds the tolerance, all
// RollbackCount channels are forced back to the pretuned point and a
// *SafetyError is returned; no target value reaches the hardware. If the
// target is safe, it is committed in gate order and the realized voltages
// are read back and returned. Callers must treat the returned values, not
// the target, as ground truth: DAC quantization means the committed
// voltage can differ from the requested one.
//
// Hardware failures propagate immediately as instrument errors. A failure
// mid-commit leaves the channels in a mixed state; SetChecked makes no
// atomicity guarantee across the commit writes and performs no retries.
func (s *Setter) SetChecked(target []float64) ([]float64, error) {
	if err := s.validateTarget(target); err != nil {
		return nil, err
	}

	if gate, deviation, ok := firstDeviation(s.Reference, target, s.Tolerance); !ok {
		return nil, s.rollback(gate, deviation)
	}

	for i := 0; i < GateCount; i++ {
		if err := s.Conn.SetChannel(s.Channels[i], target[i]); err != nil {
			return nil, err
		}
	}

	actual, err := s.Conn.ReadChannels(s.Channels[:GateCount])
	if err != nil {
		return nil, err
	}
	if len(actual) < GateCount {
		return nil, newValidationErrorf("readback returned %d values, expected %d", len(actual), GateCount)
	}

	logging.Info("Gate voltages committed",
		zap.Float64s("target", target[:GateCount]),
		zap.Float64s("actual", actual[:GateCount]),
	)

	return actual[:GateCount:GateCount], nil
}

// validateTarget checks call preconditions before any hardware access
func (s *Setter) validateTarget(target []float64) error {
	if len(target) != GateCount {
		return newValidationErrorf("target has %d values, expected %d", len(target), GateCount)
	}
	for i, v := range target {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newValidationErrorf("target value for gate %d is not finite", i+1)
		}
	}
	if len(s.Channels) < RollbackCount || len(s.Reference) < RollbackCount {
		return newValidationErrorf("channel mapping and pretuned point must cover %d channels", RollbackCount)
	}
	return nil
}

// rollback forces the full rollback channel set back to the pretuned
// point, then reports the safety violation.
//
// Every rollback write is issued even if an earlier one fails, so as many
// channels as possible return to the pretuned point. The first write
// failure, if any, is carried on the returned *SafetyError: in that case
// the rollback is incomplete and the hardware may be in a mixed state.
func (s *Setter) rollback(gate int, deviation float64) error {
	logging.Warn("Safety violation, rolling back to pretuned point",
		zap.Int("gate", gate+1),
		zap.Float64("deviation", deviation),
		zap.Float64("tolerance", s.Tolerance),
	)

	var writeErr error
	for i := 0; i < RollbackCount; i++ {
		if err := s.Conn.SetChannel(s.Channels[i], s.Reference[i]); err != nil {
			if writeErr == nil {
				writeErr = err
			}
			logging.Error("Rollback write failed",
				zap.String("channel", s.Channels[i]),
				zap.Error(err),
			)
		}
	}

	return &SafetyError{
		Gate:        gate + 1,
		Deviation:   deviation,
		Tolerance:   s.Tolerance,
		RollbackErr: writeErr,
	}
}

// firstDeviation scans the checked gates in order and reports the first
// one whose deviation exceeds the tolerance. It returns ok=true when the
// whole target is safe. No side effects.
func firstDeviation(reference, target []float64, tolerance float64) (gate int, deviation float64, ok bool) {
	for i := 0; i < GateCount; i++ {
		d := math.Abs(reference[i] - target[i])
		if d > tolerance {
			return i, d, false
		}
	}
	return 0, 0, true
}

// MaxDeviation returns the largest absolute deviation between the checked
// gates of reference and target. It is a diagnostic helper and performs no
// safety decision.
func MaxDeviation(reference, target []float64) float64 {
	n := GateCount
	if len(reference) < n {
		n = len(reference)
	}
	if len(target) < n {
		n = len(target)
	}
	max := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(reference[i] - target[i]); d > max {
			max = d
		}
	}
	return max
}
