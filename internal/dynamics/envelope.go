package dynamics

import (
	"fmt"
	"math"
)

// vectorizedThreshold: buffers at least this long take the preallocated
// block path in ProcessBuffer.
const vectorizedThreshold = 4096

// EnvelopeFollower is a one-pole attack/release smoother. The update rule
// is env = input + (env - input) * coeff, with the attack coefficient when
// the input rises above the envelope and the release coefficient otherwise.
// State persists across calls; ownership is exclusive to one stage.
type EnvelopeFollower struct {
	sampleRate   int
	attackCoeff  float64
	releaseCoeff float64
	envelope     float64
}

// NewEnvelopeFollower derives the coefficients once from the sample rate
// and time constants: coeff = exp(-1 / (ms/1000 * rate)).
func NewEnvelopeFollower(sampleRate int, attackMs, releaseMs float64) (*EnvelopeFollower, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if attackMs <= 0 || releaseMs <= 0 {
		return nil, fmt.Errorf("%w: attack %.2f ms, release %.2f ms", ErrInvalidTimeConstant, attackMs, releaseMs)
	}

	return &EnvelopeFollower{
		sampleRate:   sampleRate,
		attackCoeff:  math.Exp(-1.0 / (attackMs * 0.001 * float64(sampleRate))),
		releaseCoeff: math.Exp(-1.0 / (releaseMs * 0.001 * float64(sampleRate))),
	}, nil
}

// Process advances the envelope by one input level.
func (e *EnvelopeFollower) Process(input float64) float64 {
	coeff := e.releaseCoeff
	if input > e.envelope {
		coeff = e.attackCoeff
	}

	e.envelope = input + (e.envelope-input)*coeff

	return e.envelope
}

// ProcessBuffer smooths a whole buffer, preserving cross-call state. Long
// buffers take a block path that writes into one preallocated slice; both
// paths apply the identical recurrence and produce identical output.
func (e *EnvelopeFollower) ProcessBuffer(inputs []float64) []float64 {
	if len(inputs) >= vectorizedThreshold {
		return e.processBufferBlock(inputs)
	}

	out := make([]float64, len(inputs))

	for i, level := range inputs {
		out[i] = e.Process(level)
	}

	return out
}

// processBufferBlock is the batch path: the recurrence is inherently
// serial, but hoisting the coefficients and envelope into locals keeps the
// loop free of any per-sample indirection.
func (e *EnvelopeFollower) processBufferBlock(inputs []float64) []float64 {
	out := make([]float64, len(inputs))

	env := e.envelope
	attack := e.attackCoeff
	release := e.releaseCoeff

	for i, input := range inputs {
		coeff := release
		if input > env {
			coeff = attack
		}

		env = input + (env-input)*coeff
		out[i] = env
	}

	e.envelope = env

	return out
}

// Envelope returns the current envelope value.
func (e *EnvelopeFollower) Envelope() float64 {
	return e.envelope
}

// Reset clears the envelope to zero.
func (e *EnvelopeFollower) Reset() {
	e.envelope = 0
}
