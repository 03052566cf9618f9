// Package dynamics implements the stateful DSP chain: envelope follower,
// adaptive compressor and brick-wall limiter. Every stage preserves the
// shape of its input chunk and carries its state gaplessly across chunks.
package dynamics

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSampleRate    = errors.New("sample rate must be positive")
	ErrInvalidRatio         = errors.New("ratio must be >= 1")
	ErrInvalidTimeConstant  = errors.New("time constants must be positive")
	ErrInvalidDetectionMode = errors.New("unknown detection mode (valid: peak, rms, hybrid)")
)

// DetectionMode selects how the compressor measures input level.
type DetectionMode string

const (
	DetectPeak   DetectionMode = "peak"
	DetectRMS    DetectionMode = "rms"
	DetectHybrid DetectionMode = "hybrid"
)

// ParseDetectionMode validates a mode name. Empty means rms.
func ParseDetectionMode(s string) (DetectionMode, error) {
	switch s {
	case "peak":
		return DetectPeak, nil
	case "rms", "":
		return DetectRMS, nil
	case "hybrid":
		return DetectHybrid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDetectionMode, s)
	}
}

// CompressorSettings configures the adaptive compressor.
type CompressorSettings struct {
	ThresholdDb     float64
	Ratio           float64
	AttackMs        float64
	ReleaseMs       float64
	KneeDb          float64
	MakeupGainDb    float64
	EnableLookahead bool
	LookaheadMs     float64
}

// DefaultCompressorSettings returns the mastering defaults.
func DefaultCompressorSettings() CompressorSettings {
	return CompressorSettings{
		ThresholdDb:     -18.0,
		Ratio:           4.0,
		AttackMs:        10.0,
		ReleaseMs:       100.0,
		KneeDb:          2.0,
		MakeupGainDb:    0.0,
		EnableLookahead: true,
		LookaheadMs:     5.0,
	}
}

// Validate rejects construction-time errors.
func (s CompressorSettings) Validate() error {
	if s.Ratio < 1 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidRatio, s.Ratio)
	}

	if s.AttackMs <= 0 || s.ReleaseMs <= 0 {
		return fmt.Errorf("%w: attack %.2f ms, release %.2f ms", ErrInvalidTimeConstant, s.AttackMs, s.ReleaseMs)
	}

	return nil
}

// LimiterSettings configures the brick-wall limiter.
type LimiterSettings struct {
	ThresholdDb float64 // ceiling, typically -0.1 to -1.0 dBFS
	LookaheadMs float64 // 1-5 ms typical
	ReleaseMs   float64
}

// DefaultLimiterSettings returns the mastering defaults.
func DefaultLimiterSettings() LimiterSettings {
	return LimiterSettings{
		ThresholdDb: -0.5,
		LookaheadMs: 2.0,
		ReleaseMs:   50.0,
	}
}

// Validate rejects construction-time errors.
func (s LimiterSettings) Validate() error {
	if s.ReleaseMs < 0 || s.LookaheadMs < 0 {
		return fmt.Errorf("%w: lookahead %.2f ms, release %.2f ms", ErrInvalidTimeConstant, s.LookaheadMs, s.ReleaseMs)
	}

	return nil
}
