// Package fingerprint extracts the 25-dimensional perceptual fingerprint,
// both one-shot over a full buffer and incrementally over a stream.
package fingerprint

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Metrics maps feature names to values. Every analyzer documents the keys
// it emits and their bounds; the set of keys is identical on the success
// and failure paths.
type Metrics map[string]float64

// Clone copies the metric map.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// FeatureAnalyzer is the contract every batch analyzer satisfies: a
// fallible measurement plus a default vector substituted on failure so
// downstream fingerprinting is never interrupted.
type FeatureAnalyzer interface {
	Name() string
	Defaults() Metrics
	Measure(samples []float64, sampleRate int) (Metrics, error)
}

// Analyze runs the analyzer fail-safe: any measurement error yields the
// analyzer's defaults unchanged.
func Analyze(a FeatureAnalyzer, samples []float64, sampleRate int) Metrics {
	m, err := a.Measure(samples, sampleRate)
	if err != nil {
		log.Debug("analysis failed, using defaults", "analyzer", a.Name(), "err", err)

		return a.Defaults().Clone()
	}

	return m
}

// ValidateInput performs explicit input validation: non-empty, finite,
// positive sample rate.
func ValidateInput(samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return types.ErrEmptyBuffer
	}

	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return types.ErrNonFiniteSamples
		}
	}

	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSampleRate, sampleRate)
	}

	return nil
}
