package fingerprint

import (
	"fmt"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Pitch stability is more sensitive than rhythm; a few cents of drift
// matter.
const pitchStabilityScale = 10.0

// HarmonicAnalyzer extracts the 3-D harmonic features:
//
//	harmonic_ratio    harmonic vs. percussive energy split (0-1)
//	pitch_stability   CV→stability over voiced F0 values, scale 10 (0-1)
//	chroma_energy     mean chroma energy normalized against 0.4 (0-1)
type HarmonicAnalyzer struct{}

func (HarmonicAnalyzer) Name() string { return "harmonic" }

func (HarmonicAnalyzer) Defaults() Metrics {
	return Metrics{
		"harmonic_ratio":  0.5,
		"pitch_stability": 0.5,
		"chroma_energy":   0.5,
	}
}

func (a HarmonicAnalyzer) Measure(samples []float64, sampleRate int) (Metrics, error) {
	if len(samples) < 2048 {
		return nil, fmt.Errorf("%w: too short for harmonic analysis", types.ErrEmptyBuffer)
	}

	f0 := dsputil.YinPitch(samples, sampleRate)

	voiced := make([]float64, 0, len(f0))

	for _, v := range f0 {
		if v > 0 {
			voiced = append(voiced, v)
		}
	}

	chroma := dsputil.ChromaMatrix(samples, sampleRate)

	return Metrics{
		"harmonic_ratio":  dsputil.HarmonicRatio(samples),
		"pitch_stability": pitchStability(voiced),
		"chroma_energy":   metrics.NormalizeToRange(dsputil.ChromaEnergy(chroma), ChromaEnergyMax, true),
	}, nil
}

func pitchStability(voiced []float64) float64 {
	if len(voiced) < 2 {
		return 0.5
	}

	mean := metrics.Mean(voiced)
	if mean <= 0 {
		return 0.5
	}

	return metrics.StabilityFromCV(metrics.Std(voiced), mean, pitchStabilityScale)
}
