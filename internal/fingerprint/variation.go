package fingerprint

import (
	"fmt"
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// VariationAnalyzer extracts the 3-D dynamic variation features:
//
//	dynamic_range_variation  how much dynamics change over time (0-1)
//	loudness_variation_std   std deviation of loudness (0-10 dB)
//	peak_consistency         how consistent peaks are (0-1)
//
// The 250 ms-hop RMS and 500 ms-frame peaks are computed once and shared by
// all three features.
type VariationAnalyzer struct{}

func (VariationAnalyzer) Name() string { return "variation" }

func (VariationAnalyzer) Defaults() Metrics {
	return Metrics{
		"dynamic_range_variation": 0.5,
		"loudness_variation_std":  3.0,
		"peak_consistency":        0.7,
	}
}

func (a VariationAnalyzer) Measure(samples []float64, sampleRate int) (Metrics, error) {
	hop := sampleRate / 4
	frameLength := sampleRate / 2

	if len(samples) < frameLength || hop < 1 {
		return nil, fmt.Errorf("%w: need at least %d samples", types.ErrEmptyBuffer, frameLength)
	}

	frameRMS := dsputil.FrameRMS(samples, hop, frameLength)
	framePeaks := dsputil.FramePeaks(samples, hop, frameLength)

	return Metrics{
		"dynamic_range_variation": dynamicRangeVariation(frameRMS, framePeaks),
		"loudness_variation_std":  loudnessVariation(frameRMS),
		"peak_consistency":        peakConsistency(framePeaks),
	}, nil
}

// dynamicRangeVariation is the per-frame crest factor std, normalized
// against a 6 dB typical range.
func dynamicRangeVariation(frameRMS, framePeaks []float64) float64 {
	if len(frameRMS) < 2 {
		return 0.5
	}

	crest := make([]float64, 0, len(frameRMS))

	for i := range frameRMS {
		rms := math.Max(frameRMS[i], types.Epsilon)
		peak := math.Max(framePeaks[i], types.Epsilon)

		db := 20 * math.Log10(peak/rms)
		if !math.IsInf(db, 0) && !math.IsNaN(db) {
			crest = append(crest, db)
		}
	}

	if len(crest) < 2 {
		return 0.5
	}

	return metrics.NormalizeToRange(metrics.Std(crest), 6.0, true)
}

// loudnessVariation is the std of frame RMS in dB relative to the loudest
// frame, clipped to [0,10].
func loudnessVariation(frameRMS []float64) float64 {
	if len(frameRMS) < 1 {
		return 3.0
	}

	var ref float64
	for _, r := range frameRMS {
		if r > ref {
			ref = r
		}
	}

	if ref <= types.Epsilon {
		ref = 1
	}

	db := make([]float64, len(frameRMS))
	for i, r := range frameRMS {
		db[i] = 20 * math.Log10(math.Max(r/ref, types.Epsilon))
	}

	return metrics.Clip(metrics.Std(db), 0, 10)
}

// peakConsistency converts the peak coefficient of variation to a
// stability score.
func peakConsistency(framePeaks []float64) float64 {
	if len(framePeaks) < 2 {
		return 0.5
	}

	mean := metrics.Mean(framePeaks)
	if mean <= 0 {
		return 0.5
	}

	return metrics.StabilityFromCV(metrics.Std(framePeaks), mean, 1.0)
}
