package fingerprint

import (
	"fmt"
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// SilenceThresholdDb marks frames below this level as silent. The batch
// analyzer measures frames relative to the loudest frame; the streaming
// analyzer compares absolute frame levels in dBFS.
const SilenceThresholdDb = -40.0

// TemporalAnalyzer extracts the 4-D temporal/rhythmic features:
//
//	tempo_bpm           40-200, onset-envelope autocorrelation
//	rhythm_stability    CV→stability on inter-beat intervals (0-1)
//	transient_density   onsets per second / 10 (0-1)
//	silence_ratio       fraction of RMS frames below -40 dB (0-1)
type TemporalAnalyzer struct{}

func (TemporalAnalyzer) Name() string { return "temporal" }

func (TemporalAnalyzer) Defaults() Metrics {
	return Metrics{
		"tempo_bpm":         120.0,
		"rhythm_stability":  0.5,
		"transient_density": 0.5,
		"silence_ratio":     0.1,
	}
}

func (a TemporalAnalyzer) Measure(samples []float64, sampleRate int) (Metrics, error) {
	if len(samples) < dsputil.OnsetFrameLength*2 {
		return nil, fmt.Errorf("%w: too short for onset analysis", types.ErrEmptyBuffer)
	}

	envelope := dsputil.OnsetStrength(samples, sampleRate)
	onsets := dsputil.DetectOnsets(envelope)

	tempo := dsputil.TempoFromOnsetEnvelope(envelope, sampleRate)

	duration := float64(len(samples)) / float64(sampleRate)
	density := metrics.Clip(float64(len(onsets))/math.Max(duration, 0.1)/OnsetDensityMax, 0, 1)

	frameRMS := dsputil.FrameRMS(samples, stftHop, stftFrameLength)

	return Metrics{
		"tempo_bpm":         tempo,
		"rhythm_stability":  rhythmStability(onsets, sampleRate),
		"transient_density": density,
		"silence_ratio":     silenceRatio(frameRMS),
	}, nil
}

// rhythmStability measures beat-interval consistency. Fewer than three
// onsets cannot establish a rhythm and score zero.
func rhythmStability(onsets []int, sampleRate int) float64 {
	if len(onsets) < 3 {
		return 0
	}

	intervals := dsputil.BeatIntervals(onsets, sampleRate)

	mean := metrics.Mean(intervals)
	if mean <= 0 {
		return 0.5
	}

	return metrics.StabilityFromCV(metrics.Std(intervals), mean, 1.0)
}

// silenceRatio is the fraction of frames whose RMS sits below the silence
// threshold relative to the loudest frame.
func silenceRatio(frameRMS []float64) float64 {
	if len(frameRMS) == 0 {
		return 0.1
	}

	var ref float64
	for _, r := range frameRMS {
		if r > ref {
			ref = r
		}
	}

	if ref <= types.Epsilon {
		// All-silence input: every frame is silent.
		return 1
	}

	var silent int

	for _, r := range frameRMS {
		if 20*math.Log10(math.Max(r/ref, types.Epsilon)) < SilenceThresholdDb {
			silent++
		}
	}

	return metrics.Clip(float64(silent)/float64(len(frameRMS)), 0, 1)
}
