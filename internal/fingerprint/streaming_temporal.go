package fingerprint

import (
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// StreamingTemporalAnalyzer is the online sibling of TemporalAnalyzer. A
// ring buffer holds the most recent audio; every bufferDuration seconds a
// heavy re-analysis (onset strength, tempo, beat intervals) refreshes the
// estimates, which are held constant between runs. The silence ratio is
// cheap and updates every frame from the RMS history.
type StreamingTemporalAnalyzer struct {
	sampleRate     int
	bufferDuration float64

	ring      *SampleRing
	rmsValues *SlidingWindow

	pendingSamples int
	analysisCount  int

	tempoEstimate     float64
	stabilityEstimate float64
	densityEstimate   float64

	frameCount int
}

// NewStreamingTemporalAnalyzer buffers 2 seconds of audio between
// re-analyses and keeps the RMS of the last 40 frames for the silence ratio
// (10 seconds of 250 ms frames).
func NewStreamingTemporalAnalyzer(sampleRate int) *StreamingTemporalAnalyzer {
	const bufferDuration = 2.0

	hop := sampleRate / 4

	return &StreamingTemporalAnalyzer{
		sampleRate:        sampleRate,
		bufferDuration:    bufferDuration,
		ring:              NewSampleRing(int(float64(sampleRate) * bufferDuration)),
		rmsValues:         NewSlidingWindow(max(1, sampleRate*10/hop)),
		tempoEstimate:     120.0,
		stabilityEstimate: 0.5,
		densityEstimate:   0.5,
	}
}

// Update incorporates one frame and returns the current metrics.
func (a *StreamingTemporalAnalyzer) Update(frame []float64) Metrics {
	a.frameCount++
	a.ring.Extend(frame)
	a.pendingSamples += len(frame)

	rms := dsputil.RMS(frame)
	a.rmsValues.Append(20 * math.Log10(math.Max(rms, types.Epsilon)))

	if float64(a.pendingSamples) >= a.bufferDuration*float64(a.sampleRate) {
		a.performAnalysis()
		a.pendingSamples = 0
	}

	return a.GetMetrics()
}

// performAnalysis runs the bounded heavy pass over the ring snapshot.
func (a *StreamingTemporalAnalyzer) performAnalysis() {
	audio := a.ring.Snapshot()
	if len(audio) < a.sampleRate/4 {
		return
	}

	envelope := dsputil.OnsetStrength(audio, a.sampleRate)
	if len(envelope) == 0 {
		return
	}

	a.analysisCount++
	a.tempoEstimate = dsputil.TempoFromOnsetEnvelope(envelope, a.sampleRate)

	onsets := dsputil.DetectOnsets(envelope)

	if len(onsets) >= 3 {
		intervals := dsputil.BeatIntervals(onsets, a.sampleRate)

		mean := metrics.Mean(intervals)
		if mean > 0 {
			a.stabilityEstimate = metrics.StabilityFromCV(metrics.Std(intervals), mean, 1.0)
		}
	}

	duration := float64(len(audio)) / float64(a.sampleRate)
	density := float64(len(onsets)) / math.Max(duration, 0.1)
	a.densityEstimate = metrics.Clip(density/OnsetDensityMax, 0, 1)
}

// GetMetrics returns the current estimates without consuming input.
func (a *StreamingTemporalAnalyzer) GetMetrics() Metrics {
	return Metrics{
		"tempo_bpm":         a.tempoEstimate,
		"rhythm_stability":  a.stabilityEstimate,
		"transient_density": a.densityEstimate,
		"silence_ratio":     a.silenceRatio(),
	}
}

func (a *StreamingTemporalAnalyzer) silenceRatio() float64 {
	values := a.rmsValues.Values()
	if len(values) == 0 {
		return 0.1
	}

	var silent int

	for _, db := range values {
		if db < SilenceThresholdDb {
			silent++
		}
	}

	return metrics.Clip(float64(silent)/float64(len(values)), 0, 1)
}

// GetConfidence: the beat-driven metrics need several heavy analyses to
// stabilize; the silence ratio is trustworthy much sooner.
func (a *StreamingTemporalAnalyzer) GetConfidence() Metrics {
	const stabilizationAnalyses = 5

	analysisConfidence := metrics.Clip(float64(a.analysisCount)/stabilizationAnalyses, 0, 1)
	silenceConfidence := metrics.Clip(float64(a.rmsValues.Len())/100, 0, 1)

	return Metrics{
		"tempo_bpm":         analysisConfidence,
		"rhythm_stability":  analysisConfidence,
		"transient_density": analysisConfidence,
		"silence_ratio":     silenceConfidence,
	}
}

// Reset restores the constructed state.
func (a *StreamingTemporalAnalyzer) Reset() {
	a.ring.Clear()
	a.rmsValues.Clear()
	a.pendingSamples = 0
	a.analysisCount = 0
	a.tempoEstimate = 120.0
	a.stabilityEstimate = 0.5
	a.densityEstimate = 0.5
	a.frameCount = 0
}

// FrameCount returns the number of Update calls since construction/reset.
func (a *StreamingTemporalAnalyzer) FrameCount() int {
	return a.frameCount
}

// AnalysisCount returns the number of heavy re-analyses performed.
func (a *StreamingTemporalAnalyzer) AnalysisCount() int {
	return a.analysisCount
}
