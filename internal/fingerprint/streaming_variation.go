package fingerprint

import (
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// StreamingVariationAnalyzer is the online sibling of VariationAnalyzer.
// Welford statistics carry the reported estimates; sliding windows also keep
// the per-hop RMS and peak values of the last 5 seconds, which the reported
// metrics do not use. Per-frame work is O(frame) with no re-scan of prior
// audio.
type StreamingVariationAnalyzer struct {
	sampleRate   int
	hop          int
	frameLength  int
	sinceLastHop int

	rmsWindow  *SlidingWindow
	peakWindow *SlidingWindow
	rmsStats   RunningStats
	peakStats  RunningStats

	audio *SampleRing

	frameCount int
}

// NewStreamingVariationAnalyzer uses a 250 ms hop, 500 ms frames and a 5 s
// sliding window.
func NewStreamingVariationAnalyzer(sampleRate int) *StreamingVariationAnalyzer {
	hop := sampleRate / 4
	frameLength := sampleRate / 2

	windowFrames := max(1, sampleRate*5/hop)

	return &StreamingVariationAnalyzer{
		sampleRate:  sampleRate,
		hop:         hop,
		frameLength: frameLength,
		rmsWindow:   NewSlidingWindow(windowFrames),
		peakWindow:  NewSlidingWindow(windowFrames),
		audio:       NewSampleRing(frameLength),
	}
}

// Update incorporates one frame and returns the current metrics.
func (a *StreamingVariationAnalyzer) Update(frame []float64) Metrics {
	a.frameCount++
	a.audio.Extend(frame)
	a.sinceLastHop += len(frame)

	if a.audio.Len() >= a.frameLength && a.sinceLastHop >= a.hop {
		a.sinceLastHop = 0
		chunk := a.audio.Snapshot()

		var (
			sum  float64
			peak float64
		)

		for _, s := range chunk {
			sum += s * s

			if v := math.Abs(s); v > peak {
				peak = v
			}
		}

		rms := math.Sqrt(sum / float64(len(chunk)))
		rmsDb := 20 * math.Log10(math.Max(rms, types.Epsilon))

		a.rmsWindow.Append(rmsDb)
		a.peakWindow.Append(peak)
		a.rmsStats.Update(rmsDb)
		a.peakStats.Update(peak)
	}

	return a.GetMetrics()
}

// GetMetrics returns the current estimates without consuming input.
func (a *StreamingVariationAnalyzer) GetMetrics() Metrics {
	drVariation := 0.5
	consistency := 0.5

	if a.peakStats.Count >= 2 {
		mean := a.peakStats.Mean()
		if mean > 0 {
			cv := a.peakStats.Std() / mean
			drVariation = metrics.Clip(cv, 0, 1)
			consistency = metrics.Clip(1-cv, 0, 1)
		}
	}

	return Metrics{
		"dynamic_range_variation": drVariation,
		"loudness_variation_std":  metrics.Clip(a.rmsStats.Std(), 0, 10),
		"peak_consistency":        consistency,
	}
}

// GetConfidence grows with accumulated hops; 5 seconds of audio saturates.
func (a *StreamingVariationAnalyzer) GetConfidence() Metrics {
	stabilization := max(1, a.sampleRate*5/a.hop)
	confidence := metrics.Clip(float64(a.peakStats.Count)/float64(stabilization), 0, 1)

	return Metrics{
		"dynamic_range_variation": confidence,
		"loudness_variation_std":  confidence,
		"peak_consistency":        confidence,
	}
}

// Reset restores the constructed state.
func (a *StreamingVariationAnalyzer) Reset() {
	a.rmsWindow.Clear()
	a.peakWindow.Clear()
	a.rmsStats.Reset()
	a.peakStats.Reset()
	a.audio.Clear()
	a.sinceLastHop = 0
	a.frameCount = 0
}

// FrameCount returns the number of Update calls since construction/reset.
func (a *StreamingVariationAnalyzer) FrameCount() int {
	return a.frameCount
}
