package fingerprint

import (
	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
)

// StreamingSpectralAnalyzer is the online sibling of SpectralAnalyzer: a
// windowed FFT every hop with running moments of centroid, rolloff and
// flatness. Per hop the work is O(F log F); prior audio is never re-read.
type StreamingSpectralAnalyzer struct {
	sampleRate int

	buffer        *SampleRing
	sinceLastHop  int
	centroidStats RunningStats
	rolloffStats  RunningStats
	flatnessStats RunningStats

	frameCount int
	hopCount   int
}

// NewStreamingSpectralAnalyzer uses the shared 2048/512 STFT framing.
func NewStreamingSpectralAnalyzer(sampleRate int) *StreamingSpectralAnalyzer {
	return &StreamingSpectralAnalyzer{
		sampleRate:   sampleRate,
		buffer:       NewSampleRing(stftFrameLength),
		sinceLastHop: 0,
	}
}

// Update incorporates one frame and returns the current metrics.
func (a *StreamingSpectralAnalyzer) Update(frame []float64) Metrics {
	a.frameCount++
	a.buffer.Extend(frame)
	a.sinceLastHop += len(frame)

	for a.buffer.Len() >= stftFrameLength && a.sinceLastHop >= stftHop {
		a.sinceLastHop -= stftHop

		window := dsputil.HannWindow(stftFrameLength)
		binHz := dsputil.BinHz(a.sampleRate, stftFrameLength)
		mags := dsputil.Magnitudes(a.buffer.Snapshot(), window)

		a.centroidStats.Update(dsputil.SpectralCentroid(mags, binHz))
		a.rolloffStats.Update(dsputil.SpectralRolloff(mags, binHz, 0.85))
		a.flatnessStats.Update(dsputil.SpectralFlatness(mags))

		a.hopCount++
	}

	return a.GetMetrics()
}

// GetMetrics returns the current estimates without consuming input.
func (a *StreamingSpectralAnalyzer) GetMetrics() Metrics {
	if a.hopCount == 0 {
		return Metrics{
			"spectral_centroid": 0.5,
			"spectral_rolloff":  0.5,
			"spectral_flatness": 0.5,
		}
	}

	return Metrics{
		"spectral_centroid": metrics.NormalizeToRange(a.centroidStats.Mean(), SpectralCentroidMax, true),
		"spectral_rolloff":  metrics.NormalizeToRange(a.rolloffStats.Mean(), SpectralRolloffMax, true),
		"spectral_flatness": metrics.Clip(a.flatnessStats.Mean(), 0, 1),
	}
}

// GetConfidence saturates after 5 seconds worth of hops.
func (a *StreamingSpectralAnalyzer) GetConfidence() Metrics {
	stabilization := max(1, a.sampleRate*5/stftHop)
	confidence := metrics.Clip(float64(a.hopCount)/float64(stabilization), 0, 1)

	return Metrics{
		"spectral_centroid": confidence,
		"spectral_rolloff":  confidence,
		"spectral_flatness": confidence,
	}
}

// Reset restores the constructed state.
func (a *StreamingSpectralAnalyzer) Reset() {
	a.buffer.Clear()
	a.sinceLastHop = 0
	a.centroidStats.Reset()
	a.rolloffStats.Reset()
	a.flatnessStats.Reset()
	a.frameCount = 0
	a.hopCount = 0
}

// FrameCount returns the number of Update calls since construction/reset.
func (a *StreamingSpectralAnalyzer) FrameCount() int {
	return a.frameCount
}

// HopCount returns the number of FFT hops performed.
func (a *StreamingSpectralAnalyzer) HopCount() int {
	return a.hopCount
}
