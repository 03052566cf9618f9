package fingerprint

import (
	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
)

// harmonicPitchCapacity bounds the accumulated voiced F0 history.
const harmonicPitchCapacity = 1000

// StreamingHarmonicAnalyzer is the online sibling of HarmonicAnalyzer.
// Audio accumulates into half-second chunks; each full chunk gets a single
// HPSS + YIN + chroma pass whose results fold into running aggregates.
// Between chunks the metrics hold steady.
type StreamingHarmonicAnalyzer struct {
	sampleRate   int
	chunkSamples int

	buffer *SampleRing

	harmonicSum float64
	chromaSum   float64
	pitchValues *SlidingWindow

	frameCount int
	chunkCount int
}

// NewStreamingHarmonicAnalyzer analyzes 0.5 second chunks.
func NewStreamingHarmonicAnalyzer(sampleRate int) *StreamingHarmonicAnalyzer {
	chunkSamples := sampleRate / 2

	return &StreamingHarmonicAnalyzer{
		sampleRate:   sampleRate,
		chunkSamples: chunkSamples,
		buffer:       NewSampleRing(sampleRate * 5),
		pitchValues:  NewSlidingWindow(harmonicPitchCapacity),
	}
}

// Update incorporates one frame and returns the current metrics.
func (a *StreamingHarmonicAnalyzer) Update(frame []float64) Metrics {
	a.frameCount++
	a.buffer.Extend(frame)

	for a.buffer.Len() >= a.chunkSamples {
		chunk := a.buffer.Snapshot()[:a.chunkSamples]
		a.buffer.Drop(a.chunkSamples)

		a.analyzeChunk(chunk)
		a.chunkCount++
	}

	return a.GetMetrics()
}

func (a *StreamingHarmonicAnalyzer) analyzeChunk(chunk []float64) {
	a.harmonicSum += dsputil.HarmonicRatio(chunk)

	for _, f0 := range dsputil.YinPitch(chunk, a.sampleRate) {
		if f0 > 0 {
			a.pitchValues.Append(f0)
		}
	}

	a.chromaSum += dsputil.ChromaEnergy(dsputil.ChromaMatrix(chunk, a.sampleRate))
}

// GetMetrics returns the current estimates without consuming input.
func (a *StreamingHarmonicAnalyzer) GetMetrics() Metrics {
	harmonicRatio := 0.5
	chromaEnergy := 0.5

	if a.chunkCount > 0 {
		harmonicRatio = metrics.Clip(a.harmonicSum/float64(a.chunkCount), 0, 1)
		chromaEnergy = metrics.NormalizeToRange(a.chromaSum/float64(a.chunkCount), ChromaEnergyMax, true)
	}

	stability := 0.5

	if a.pitchValues.Len() >= 10 {
		voiced := a.pitchValues.Values()

		mean := metrics.Mean(voiced)
		if mean > 0 {
			stability = metrics.StabilityFromCV(metrics.Std(voiced), mean, pitchStabilityScale)
		}
	}

	return Metrics{
		"harmonic_ratio":  harmonicRatio,
		"pitch_stability": metrics.Clip(stability, 0, 1),
		"chroma_energy":   chromaEnergy,
	}
}

// GetConfidence saturates after five analyzed chunks.
func (a *StreamingHarmonicAnalyzer) GetConfidence() Metrics {
	const stabilizationChunks = 5

	confidence := metrics.Clip(float64(a.chunkCount)/stabilizationChunks, 0, 1)

	return Metrics{
		"harmonic_ratio":  confidence,
		"pitch_stability": confidence,
		"chroma_energy":   confidence,
	}
}

// Reset restores the constructed state.
func (a *StreamingHarmonicAnalyzer) Reset() {
	a.buffer.Clear()
	a.harmonicSum = 0
	a.chromaSum = 0
	a.pitchValues.Clear()
	a.frameCount = 0
	a.chunkCount = 0
}

// FrameCount returns the number of Update calls since construction/reset.
func (a *StreamingHarmonicAnalyzer) FrameCount() int {
	return a.frameCount
}

// ChunkCount returns the number of analyzed chunks.
func (a *StreamingHarmonicAnalyzer) ChunkCount() int {
	return a.chunkCount
}
