package dsputil

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}

	return out
}

func referenceHann(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	return w
}

func TestGetWindowMatchesReference(t *testing.T) {
	w := GetWindow(WindowHann, 1024)
	ref := referenceHann(1024)

	require.Len(t, w, 1024)

	for i := range w {
		assert.InDelta(t, ref[i], w[i], 1e-15)
	}

	// Cached: second call returns the same backing array.
	again := GetWindow(WindowHann, 1024)
	assert.Equal(t, &w[0], &again[0])
}

func TestGetWindowConcurrentStress(t *testing.T) {
	// Many goroutines requesting the same uncached size must all see the
	// canonical window, never a partially initialized slice.
	const (
		goroutines = 8
		iterations = 10000
		size       = 1777
	)

	ref := referenceHann(size)

	var wg sync.WaitGroup

	errs := make(chan int, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			bad := 0

			for i := 0; i < iterations; i++ {
				w := GetWindow(WindowHann, size)

				for j := range w {
					if w[j] != ref[j] {
						bad++

						break
					}
				}
			}

			errs <- bad
		}()
	}

	wg.Wait()
	close(errs)

	for bad := range errs {
		assert.Zero(t, bad)
	}
}

func TestParseWindowType(t *testing.T) {
	typ, err := ParseWindowType("")
	require.NoError(t, err)
	assert.Equal(t, WindowHann, typ)

	_, err = ParseWindowType("kaiser")
	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestSpectralCentroidOfSine(t *testing.T) {
	const sr = 44100

	window := HannWindow(4096)
	mags := Magnitudes(sine(440, sr, 4096), window)

	centroid := SpectralCentroid(mags, BinHz(sr, 4096))
	assert.InDelta(t, 440, centroid, 120)
}

func TestSpectralCentroidEmptySpectrum(t *testing.T) {
	mags := make([]float64, 100)
	centroid := SpectralCentroid(mags, 10)
	assert.Equal(t, 500.0, centroid)
}

func TestSpectralRolloff(t *testing.T) {
	const sr = 44100

	window := HannWindow(4096)
	mags := Magnitudes(sine(1000, sr, 4096), window)

	rolloff := SpectralRolloff(mags, BinHz(sr, 4096), 0.85)
	assert.InDelta(t, 1000, rolloff, 120)
}

func TestSpectralFlatnessBounds(t *testing.T) {
	// A pure tone is highly peaked; its flatness sits near zero.
	window := HannWindow(4096)
	toneMags := Magnitudes(sine(1000, 44100, 4096), window)
	assert.Less(t, SpectralFlatness(toneMags), 0.2)

	// A flat spectrum scores 1.
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 0.5
	}

	assert.InDelta(t, 1.0, SpectralFlatness(flat), 1e-12)

	assert.Equal(t, 0.0, SpectralFlatness(nil))
}

func TestWeightingCurves(t *testing.T) {
	freqs := LogFrequencyBins(20, 20000, 64)

	for _, weighting := range []FrequencyWeighting{WeightingA, WeightingC} {
		curve := WeightingCurve(freqs, weighting)
		require.Len(t, curve, len(freqs))

		// Normalized: peak at 0 dB, everything else below.
		var peak float64 = math.Inf(-1)
		for _, v := range curve {
			if v > peak {
				peak = v
			}
		}

		assert.InDelta(t, 0.0, peak, 1e-9)
	}

	// Z weighting is flat zero.
	flat := WeightingCurve(freqs, WeightingZ)
	for _, v := range flat {
		assert.Zero(t, v)
	}
}

func TestFramePeaksAndRMS(t *testing.T) {
	samples := []float64{0, 1, 0, -1, 0, 0.5, 0, -0.5}

	peaks := FramePeaks(samples, 4, 4)
	require.Len(t, peaks, 2)
	assert.Equal(t, 1.0, peaks[0])
	assert.Equal(t, 0.5, peaks[1])

	rms := FrameRMS(samples, 4, 4)
	require.Len(t, rms, 2)
	assert.InDelta(t, math.Sqrt(0.5), rms[0], 1e-12)
}

func TestNumFramesShortInput(t *testing.T) {
	assert.Zero(t, NumFrames(100, 200, 50))
	assert.Equal(t, 1, NumFrames(200, 200, 50))
}

func TestYinPitchOnSine(t *testing.T) {
	const sr = 44100

	f0 := YinPitch(sine(440, sr, sr/2), sr)
	require.NotEmpty(t, f0)

	var voiced []float64

	for _, v := range f0 {
		if v > 0 {
			voiced = append(voiced, v)
		}
	}

	require.NotEmpty(t, voiced, "a clean sine must be voiced")

	var sum float64
	for _, v := range voiced {
		sum += v
	}

	assert.InDelta(t, 440, sum/float64(len(voiced)), 15)
}

func TestYinPitchOnSilence(t *testing.T) {
	f0 := YinPitch(make([]float64, 44100/4), 44100)

	for _, v := range f0 {
		assert.Zero(t, v)
	}
}

func TestHarmonicRatioSineVsNoise(t *testing.T) {
	const sr = 44100

	tone := HarmonicRatio(sine(440, sr, sr/2))
	assert.Greater(t, tone, 0.6, "steady tone is mostly harmonic")

	// Deterministic pseudo-noise via a simple LCG.
	noise := make([]float64, sr/2)
	state := uint64(12345)

	for i := range noise {
		state = state*6364136223846793005 + 1442695040888963407
		noise[i] = float64(int64(state>>11))/float64(1<<52) - 1
	}

	assert.Less(t, HarmonicRatio(noise), tone)
}

func TestChromaEnergySine(t *testing.T) {
	const sr = 44100

	chroma := ChromaMatrix(sine(440, sr, sr/2), sr)
	require.Len(t, chroma, 12)

	energy := ChromaEnergy(chroma)
	assert.Greater(t, energy, 0.0)
	assert.LessOrEqual(t, energy, 1.0)

	// A single pitch concentrates in one class: A (440 Hz) is class 9.
	classMeans := make([]float64, 12)
	for pc := range chroma {
		var sum float64
		for _, v := range chroma[pc] {
			sum += v
		}

		classMeans[pc] = sum / float64(len(chroma[pc]))
	}

	best := 0

	for pc, m := range classMeans {
		if m > classMeans[best] {
			best = pc
		}
	}

	assert.Equal(t, 9, best)
}

func TestTempoFromClickTrack(t *testing.T) {
	const sr = 44100

	// 120 BPM click track: a click every 0.5 s.
	n := sr * 4
	samples := make([]float64, n)

	for i := 0; i < n; i += sr / 2 {
		for j := range 64 {
			if i+j < n {
				samples[i+j] = 1.0 - float64(j)/64
			}
		}
	}

	envelope := OnsetStrength(samples, sr)
	require.NotEmpty(t, envelope)

	tempo := TempoFromOnsetEnvelope(envelope, sr)
	// Autocorrelation may land on the beat or a harmonic of it.
	found := false

	for _, candidate := range []float64{120, 60, 240} {
		if math.Abs(tempo-candidate) < 12 {
			found = true
		}
	}

	assert.Truef(t, found, "tempo %.1f not near 120 or a harmonic", tempo)
}

func TestTempoDefaultOnSilence(t *testing.T) {
	envelope := OnsetStrength(make([]float64, 44100), 44100)
	assert.Equal(t, 120.0, TempoFromOnsetEnvelope(envelope, 44100))
}

func TestOnsetDetectOnSilence(t *testing.T) {
	envelope := OnsetStrength(make([]float64, 44100), 44100)
	assert.Empty(t, DetectOnsets(envelope))
}

func TestSmoothSpectrum(t *testing.T) {
	current := []float64{1, 1, 1}
	previous := []float64{0, 0, 0}

	smoothed := SmoothSpectrum(current, previous, 0.8)
	for _, v := range smoothed {
		assert.InDelta(t, 0.2, v, 1e-12)
	}

	assert.Equal(t, current, SmoothSpectrum(current, nil, 0.8))
}

func TestMapToBands(t *testing.T) {
	const sr = 44100

	window := HannWindow(4096)
	mags := Magnitudes(sine(1000, sr, 4096), window)
	bands := LogFrequencyBins(20, 20000, 64)

	spectrum := MapToBands(mags, BinHz(sr, 4096), bands)
	require.Len(t, spectrum, 64)

	// The loudest band should straddle 1 kHz.
	best := 0

	for i, v := range spectrum {
		if v > spectrum[best] {
			best = i
		}
	}

	assert.InDelta(t, 1000, bands[best], 120)
}
