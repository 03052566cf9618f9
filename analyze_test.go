package auralis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSR = 44100

func sineAt(freq, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testSR)
	}

	return out
}

func mix(parts ...[]float64) []float64 {
	out := make([]float64, len(parts[0]))

	for _, p := range parts {
		for i := range p {
			out[i] += p[i]
		}
	}

	return out
}

// loudnessWarBuffer approximates a brickwalled bass-heavy master: dense
// bass and mid tones with sparse transient spikes lifting the crest factor
// to ~11 dB and a bass/mid ratio around +4 dB.
func loudnessWarBuffer() *Buffer {
	n := testSR * 2
	samples := mix(sineAt(100, 0.283, n), sineAt(800, 0.179, n))

	for i := 0; i < n; i += testSR / 10 {
		samples[i] = 0.85
	}

	return NewMono(samples, testSR)
}

// midDominantBuffer approximates the classic-rock signature: mid energy
// around 67% with a -3.4 dB bass/mid ratio.
func midDominantBuffer() *Buffer {
	n := testSR * 2

	return NewMono(mix(
		sineAt(100, 0.287, n),
		sineAt(800, 0.424, n),
		sineAt(6000, 0.0141, n),
	), testSR)
}

func TestAnalyzeSilenceReturnsSafeDefault(t *testing.T) {
	profile := AnalyzeContent(NewMono(make([]float64, testSR), testSR))

	assert.Equal(t, "unknown", profile.ProfileMatch)
	assert.LessOrEqual(t, profile.Confidence, 0.3)

	// The default sits at the neutral point: a downstream target
	// generator proposes essentially no processing.
	assert.InDelta(t, 16, profile.Dynamic.CrestFactorDb, 1e-9)
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	profile := AnalyzeContent(NewMono(nil, testSR))
	assert.Equal(t, "unknown", profile.ProfileMatch)
}

func TestAnalyzeLoudnessWarClassification(t *testing.T) {
	profile := AnalyzeContent(loudnessWarBuffer())

	assert.Less(t, profile.Dynamic.CrestFactorDb, 12.0)
	assert.Greater(t, profile.Spectral.BassToMidDb, 3.5)

	assert.Equal(t, "joe_satriani", profile.ProfileMatch)
	assert.GreaterOrEqual(t, profile.Confidence, 0.8)
	assert.Equal(t, "heavily compressed (loudness war)", profile.Characteristics.DynamicRange)
}

func TestAnalyzeMidDominantClassification(t *testing.T) {
	profile := AnalyzeContent(midDominantBuffer())

	assert.Greater(t, profile.Spectral.MidPct, 50.0)
	assert.Less(t, profile.Spectral.BassToMidDb, 0.0)

	assert.Equal(t, "acdc_highway_to_hell", profile.ProfileMatch)
	assert.InDelta(t, 0.95, profile.Confidence, 1e-9)
	assert.Equal(t, "mid-dominant (classic rock style)", profile.Characteristics.FrequencyBalance)
}

func TestAnalyzeSpectralPercentagesSum(t *testing.T) {
	profile := AnalyzeContent(loudnessWarBuffer())

	sum := profile.Spectral.BassPct + profile.Spectral.MidPct + profile.Spectral.HighPct
	assert.InDelta(t, 100, sum, 1e-6)
}

func TestAnalyzeStereoCollapsesToMono(t *testing.T) {
	n := testSR

	stereo := &Buffer{
		Samples:    [][]float64{sineAt(440, 0.5, n), sineAt(440, 0.5, n)},
		SampleRate: testSR,
	}

	profile := AnalyzeContent(stereo)
	assert.NotEqual(t, "unknown", profile.ProfileMatch)
	assert.False(t, math.IsNaN(profile.Spectral.SpectralCentroid))
}

func TestAnalyzeDynamicDescriptor(t *testing.T) {
	// A pure sine has a crest factor of ~3 dB.
	profile := AnalyzeContent(NewMono(sineAt(440, 0.5, testSR*2), testSR))

	require.NotEqual(t, "unknown", profile.ProfileMatch)
	assert.InDelta(t, 3.01, profile.Dynamic.CrestFactorDb, 0.1)
	assert.InDelta(t, profile.Dynamic.RmsDb+3, profile.Dynamic.EstimatedLufs, 1e-9)
	assert.InDelta(t, profile.Dynamic.PeakDb-profile.Dynamic.RmsDb, profile.Dynamic.CrestFactorDb, 1e-9)
}

func TestFingerprintPublicSurface(t *testing.T) {
	order := FingerprintOrder()
	require.Len(t, order, FingerprintDimensions)
	assert.Equal(t, "dynamic_range_variation", order[0])
	assert.Equal(t, "loudness_norm", order[FingerprintDimensions-1])

	v := ExtractFingerprint(NewMono(sineAt(440, 0.5, testSR/2), testSR))
	flat := FlattenFingerprint(v.Values)
	require.Len(t, flat, FingerprintDimensions)

	for _, value := range flat {
		assert.False(t, math.IsNaN(value) || math.IsInf(value, 0))
	}
}
