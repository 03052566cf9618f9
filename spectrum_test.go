package auralis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
)

func TestSpectrumAnalyzerSine(t *testing.T) {
	analyzer, err := NewSpectrumAnalyzer(DefaultSpectrumSettings(testSR))
	require.NoError(t, err)

	// S2: the peak band of a 440 Hz tone lands in [400, 480] Hz.
	result, err := analyzer.Analyze(NewMono(sineAt(440, 0.8, testSR), testSR))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.PeakFrequency, 400.0)
	assert.LessOrEqual(t, result.PeakFrequency, 480.0)

	assert.Len(t, result.Spectrum, 64)
	assert.Len(t, result.FrequencyBins, 64)
	assert.Greater(t, result.ChunksAnalyzed, 0)

	assert.InDelta(t, 440, result.SpectralCentroid, 150)
	assert.Less(t, result.SpectralFlatness, 0.3)
}

func TestSpectrumAnalyzerTooShort(t *testing.T) {
	analyzer, err := NewSpectrumAnalyzer(DefaultSpectrumSettings(testSR))
	require.NoError(t, err)

	_, err = analyzer.Analyze(NewMono(make([]float64, 100), testSR))
	assert.ErrorIs(t, err, ErrEmptyBuffer)
}

func TestSpectrumSettingsValidation(t *testing.T) {
	bad := DefaultSpectrumSettings(testSR)
	bad.Overlap = 1.0

	_, err := NewSpectrumAnalyzer(bad)
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	badWindow := DefaultSpectrumSettings(testSR)
	badWindow.WindowType = "kaiser"

	_, err = NewSpectrumAnalyzer(badWindow)
	assert.ErrorIs(t, err, dsputil.ErrUnknownWindow)

	badWeighting := DefaultSpectrumSettings(testSR)
	badWeighting.FrequencyWeighting = "B"

	_, err = NewSpectrumAnalyzer(badWeighting)
	assert.Error(t, err)

	badRate := DefaultSpectrumSettings(0)
	_, err = NewSpectrumAnalyzer(badRate)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestSpectrumSmoothingAcrossCalls(t *testing.T) {
	settings := DefaultSpectrumSettings(testSR)
	settings.SmoothingFactor = 0.9

	analyzer, err := NewSpectrumAnalyzer(settings)
	require.NoError(t, err)

	tone := NewMono(sineAt(440, 0.8, testSR/2), testSR)

	first, err := analyzer.Analyze(tone)
	require.NoError(t, err)

	// A radically different signal barely moves the smoothed spectrum on
	// the next call.
	second, err := analyzer.Analyze(NewMono(sineAt(5000, 0.8, testSR/2), testSR))
	require.NoError(t, err)

	var drift float64

	for i := range first.Spectrum {
		drift += abs(second.Spectrum[i] - first.Spectrum[i])
	}

	analyzer.Reset()

	third, err := analyzer.Analyze(NewMono(sineAt(5000, 0.8, testSR/2), testSR))
	require.NoError(t, err)

	var jump float64

	for i := range first.Spectrum {
		jump += abs(third.Spectrum[i] - first.Spectrum[i])
	}

	// Without smoothing state the move toward the new spectrum is larger.
	assert.Greater(t, jump, drift)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}

	return x
}
