package auralis

import (
	"errors"
	"fmt"
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/parallel"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

var ErrInvalidOverlap = errors.New("overlap must be in [0, 1)")

// SpectrumSettings configures the batch spectrum analyzer.
type SpectrumSettings struct {
	FFTSize            int
	WindowType         dsputil.WindowType
	Overlap            float64 // fraction of the FFT size, [0, 1)
	SampleRate         int
	FrequencyBands     int
	FrequencyWeighting dsputil.FrequencyWeighting
	SmoothingFactor    float64
	MinFrequency       float64
	MaxFrequency       float64
	Pool               parallel.Config
}

// DefaultSpectrumSettings mirrors the conventional analysis setup: 4096
// FFT, Hann window, 75% overlap, 64 log bands, A-weighting.
func DefaultSpectrumSettings(sampleRate int) SpectrumSettings {
	return SpectrumSettings{
		FFTSize:            4096,
		WindowType:         dsputil.WindowHann,
		Overlap:            0.75,
		SampleRate:         sampleRate,
		FrequencyBands:     64,
		FrequencyWeighting: dsputil.WeightingA,
		SmoothingFactor:    0.8,
		MinFrequency:       20,
		MaxFrequency:       20000,
		Pool:               parallel.DefaultConfig(),
	}
}

// Validate rejects invalid enumerations and ranges at construction.
func (s SpectrumSettings) Validate() error {
	if _, err := dsputil.ParseWindowType(string(s.WindowType)); err != nil {
		return err
	}

	switch s.FrequencyWeighting {
	case dsputil.WeightingA, dsputil.WeightingC, dsputil.WeightingZ, "":
	default:
		return fmt.Errorf("unknown frequency weighting %q (valid: A, C, Z)", s.FrequencyWeighting)
	}

	if s.Overlap < 0 || s.Overlap >= 1 {
		return fmt.Errorf("%w: %.2f", ErrInvalidOverlap, s.Overlap)
	}

	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSampleRate, s.SampleRate)
	}

	return nil
}

// SpectrumResult is the aggregated spectrum analysis of a buffer.
type SpectrumResult struct {
	Spectrum         []float64 // dB per band, weighted
	FrequencyBins    []float64 // band centers, Hz
	PeakFrequency    float64
	SpectralCentroid float64
	SpectralRolloff  float64
	SpectralSpread   float64
	SpectralFlatness float64
	ChunksAnalyzed   int
}

// SpectrumAnalyzer computes band spectra over whole buffers, fanning the
// windowed FFTs out over the worker pool.
type SpectrumAnalyzer struct {
	settings SpectrumSettings
	bins     []float64
	weights  []float64

	previous []float64 // smoothing state across Analyze calls
}

// NewSpectrumAnalyzer validates the settings and precomputes the band
// table and weighting curve.
func NewSpectrumAnalyzer(settings SpectrumSettings) (*SpectrumAnalyzer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	bins := dsputil.LogFrequencyBins(settings.MinFrequency, settings.MaxFrequency, settings.FrequencyBands)

	return &SpectrumAnalyzer{
		settings: settings,
		bins:     bins,
		weights:  dsputil.WeightingCurve(bins, settings.FrequencyWeighting),
	}, nil
}

// Analyze computes the aggregated, weighted band spectrum of the buffer.
func (a *SpectrumAnalyzer) Analyze(buffer *Buffer) (*SpectrumResult, error) {
	mono := buffer.Mono()

	if len(mono) < a.settings.FFTSize {
		return nil, fmt.Errorf("%w: need at least %d samples", types.ErrEmptyBuffer, a.settings.FFTSize)
	}

	hop := int(float64(a.settings.FFTSize) * (1 - a.settings.Overlap))
	if hop < 1 {
		hop = 1
	}

	processor := parallel.NewFFTProcessor(a.settings.Pool)
	spectra := processor.WindowedFFT(mono, a.settings.FFTSize, hop)

	if len(spectra) == 0 {
		return nil, fmt.Errorf("%w: no analysis windows", types.ErrEmptyBuffer)
	}

	// Average magnitude spectrum across windows.
	avg := make([]float64, len(spectra[0]))

	for _, mags := range spectra {
		for i, m := range mags {
			avg[i] += m
		}
	}

	for i := range avg {
		avg[i] /= float64(len(spectra))
	}

	binHz := dsputil.BinHz(a.settings.SampleRate, a.settings.FFTSize)

	spectrum := dsputil.MapToBands(avg, binHz, a.bins)
	for i := range spectrum {
		spectrum[i] += a.weights[i]
	}

	spectrum = dsputil.SmoothSpectrum(spectrum, a.previous, a.settings.SmoothingFactor)
	a.previous = spectrum

	peakFreq := a.bins[0]
	peakLevel := math.Inf(-1)

	for i, level := range spectrum {
		if level > peakLevel {
			peakLevel = level
			peakFreq = a.bins[i]
		}
	}

	centroid := dsputil.SpectralCentroid(avg, binHz)

	return &SpectrumResult{
		Spectrum:         spectrum,
		FrequencyBins:    a.bins,
		PeakFrequency:    peakFreq,
		SpectralCentroid: centroid,
		SpectralRolloff:  dsputil.SpectralRolloff(avg, binHz, 0.85),
		SpectralSpread:   dsputil.SpectralSpread(avg, binHz, centroid),
		SpectralFlatness: dsputil.SpectralFlatness(avg),
		ChunksAnalyzed:   len(spectra),
	}, nil
}

// Reset clears the smoothing state.
func (a *SpectrumAnalyzer) Reset() {
	a.previous = nil
}
