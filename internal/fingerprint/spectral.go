package fingerprint

import (
	"fmt"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Normalization references for spectral features.
const (
	SpectralCentroidMax = 8000.0
	SpectralRolloffMax  = 10000.0
	ChromaEnergyMax     = 0.4
	OnsetDensityMax     = 10.0
)

const (
	stftFrameLength = 2048
	stftHop         = 512
)

// SpectralAnalyzer extracts the 3-D spectral features, all in [0,1]:
//
//	spectral_centroid   brightness, normalized against 8 kHz
//	spectral_rolloff    85% energy frequency, normalized against 10 kHz
//	spectral_flatness   Wiener entropy
//
// A single STFT is computed once and shared by all three.
type SpectralAnalyzer struct{}

func (SpectralAnalyzer) Name() string { return "spectral" }

func (SpectralAnalyzer) Defaults() Metrics {
	return Metrics{
		"spectral_centroid": 0.5,
		"spectral_rolloff":  0.5,
		"spectral_flatness": 0.5,
	}
}

func (a SpectralAnalyzer) Measure(samples []float64, sampleRate int) (Metrics, error) {
	n := dsputil.NumFrames(len(samples), stftFrameLength, stftHop)
	if n == 0 {
		return nil, fmt.Errorf("%w: need at least %d samples", types.ErrEmptyBuffer, stftFrameLength)
	}

	window := dsputil.HannWindow(stftFrameLength)
	binHz := dsputil.BinHz(sampleRate, stftFrameLength)

	centroids := make([]float64, n)
	rolloffs := make([]float64, n)
	flatness := make([]float64, n)

	for f := range n {
		mags := dsputil.Magnitudes(samples[f*stftHop:f*stftHop+stftFrameLength], window)

		centroids[f] = dsputil.SpectralCentroid(mags, binHz)
		rolloffs[f] = dsputil.SpectralRolloff(mags, binHz, 0.85)
		flatness[f] = dsputil.SpectralFlatness(mags)
	}

	return Metrics{
		"spectral_centroid": metrics.NormalizeToRange(metrics.Mean(centroids), SpectralCentroidMax, true),
		"spectral_rolloff":  metrics.NormalizeToRange(metrics.Mean(rolloffs), SpectralRolloffMax, true),
		"spectral_flatness": metrics.Clip(metrics.Mean(flatness), 0, 1),
	}, nil
}
