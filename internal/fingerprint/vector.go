package fingerprint

import (
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Dimensions is the size of the full fingerprint vector.
const Dimensions = 25

// Dimension documents one fingerprint entry: its key, bounds and the
// default substituted for non-finite or missing values.
type Dimension struct {
	Key     string
	Min     float64
	Max     float64
	Default float64
}

// VectorOrder is the published fixed ordering of the 25-dimensional
// fingerprint: variation, spectral, temporal, harmonic, stereo, band
// energy, dynamics. Consumers should address entries by key; this table is
// the only sanctioned positional mapping.
var VectorOrder = [Dimensions]Dimension{
	{"dynamic_range_variation", 0, 1, 0.5},
	{"loudness_variation_std", 0, 10, 3.0},
	{"peak_consistency", 0, 1, 0.7},
	{"spectral_centroid", 0, 1, 0.5},
	{"spectral_rolloff", 0, 1, 0.5},
	{"spectral_flatness", 0, 1, 0.5},
	{"tempo_bpm", 40, 200, 120},
	{"rhythm_stability", 0, 1, 0.5},
	{"transient_density", 0, 1, 0.5},
	{"silence_ratio", 0, 1, 0.1},
	{"harmonic_ratio", 0, 1, 0.5},
	{"pitch_stability", 0, 1, 0.5},
	{"chroma_energy", 0, 1, 0.5},
	{"stereo_correlation", 0, 1, 1.0},
	{"stereo_width", 0, 1, 0.0},
	{"side_energy", 0, 1, 0.0},
	{"sub_bass_pct", 0, 1, 0.1},
	{"bass_pct", 0, 1, 0.2},
	{"low_mid_pct", 0, 1, 0.15},
	{"mid_pct", 0, 1, 0.25},
	{"upper_mid_pct", 0, 1, 0.15},
	{"presence_pct", 0, 1, 0.1},
	{"air_pct", 0, 1, 0.05},
	{"crest_factor_norm", 0, 1, 0.5},
	{"loudness_norm", 0, 1, 0.5},
}

// Vector is a complete fingerprint with per-dimension confidences.
type Vector struct {
	Values     Metrics
	Confidence Metrics
}

// Flatten orders the metric map into the fixed 25-entry slice, replacing
// missing or non-finite entries with the dimension default and clamping to
// the declared bounds.
func Flatten(m Metrics) []float64 {
	out := make([]float64, Dimensions)

	for i, dim := range VectorOrder {
		v, ok := m[dim.Key]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			v = dim.Default
		}

		out[i] = metrics.Clip(v, dim.Min, dim.Max)
	}

	return out
}

// Repair clamps every known dimension of the map to its bounds and fills
// defaults for missing or non-finite entries. The result always contains
// exactly the declared keys.
func Repair(m Metrics) Metrics {
	out := make(Metrics, Dimensions)

	for _, dim := range VectorOrder {
		v, ok := m[dim.Key]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			v = dim.Default
		}

		out[dim.Key] = metrics.Clip(v, dim.Min, dim.Max)
	}

	return out
}

// Extract runs every batch analyzer over the buffer and assembles the full
// 25-dimensional fingerprint. Individual analyzer failures degrade to that
// analyzer's defaults; the result is always complete and bounded.
func Extract(buffer *types.Buffer) Vector {
	mono := buffer.Mono()
	sr := buffer.SampleRate

	values := make(Metrics, Dimensions)

	for _, a := range []FeatureAnalyzer{
		VariationAnalyzer{},
		SpectralAnalyzer{},
		TemporalAnalyzer{},
		HarmonicAnalyzer{},
	} {
		for k, v := range Analyze(a, mono, sr) {
			values[k] = v
		}
	}

	for k, v := range StereoFeatures(buffer) {
		values[k] = v
	}

	for k, v := range BandEnergyFeatures(mono, sr) {
		values[k] = v
	}

	// Dynamics summary dimensions.
	rms := dsputil.RMS(mono)
	peak := dsputil.Peak(mono)

	crestDb := 0.0
	lufs := -60.0

	if rms > types.Epsilon && peak > types.Epsilon {
		rmsDb := 20 * math.Log10(rms)
		peakDb := 20 * math.Log10(peak)
		crestDb = peakDb - rmsDb
		lufs = rmsDb + 3
	}

	values["crest_factor_norm"] = metrics.NormalizeToRange(crestDb, 30, true)
	values["loudness_norm"] = metrics.ScaleToRange(lufs, -60, 0, 0, 1)

	repaired := Repair(values)

	confidence := make(Metrics, Dimensions)
	for _, dim := range VectorOrder {
		confidence[dim.Key] = 1.0
	}

	return Vector{Values: repaired, Confidence: confidence}
}
