package fingerprint

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// StereoFeatures computes the 3-D stereo image features from a buffer:
//
//	stereo_correlation   Pearson L/R correlation mapped to [0,1]
//	stereo_width         side/mid energy ratio (0-1)
//	side_energy          side RMS relative to stereo RMS (0-1)
//
// Mono input yields the degenerate fully-correlated image.
func StereoFeatures(buffer *types.Buffer) Metrics {
	defaults := Metrics{
		"stereo_correlation": 1.0,
		"stereo_width":       0.0,
		"side_energy":        0.0,
	}

	if buffer.Channels() < 2 || buffer.Frames() == 0 {
		return defaults
	}

	left := buffer.Samples[0]
	right := buffer.Samples[1]

	correlation := stat.Correlation(left, right, nil)
	if math.IsNaN(correlation) {
		correlation = 1.0
	}

	var midSum, sideSum, totalSum float64

	for i := range left {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2

		midSum += mid * mid
		sideSum += side * side
		totalSum += left[i]*left[i] + right[i]*right[i]
	}

	n := float64(len(left))
	midRMS := math.Sqrt(midSum / n)
	sideRMS := math.Sqrt(sideSum / n)
	stereoRMS := math.Sqrt(totalSum / (2 * n))

	width := 0.0
	if midRMS+sideRMS > types.Epsilon {
		width = sideRMS / (midRMS + sideRMS) * 2
	}

	sideEnergy := metrics.SafeDivide(sideRMS, stereoRMS, 0)

	return Metrics{
		// Correlation [-1,1] scaled to [0,1] so the vector stays uniform.
		"stereo_correlation": metrics.ScaleToRange(correlation, -1, 1, 0, 1),
		"stereo_width":       metrics.Clip(width, 0, 1),
		"side_energy":        metrics.Clip(sideEnergy, 0, 1),
	}
}

// BandEnergyFeatures computes the 7 standard band energy fractions used by
// the EQ stage, each in [0,1] as a fraction of total band energy:
// sub-bass 20-60, bass 60-250, low-mid 250-500, mid 500-2k, upper-mid
// 2k-4k, presence 4k-6k, air 6k-20k.
func BandEnergyFeatures(samples []float64, sampleRate int) Metrics {
	defaults := Metrics{
		"sub_bass_pct":  0.1,
		"bass_pct":      0.2,
		"low_mid_pct":   0.15,
		"mid_pct":       0.25,
		"upper_mid_pct": 0.15,
		"presence_pct":  0.1,
		"air_pct":       0.05,
	}

	fftSize := 8192
	if len(samples) < fftSize {
		return defaults
	}

	window := dsputil.HannWindow(fftSize)
	binHz := dsputil.BinHz(sampleRate, fftSize)

	// Average a few evenly spaced windows so one quiet stretch does not
	// dominate.
	positions := []int{0, (len(samples) - fftSize) / 2, len(samples) - fftSize}
	energy := make([]float64, fftSize/2+1)

	for _, pos := range positions {
		mags := dsputil.Magnitudes(samples[pos:pos+fftSize], window)
		for i, m := range mags {
			energy[i] += m * m
		}
	}

	edges := []struct {
		key      string
		lo, hi   float64
		fallback float64
	}{
		{"sub_bass_pct", 20, 60, 0.1},
		{"bass_pct", 60, 250, 0.2},
		{"low_mid_pct", 250, 500, 0.15},
		{"mid_pct", 500, 2000, 0.25},
		{"upper_mid_pct", 2000, 4000, 0.15},
		{"presence_pct", 4000, 6000, 0.1},
		{"air_pct", 6000, 20000, 0.05},
	}

	sums := make([]float64, len(edges))

	var total float64

	for bin, e := range energy {
		f := float64(bin) * binHz

		for i, band := range edges {
			if f >= band.lo && f < band.hi {
				sums[i] += e
				total += e

				break
			}
		}
	}

	if total <= types.Epsilon {
		return defaults
	}

	out := make(Metrics, len(edges))
	for i, band := range edges {
		out[band.key] = sums[i] / total
	}

	return out
}
