package dsputil

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// FrequencyWeighting selects a spectral weighting curve.
type FrequencyWeighting string

const (
	WeightingA FrequencyWeighting = "A"
	WeightingC FrequencyWeighting = "C"
	WeightingZ FrequencyWeighting = "Z" // flat (none)
)

// Magnitudes computes the magnitude spectrum of samples[:len(window)]
// multiplied by window. Short input is zero-padded to the window length.
// The result has len(window)/2+1 bins.
func Magnitudes(samples, window []float64) []float64 {
	fftSize := len(window)
	in := make([]float64, fftSize)

	n := copy(in, samples)
	for i := range n {
		in[i] *= window[i]
	}

	fft := fourier.NewFFT(fftSize)
	coeffs := fft.Coefficients(nil, in)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
	}

	return mags
}

// BinHz returns the frequency step between FFT bins.
func BinHz(sampleRate, fftSize int) float64 {
	return float64(sampleRate) / float64(fftSize)
}

// LogFrequencyBins returns numBands logarithmically spaced center
// frequencies between minFreq and maxFreq.
func LogFrequencyBins(minFreq, maxFreq float64, numBands int) []float64 {
	bins := make([]float64, numBands)
	if numBands == 1 {
		bins[0] = minFreq

		return bins
	}

	logMin := math.Log10(minFreq)
	logMax := math.Log10(maxFreq)
	step := (logMax - logMin) / float64(numBands-1)

	for i := range bins {
		bins[i] = math.Pow(10, logMin+float64(i)*step)
	}

	return bins
}

// MapToBands aggregates FFT magnitudes into the given band centers by
// arithmetic mean and converts to dB. Empty bands stay at the safe-log
// floor.
func MapToBands(magnitude []float64, binHz float64, bands []float64) []float64 {
	spectrum := make([]float64, len(bands))

	for i := range bands {
		var (
			startFreq = bands[i]
			endFreq   = math.Inf(1)
		)

		if i < len(bands)-1 {
			endFreq = bands[i+1]
		}

		var (
			sum   float64
			count int
		)

		for bin, mag := range magnitude {
			f := float64(bin) * binHz
			if f >= startFreq && f < endFreq {
				sum += mag
				count++
			}
		}

		if count > 0 {
			spectrum[i] = sum / float64(count)
		}
	}

	return ToDb(spectrum)
}

// ToDb converts linear magnitudes to dB with an epsilon floor.
func ToDb(linear []float64) []float64 {
	out := make([]float64, len(linear))

	for i, v := range linear {
		out[i] = 20 * math.Log10(math.Max(v, types.Epsilon))
	}

	return out
}

// AWeighting returns the IEC 61672-1 A-weighting curve in dB for the given
// frequencies, normalized so the peak is 0 dB.
func AWeighting(frequencies []float64) []float64 {
	response := make([]float64, len(frequencies))

	for i, f := range frequencies {
		f2 := f * f
		f4 := f2 * f2

		num := 12194 * 12194 * f4
		den := (f2 + 20.6*20.6) *
			math.Sqrt((f2+107.7*107.7)*(f2+737.9*737.9)) *
			(f2 + 12194*12194)

		response[i] = num / den
	}

	return normalizeToDb(response)
}

// CWeighting returns the IEC 61672-1 C-weighting curve in dB, normalized so
// the peak is 0 dB.
func CWeighting(frequencies []float64) []float64 {
	response := make([]float64, len(frequencies))

	for i, f := range frequencies {
		f2 := f * f

		num := 12194 * 12194 * f2
		den := (f2 + 20.6*20.6) * (f2 + 12194*12194)

		response[i] = num / den
	}

	return normalizeToDb(response)
}

// WeightingCurve returns the curve for the given weighting; Z is all zeros.
func WeightingCurve(frequencies []float64, weighting FrequencyWeighting) []float64 {
	switch weighting {
	case WeightingA:
		return AWeighting(frequencies)
	case WeightingC:
		return CWeighting(frequencies)
	default:
		return make([]float64, len(frequencies))
	}
}

func normalizeToDb(response []float64) []float64 {
	var max float64
	for _, r := range response {
		if r > max {
			max = r
		}
	}

	out := make([]float64, len(response))

	for i, r := range response {
		if max > 0 {
			r /= max
		}

		out[i] = 20 * math.Log10(math.Max(r, types.Epsilon))
	}

	return out
}

// SpectralCentroid returns the magnitude-weighted mean frequency.
// An empty spectrum yields the mid-bin frequency.
func SpectralCentroid(magnitude []float64, binHz float64) float64 {
	var num, den float64

	for bin, mag := range magnitude {
		num += float64(bin) * binHz * mag
		den += mag
	}

	if den <= 0 {
		return float64(len(magnitude)/2) * binHz
	}

	return num / den
}

// SpectralCentroidBins is the band-spectrum variant of SpectralCentroid.
func SpectralCentroidBins(bands, spectrum []float64) float64 {
	var num, den float64

	for i := range bands {
		num += bands[i] * spectrum[i]
		den += spectrum[i]
	}

	if den == 0 {
		return bands[len(bands)/2]
	}

	return num / den
}

// SpectralRolloff returns the smallest frequency whose cumulative energy
// reaches threshold (0-1) of the total, computed in one cumulative pass.
func SpectralRolloff(magnitude []float64, binHz, threshold float64) float64 {
	var total float64
	for _, m := range magnitude {
		total += m
	}

	if total <= 0 {
		return float64(len(magnitude)-1) * binHz
	}

	target := total * threshold

	var cumulative float64

	for bin, m := range magnitude {
		cumulative += m
		if cumulative >= target {
			return float64(bin) * binHz
		}
	}

	return float64(len(magnitude)-1) * binHz
}

// SpectralSpread returns the magnitude-weighted standard deviation around
// the centroid, in Hz.
func SpectralSpread(magnitude []float64, binHz, centroid float64) float64 {
	var num, den float64

	for bin, mag := range magnitude {
		d := float64(bin)*binHz - centroid
		num += mag * d * d
		den += mag
	}

	if den <= 0 {
		return 0
	}

	return math.Sqrt(math.Max(num/den, 0))
}

// SpectralFlatness returns the Wiener entropy: geometric mean over
// arithmetic mean, clamped to [0,1]. 1.0 is white noise, 0 is a pure tone.
func SpectralFlatness(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}

	var (
		arithmeticSum float64
		logSum        float64
		count         int
	)

	for _, m := range magnitude {
		if m > 0 {
			arithmeticSum += m
			logSum += math.Log(m)
			count++
		}
	}

	if count == 0 || arithmeticSum == 0 {
		return 0
	}

	arithmeticMean := arithmeticSum / float64(count)
	geometricMean := math.Exp(logSum / float64(count))

	flatness := geometricMean / arithmeticMean

	if flatness < 0 {
		return 0
	}

	if flatness > 1 {
		return 1
	}

	return flatness
}

// SmoothSpectrum blends the current spectrum with the previous one:
// factor*previous + (1-factor)*current. A nil previous returns current.
func SmoothSpectrum(current, previous []float64, factor float64) []float64 {
	if previous == nil {
		return current
	}

	out := make([]float64, len(current))

	for i := range current {
		out[i] = factor*previous[i] + (1-factor)*current[i]
	}

	return out
}
