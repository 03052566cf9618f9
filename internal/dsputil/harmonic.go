package dsputil

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Pitch search range: C2 to C7.
const (
	YinFMin = 65.406
	YinFMax = 2093.005

	yinFrameLength = 2048
	yinHop         = 512
	yinThreshold   = 0.1
)

// HarmonicRatio separates the magnitude spectrogram into harmonic and
// percussive components by median filtering (harmonic content is steady
// across time, percussive content is broadband across frequency) and
// returns harmonic / (harmonic + percussive) energy in [0,1].
// Audio too short for two frames yields the neutral 0.5.
func HarmonicRatio(samples []float64) float64 {
	const (
		frameLength = 1024
		hop         = 512
		kernel      = 9
	)

	n := NumFrames(len(samples), frameLength, hop)
	if n < 2 {
		return 0.5
	}

	window := HannWindow(frameLength)
	fft := fourier.NewFFT(frameLength)
	in := make([]float64, frameLength)
	bins := frameLength/2 + 1

	// Spectrogram: spec[frame][bin].
	spec := make([][]float64, n)

	for f := range spec {
		start := f * hop

		for i := range in {
			in[i] = samples[start+i] * window[i]
		}

		coeffs := fft.Coefficients(nil, in)

		spec[f] = make([]float64, bins)
		for i, c := range coeffs {
			spec[f][i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
		}
	}

	var harmonicEnergy, percussiveEnergy float64

	scratch := make([]float64, 0, kernel)

	for f := range spec {
		for b := range bins {
			// Harmonic estimate: median across time at this bin.
			h := medianAround(scratch, func(k int) (float64, bool) {
				t := f + k
				if t < 0 || t >= n {
					return 0, false
				}

				return spec[t][b], true
			}, kernel)

			// Percussive estimate: median across frequency at this frame.
			p := medianAround(scratch, func(k int) (float64, bool) {
				bb := b + k
				if bb < 0 || bb >= bins {
					return 0, false
				}

				return spec[f][bb], true
			}, kernel)

			total := h + p
			if total <= types.Epsilon {
				continue
			}

			mag2 := spec[f][b] * spec[f][b]
			harmonicEnergy += mag2 * (h / total)
			percussiveEnergy += mag2 * (p / total)
		}
	}

	total := harmonicEnergy + percussiveEnergy
	if total <= types.Epsilon {
		return 0.5
	}

	ratio := harmonicEnergy / total

	if ratio < 0 {
		return 0
	}

	if ratio > 1 {
		return 1
	}

	return ratio
}

func medianAround(scratch []float64, at func(int) (float64, bool), kernel int) float64 {
	scratch = scratch[:0]
	half := kernel / 2

	for k := -half; k <= half; k++ {
		if v, ok := at(k); ok {
			scratch = append(scratch, v)
		}
	}

	if len(scratch) == 0 {
		return 0
	}

	sort.Float64s(scratch)

	return scratch[len(scratch)/2]
}

// YinPitch runs the YIN pitch detector over the audio and returns one F0
// estimate in Hz per frame, 0 where the frame is unvoiced.
func YinPitch(samples []float64, sampleRate int) []float64 {
	n := NumFrames(len(samples), yinFrameLength, yinHop)
	if n == 0 {
		return nil
	}

	minLag := int(float64(sampleRate) / YinFMax)
	maxLag := int(float64(sampleRate) / YinFMin)

	if maxLag >= yinFrameLength/2 {
		maxLag = yinFrameLength/2 - 1
	}

	if minLag < 1 {
		minLag = 1
	}

	f0 := make([]float64, n)
	diff := make([]float64, maxLag+1)
	cmnd := make([]float64, maxLag+1)

	for f := range f0 {
		frame := samples[f*yinHop : f*yinHop+yinFrameLength]

		// Difference function.
		for lag := 1; lag <= maxLag; lag++ {
			var sum float64

			for i := 0; i+lag < len(frame); i++ {
				d := frame[i] - frame[i+lag]
				sum += d * d
			}

			diff[lag] = sum
		}

		// Cumulative mean normalized difference.
		cmnd[0] = 1

		var running float64

		for lag := 1; lag <= maxLag; lag++ {
			running += diff[lag]

			if running <= types.Epsilon {
				cmnd[lag] = 1
			} else {
				cmnd[lag] = diff[lag] * float64(lag) / running
			}
		}

		// First lag under the absolute threshold, refined to the local dip.
		lag := 0

		for candidate := minLag; candidate <= maxLag; candidate++ {
			if cmnd[candidate] < yinThreshold {
				for candidate+1 <= maxLag && cmnd[candidate+1] < cmnd[candidate] {
					candidate++
				}

				lag = candidate

				break
			}
		}

		if lag > 0 {
			f0[f] = float64(sampleRate) / float64(lag)
		}
	}

	return f0
}

// ChromaMatrix projects the windowed magnitude spectra onto the 12 pitch
// classes. The result is chroma[class][frame] with each frame normalized by
// its maximum, matching the convention that per-class means average to the
// track's chroma energy.
func ChromaMatrix(samples []float64, sampleRate int) [][]float64 {
	const (
		frameLength = 2048
		hop         = 512
	)

	n := NumFrames(len(samples), frameLength, hop)
	if n == 0 {
		return nil
	}

	window := HannWindow(frameLength)
	fft := fourier.NewFFT(frameLength)
	in := make([]float64, frameLength)
	binHz := BinHz(sampleRate, frameLength)

	chroma := make([][]float64, 12)
	for pc := range chroma {
		chroma[pc] = make([]float64, n)
	}

	for f := 0; f < n; f++ {
		start := f * hop

		for i := range in {
			in[i] = samples[start+i] * window[i]
		}

		coeffs := fft.Coefficients(nil, in)

		frame := make([]float64, 12)

		for bin := 1; bin < len(coeffs); bin++ {
			freq := float64(bin) * binHz
			if freq < YinFMin || freq > 5000 {
				continue
			}

			mag := math.Sqrt(real(coeffs[bin])*real(coeffs[bin]) + imag(coeffs[bin])*imag(coeffs[bin]))

			// MIDI note number folded to a pitch class.
			note := int(math.Round(12*math.Log2(freq/440))) + 69
			pc := ((note % 12) + 12) % 12

			frame[pc] += mag
		}

		var max float64
		for _, v := range frame {
			if v > max {
				max = v
			}
		}

		for pc := range frame {
			if max > types.Epsilon {
				chroma[pc][f] = frame[pc] / max
			}
		}
	}

	return chroma
}

// ChromaEnergy averages a chroma matrix down to a single tonal-richness
// value: per-class means across time, then the mean of those.
func ChromaEnergy(chroma [][]float64) float64 {
	if len(chroma) == 0 {
		return 0
	}

	var total float64

	for _, class := range chroma {
		if len(class) == 0 {
			continue
		}

		var sum float64
		for _, v := range class {
			sum += v
		}

		total += sum / float64(len(class))
	}

	return total / float64(len(chroma))
}

// SpectralFlux measures average positive spectral change across the buffer,
// an intensity indicator for the energy descriptor.
func SpectralFlux(samples []float64, sampleRate int) float64 {
	envelope := OnsetStrength(samples, sampleRate)
	if len(envelope) == 0 {
		return 0
	}

	var sum float64
	for _, v := range envelope {
		sum += v
	}

	return sum / float64(len(envelope))
}
