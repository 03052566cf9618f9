package dsputil

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analysis framing for onset work; matches the hop the streaming temporal
// analyzer assumes when converting frames to time.
const (
	OnsetFrameLength = 2048
	OnsetHop         = 512
)

// OnsetStrength computes a positive-flux onset envelope: for each hop the
// windowed magnitude spectrum is compared with the previous frame and only
// increases contribute.
func OnsetStrength(samples []float64, sampleRate int) []float64 {
	n := NumFrames(len(samples), OnsetFrameLength, OnsetHop)
	if n < 2 {
		return nil
	}

	window := HannWindow(OnsetFrameLength)
	fft := fourier.NewFFT(OnsetFrameLength)
	in := make([]float64, OnsetFrameLength)

	prev := make([]float64, OnsetFrameLength/2+1)
	envelope := make([]float64, 0, n-1)

	for f := 0; f < n; f++ {
		start := f * OnsetHop

		for i := range in {
			in[i] = samples[start+i] * window[i]
		}

		coeffs := fft.Coefficients(nil, in)

		var flux float64

		for i, c := range coeffs {
			mag := math.Sqrt(real(c)*real(c) + imag(c)*imag(c))

			if f > 0 {
				if d := mag - prev[i]; d > 0 {
					flux += d
				}
			}

			prev[i] = mag
		}

		if f > 0 {
			envelope = append(envelope, flux)
		}
	}

	return envelope
}

// DetectOnsets picks local maxima of the envelope that exceed the envelope
// mean plus a fraction of its standard deviation. Returns envelope frame
// indices.
func DetectOnsets(envelope []float64) []int {
	if len(envelope) < 3 {
		return nil
	}

	var sum float64
	for _, v := range envelope {
		sum += v
	}

	mean := sum / float64(len(envelope))

	var varSum float64
	for _, v := range envelope {
		d := v - mean
		varSum += d * d
	}

	threshold := mean + 0.5*math.Sqrt(varSum/float64(len(envelope)))

	var onsets []int

	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] > threshold && envelope[i] > envelope[i-1] && envelope[i] >= envelope[i+1] {
			onsets = append(onsets, i)
		}
	}

	return onsets
}

// OnsetFrameTime converts an envelope frame index to seconds.
func OnsetFrameTime(frame, sampleRate int) float64 {
	return float64(frame*OnsetHop) / float64(sampleRate)
}

// TempoFromOnsetEnvelope estimates tempo by autocorrelating the onset
// envelope over lags corresponding to 40-200 BPM. Returns the default
// 120 BPM when the envelope carries no periodicity.
func TempoFromOnsetEnvelope(envelope []float64, sampleRate int) float64 {
	const (
		minBPM     = 40.0
		maxBPM     = 200.0
		defaultBPM = 120.0
	)

	if len(envelope) < 4 {
		return defaultBPM
	}

	framesPerSecond := float64(sampleRate) / float64(OnsetHop)

	minLag := int(framesPerSecond * 60 / maxBPM)
	maxLag := int(framesPerSecond * 60 / minBPM)

	if minLag < 1 {
		minLag = 1
	}

	if maxLag >= len(envelope) {
		maxLag = len(envelope) - 1
	}

	if maxLag <= minLag {
		return defaultBPM
	}

	// Remove the mean before correlating so silence does not correlate with
	// itself at every lag.
	var sum float64
	for _, v := range envelope {
		sum += v
	}

	mean := sum / float64(len(envelope))

	var (
		bestLag  int
		bestCorr = math.Inf(-1)
	)

	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64

		for i := lag; i < len(envelope); i++ {
			corr += (envelope[i] - mean) * (envelope[i-lag] - mean)
		}

		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr <= 0 {
		return defaultBPM
	}

	bpm := 60 * framesPerSecond / float64(bestLag)

	if bpm < minBPM {
		return minBPM
	}

	if bpm > maxBPM {
		return maxBPM
	}

	return bpm
}

// BeatIntervals derives inter-beat intervals in seconds from onset frames.
func BeatIntervals(onsetFrames []int, sampleRate int) []float64 {
	if len(onsetFrames) < 2 {
		return nil
	}

	intervals := make([]float64, len(onsetFrames)-1)

	for i := 1; i < len(onsetFrames); i++ {
		intervals[i-1] = OnsetFrameTime(onsetFrames[i], sampleRate) -
			OnsetFrameTime(onsetFrames[i-1], sampleRate)
	}

	return intervals
}
