package auralis

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/matiaszanolli/Auralis-sub001/internal/fingerprint"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/parallel"
)

// LogicalEQBands is the size of the standard logical band table.
const LogicalEQBands = 32

// eqBand drives a span of logical bands from one fingerprint energy
// feature, mapped linearly into a per-band dB range.
type eqBand struct {
	startIdx int
	endIdx   int // inclusive
	loHz     float64
	hiHz     float64
	key      string
	minDb    float64
	maxDb    float64
}

// standardEQBands is the 7-band table spanning the 32 logical bands.
// Presence gets the asymmetric -6/+12 range; the broad bass and air bands
// the full +/-12.
var standardEQBands = []eqBand{
	{0, 3, 20, 60, "sub_bass_pct", -12, 12},
	{4, 11, 60, 250, "bass_pct", -12, 12},
	{12, 14, 250, 500, "low_mid_pct", -6, 6},
	{15, 19, 500, 2000, "mid_pct", -6, 6},
	{20, 23, 2000, 4000, "upper_mid_pct", -8, 8},
	{24, 25, 4000, 6000, "presence_pct", -6, 12},
	{26, 31, 6000, 20000, "air_pct", -12, 12},
}

// normalizeToDb maps a [0,1] energy value linearly into [minDb, maxDb].
func normalizeToDb(value, minDb, maxDb float64) float64 {
	return minDb + metrics.Clip(value, 0, 1)*(maxDb-minDb)
}

// EQGains expands the fingerprint's band energy features into the 32
// logical band gains in dB. Missing features default to a conservative
// 0.1.
func EQGains(features fingerprint.Metrics) []float64 {
	gains := make([]float64, LogicalEQBands)

	for _, band := range standardEQBands {
		value, ok := features[band.key]
		if !ok {
			value = 0.1
		}

		gain := normalizeToDb(value, band.minDb, band.maxDb)

		for i := band.startIdx; i <= band.endIdx; i++ {
			gains[i] = gain
		}
	}

	return gains
}

// intensityScaledGains tames the raw EQ curve by the processing intensity:
// a track needing little work gets little tonal reshaping.
func intensityScaledGains(gains []float64, intensity float64) []float64 {
	out := make([]float64, len(gains))
	scale := metrics.Clip(intensity, 0, 1)

	for i, g := range gains {
		out[i] = g * scale
	}

	return out
}

// applyEQ filters each channel into the seven physical bands, applies the
// per-band gains and sums, using the parallel band processor. Gains is the
// 32-entry logical table; logical bands within one physical span share a
// gain by construction.
func applyEQ(buffer *Buffer, gains []float64, pool parallel.Config) *Buffer {
	sampleRate := buffer.SampleRate

	filters := make([]parallel.BandFilter, len(standardEQBands))
	bandGains := make([]float64, len(standardEQBands))

	for i, band := range standardEQBands {
		filters[i] = bandpassFilter(band.loHz, band.hiHz, sampleRate)
		bandGains[i] = gains[band.startIdx]
	}

	processor := parallel.NewBandProcessor(pool)

	out := &Buffer{
		Samples:    make([][]float64, buffer.Channels()),
		SampleRate: sampleRate,
	}

	for ch := range buffer.Samples {
		out.Samples[ch] = processor.ProcessBands(buffer.Samples[ch], filters, bandGains)
	}

	return out
}

// bandpassFilter builds an FFT brick-band filter for [loHz, hiHz). The
// seven contiguous bands together reconstruct the 20 Hz - 20 kHz content.
func bandpassFilter(loHz, hiHz float64, sampleRate int) parallel.BandFilter {
	return func(samples []float64) []float64 {
		n := len(samples)
		if n == 0 {
			return nil
		}

		fft := fourier.NewFFT(n)
		coeffs := fft.Coefficients(nil, samples)

		binHz := float64(sampleRate) / float64(n)

		for bin := range coeffs {
			f := float64(bin) * binHz
			if f < loHz || f >= hiHz {
				coeffs[bin] = 0
			}
		}

		out := fft.Sequence(nil, coeffs)

		// The gonum transform is unnormalized: a round trip multiplies by n.
		scale := 1 / float64(n)
		for i := range out {
			out[i] *= scale
		}

		return out
	}
}

// morphToward moves current exponentially toward target; rate in (0,1]
// governs how much of the remaining distance each step covers.
func morphToward(current, target, rate float64) float64 {
	return current + (target-current)*metrics.Clip(rate, 0, 1)
}
