// Package parallel provides the bounded worker-pool helpers used by batch
// analysis: windowed FFT over a buffer, per-band filtering with gain
// application, and map-style feature extraction. Sequential and parallel
// paths produce identical results up to IEEE-754 rounding; parallelism is
// purely a wall-clock optimization.
package parallel

import (
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
)

// Config bounds the worker pool.
type Config struct {
	EnableParallel bool
	MaxWorkers     int
	// Minimum chunk count before the parallel path engages; below it the
	// scheduling overhead dominates.
	ChunkThreshold int
}

// DefaultConfig caps workers at min(8, NumCPU).
func DefaultConfig() Config {
	return Config{
		EnableParallel: true,
		MaxWorkers:     min(8, runtime.NumCPU()),
		ChunkThreshold: 2,
	}
}

func (c Config) workers(tasks int) int {
	w := c.MaxWorkers
	if w < 1 {
		w = 1
	}

	if tasks < w {
		w = tasks
	}

	return w
}

// FFTProcessor computes windowed FFTs, optionally in parallel.
type FFTProcessor struct {
	config Config
}

// NewFFTProcessor builds a processor with the given config.
func NewFFTProcessor(config Config) *FFTProcessor {
	return &FFTProcessor{config: config}
}

// WindowedFFT decomposes the input into hopped windows of fftSize, applies
// the Hann window and returns the magnitude spectrum of each. Falls back
// to sequential execution when parallelism is disabled or the chunk count
// is under the threshold.
func (p *FFTProcessor) WindowedFFT(samples []float64, fftSize, hopSize int) [][]float64 {
	if hopSize <= 0 {
		hopSize = fftSize / 2
	}

	n := dsputil.NumFrames(len(samples), fftSize, hopSize)
	if n == 0 {
		return nil
	}

	window := dsputil.HannWindow(fftSize)
	results := make([][]float64, n)

	if !p.config.EnableParallel || n < p.config.ChunkThreshold {
		fft := fourier.NewFFT(fftSize)

		for f := range n {
			results[f] = fftChunk(fft, samples[f*hopSize:f*hopSize+fftSize], window)
		}

		return results
	}

	var group errgroup.Group

	group.SetLimit(p.config.workers(n))

	for f := range n {
		group.Go(func() error {
			// Each task owns its FFT plan; gonum FFT objects are not safe
			// for concurrent use.
			fft := fourier.NewFFT(fftSize)
			results[f] = fftChunk(fft, samples[f*hopSize:f*hopSize+fftSize], window)

			return nil
		})
	}

	_ = group.Wait() // tasks never error

	return results
}

func fftChunk(fft *fourier.FFT, chunk, window []float64) []float64 {
	in := make([]float64, len(window))

	for i := range window {
		in[i] = chunk[i] * window[i]
	}

	coeffs := fft.Coefficients(nil, in)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
	}

	return mags
}

// BandFilter produces one filtered band from the input.
type BandFilter func(samples []float64) []float64

// BandProcessor applies per-band filters and gains, summing the results.
type BandProcessor struct {
	config Config
}

// NewBandProcessor builds a processor with the given config.
func NewBandProcessor(config Config) *BandProcessor {
	return &BandProcessor{config: config}
}

// ProcessBands runs every filter over the input, scales each band by its
// linear gain (gains are in dB) and sums the bands back together. Groups
// are a scheduling detail only; results are identical either way.
func (p *BandProcessor) ProcessBands(samples []float64, filters []BandFilter, gainsDb []float64) []float64 {
	numBands := len(filters)
	out := make([]float64, len(samples))

	if numBands == 0 {
		copy(out, samples)

		return out
	}

	bands := make([][]float64, numBands)

	process := func(i int) {
		band := filters[i](samples)
		gain := dbToLinear(gainsDb[i])

		for j := range band {
			band[j] *= gain
		}

		bands[i] = band
	}

	if !p.config.EnableParallel || numBands < p.config.ChunkThreshold {
		for i := range filters {
			process(i)
		}
	} else {
		var group errgroup.Group

		group.SetLimit(p.config.workers(numBands))

		for i := range filters {
			group.Go(func() error {
				process(i)

				return nil
			})
		}

		_ = group.Wait()
	}

	for _, band := range bands {
		for j := range band {
			if j < len(out) {
				out[j] += band[j]
			}
		}
	}

	return out
}

// FeatureExtractor computes a named value from audio.
type FeatureExtractor func(samples []float64) float64

// ExtractFeatures runs the extractor map over the audio, in parallel when
// the pool allows, and returns the name → result map.
func ExtractFeatures(config Config, samples []float64, extractors map[string]FeatureExtractor) map[string]float64 {
	results := make(map[string]float64, len(extractors))

	if !config.EnableParallel || len(extractors) < config.ChunkThreshold {
		for name, extract := range extractors {
			results[name] = extract(samples)
		}

		return results
	}

	var (
		mu    sync.Mutex
		group errgroup.Group
	)

	group.SetLimit(config.workers(len(extractors)))

	for name, extract := range extractors {
		group.Go(func() error {
			value := extract(samples)

			mu.Lock()
			results[name] = value
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	return results
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
