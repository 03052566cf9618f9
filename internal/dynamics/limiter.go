package dynamics

import (
	"fmt"
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Limiter is a look-ahead brick-wall limiter. It catches peaks above the
// ceiling while preserving overall loudness: gain only dips when a peak is
// coming, with instant attack and exponential release. The final gain of
// each chunk seeds the next, so the gain curve carries across chunk
// boundaries. The look-ahead does not reach into the next chunk: a peak in
// the first look-ahead samples of a chunk does not lower the gain at the end
// of the previous one, so chunked output equals whole-buffer output only
// when no such peak follows a boundary.
type Limiter struct {
	settings   LimiterSettings
	sampleRate int

	lookaheadSamples int
	releaseSamples   int
	thresholdLinear  float64
	releaseCoef      float64

	currentGain float64
}

// NewLimiter validates the settings and builds the stage. The gain seed is
// fixed at 1.0 (glitch-free from the first sample).
func NewLimiter(settings LimiterSettings, sampleRate int) (*Limiter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	releaseSamples := int(settings.ReleaseMs * float64(sampleRate) / 1000)

	releaseCoef := 0.0
	if releaseSamples > 0 {
		releaseCoef = math.Exp(-1.0 / float64(releaseSamples))
	}

	return &Limiter{
		settings:         settings,
		sampleRate:       sampleRate,
		lookaheadSamples: int(settings.LookaheadMs * float64(sampleRate) / 1000),
		releaseSamples:   releaseSamples,
		thresholdLinear:  math.Pow(10, settings.ThresholdDb/20),
		releaseCoef:      releaseCoef,
		currentGain:      1.0,
	}, nil
}

// Process limits one chunk. Zero-length input is returned unchanged; the
// output always has the same shape as the input.
func (l *Limiter) Process(buffer *types.Buffer) *types.Buffer {
	n := buffer.Frames()
	if n == 0 {
		return buffer
	}

	// Per-sample maximum across channels, zero-padded by the look-ahead so
	// the window beyond the chunk end sees silence.
	padded := make([]float64, n+l.lookaheadSamples)

	for i := range n {
		var peak float64

		for _, ch := range buffer.Samples {
			if a := math.Abs(ch[i]); a > peak {
				peak = a
			}
		}

		padded[i] = peak
	}

	envelope := slidingWindowMax(padded, max(l.lookaheadSamples, 1))[:n]

	// Target gain: pull peaks down to the ceiling, unity elsewhere.
	targetGain := make([]float64, n)

	for i, peak := range envelope {
		if peak > l.thresholdLinear {
			targetGain[i] = l.thresholdLinear / math.Max(peak, types.Epsilon)
		} else {
			targetGain[i] = 1.0
		}
	}

	// Release envelope: inherently serial. Instant attack when the target
	// drops below the running gain, exponential recovery otherwise. Seeded
	// from the previous chunk's final gain.
	gain := make([]float64, n)
	prev := l.currentGain
	rc := l.releaseCoef

	for i, tg := range targetGain {
		if tg < prev {
			prev = tg
		} else {
			prev = prev*rc + tg*(1-rc)
		}

		gain[i] = prev
	}

	l.currentGain = gain[n-1]

	out := &types.Buffer{
		Samples:    make([][]float64, buffer.Channels()),
		SampleRate: buffer.SampleRate,
	}

	for ch := range buffer.Samples {
		out.Samples[ch] = make([]float64, n)

		for i, s := range buffer.Samples[ch] {
			out.Samples[ch][i] = s * gain[i]
		}
	}

	return out
}

// slidingWindowMax computes out[i] = max(in[i : i+window]) in O(N) with a
// monotonically decreasing index deque.
func slidingWindowMax(in []float64, window int) []float64 {
	out := make([]float64, len(in))
	deque := make([]int, 0, window)

	for i := range in {
		// Evict indices that left the window [i-window+1 .. i] looking
		// backward; equivalently, for the forward window of out[j] we read
		// the front once j+window-1 == i.
		for len(deque) > 0 && deque[0] <= i-window {
			deque = deque[1:]
		}

		for len(deque) > 0 && in[deque[len(deque)-1]] <= in[i] {
			deque = deque[:len(deque)-1]
		}

		deque = append(deque, i)

		if j := i - window + 1; j >= 0 {
			out[j] = in[deque[0]]
		}
	}

	// Tail positions whose full window extends past the input end.
	for j := len(in) - window + 1; j < len(in); j++ {
		if j < 0 {
			continue
		}

		for len(deque) > 0 && deque[0] < j {
			deque = deque[1:]
		}

		if len(deque) > 0 {
			out[j] = in[deque[0]]
		}
	}

	return out
}

// SetThresholdDb retunes the ceiling; the gain state is untouched so
// parameter morphing stays click-free.
func (l *Limiter) SetThresholdDb(thresholdDb float64) {
	l.settings.ThresholdDb = thresholdDb
	l.thresholdLinear = math.Pow(10, thresholdDb/20)
}

// CurrentGain returns the gain persisted for the next chunk.
func (l *Limiter) CurrentGain() float64 {
	return l.currentGain
}

// ThresholdLinear returns the linear ceiling.
func (l *Limiter) ThresholdLinear() float64 {
	return l.thresholdLinear
}

// Reset restores the constructed state.
func (l *Limiter) Reset() {
	l.currentGain = 1.0
}
