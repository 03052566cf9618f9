package dynamics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// CompressionInfo reports what one Process call did.
type CompressionInfo struct {
	InputLevelDb    float64
	GainReductionDb float64 // average over the chunk, negative when reducing
	OutputGain      float64 // final linear gain, persists into the next chunk
	ThresholdDb     float64
	Ratio           float64
}

// Compressor is the content-aware compressor: a per-sample soft-knee gain
// reduction curve smoothed by an envelope follower, with optional
// look-ahead delay. State (envelopes, delay line) carries across chunks so
// feeding a buffer in pieces equals feeding it whole.
type Compressor struct {
	settings   CompressorSettings
	sampleRate int

	peakFollower *EnvelopeFollower
	rmsFollower  *EnvelopeFollower
	gainFollower *EnvelopeFollower

	lookaheadSamples int
	delay            [][]float64 // lazily allocated to match channel count

	gainReduction float64
	previousGain  float64
}

// NewCompressor validates the settings and builds the stage.
func NewCompressor(settings CompressorSettings, sampleRate int) (*Compressor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	peak, err := NewEnvelopeFollower(sampleRate, 0.1, 1.0)
	if err != nil {
		return nil, err
	}

	rms, err := NewEnvelopeFollower(sampleRate, 10.0, 100.0)
	if err != nil {
		return nil, err
	}

	gain, err := NewEnvelopeFollower(sampleRate, settings.AttackMs, settings.ReleaseMs)
	if err != nil {
		return nil, err
	}

	lookahead := 0
	if settings.EnableLookahead {
		lookahead = int(settings.LookaheadMs * float64(sampleRate) / 1000)
	}

	return &Compressor{
		settings:         settings,
		sampleRate:       sampleRate,
		peakFollower:     peak,
		rmsFollower:      rms,
		gainFollower:     gain,
		lookaheadSamples: lookahead,
		previousGain:     1.0,
	}, nil
}

// Process compresses one chunk. The output buffer always has the same
// shape as the input.
func (c *Compressor) Process(buffer *types.Buffer, mode DetectionMode) (*types.Buffer, CompressionInfo) {
	if buffer.Frames() == 0 {
		return buffer, CompressionInfo{ThresholdDb: c.settings.ThresholdDb, Ratio: c.settings.Ratio}
	}

	delayed := buffer
	if c.lookaheadSamples > 0 {
		delayed = c.applyLookahead(buffer)
	}

	// Per-sample level in dB: mono uses |x|, multi-channel the max across
	// channels.
	n := delayed.Frames()
	levelsDb := make([]float64, n)

	for i := range n {
		var level float64

		for _, ch := range delayed.Samples {
			if a := math.Abs(ch[i]); a > level {
				level = a
			}
		}

		levelsDb[i] = 20 * math.Log10(level+types.Epsilon)
	}

	// Feed the slow detectors in every mode. Their envelopes do not enter
	// the gain computation below, which works on the per-sample levels.
	c.updateDetectors(delayed, mode)

	targetReduction := c.gainReductionCurve(levelsDb)
	smoothed := c.gainFollower.ProcessBuffer(targetReduction)

	avgReduction := floats.Sum(smoothed) / float64(len(smoothed))
	c.gainReduction = avgReduction

	makeup := math.Pow(10, c.settings.MakeupGainDb/20)

	gain := make([]float64, n)
	for i, reductionDb := range smoothed {
		gain[i] = math.Pow(10, reductionDb/20) * makeup
	}

	out := &types.Buffer{
		Samples:    make([][]float64, delayed.Channels()),
		SampleRate: delayed.SampleRate,
	}

	for ch := range delayed.Samples {
		out.Samples[ch] = make([]float64, n)
		copy(out.Samples[ch], delayed.Samples[ch])
		floats.Mul(out.Samples[ch], gain)
	}

	c.previousGain = gain[n-1]

	return out, CompressionInfo{
		InputLevelDb:    floats.Sum(levelsDb) / float64(len(levelsDb)),
		GainReductionDb: avgReduction,
		OutputGain:      gain[n-1],
		ThresholdDb:     c.settings.ThresholdDb,
		Ratio:           c.settings.Ratio,
	}
}

// gainReductionCurve computes the soft-knee static curve in dB for every
// level: linear compression above the knee, quadratic interpolation inside
// it, unity below.
func (c *Compressor) gainReductionCurve(levelsDb []float64) []float64 {
	threshold := c.settings.ThresholdDb
	ratio := c.settings.Ratio
	knee := c.settings.KneeDb
	halfKnee := knee / 2

	out := make([]float64, len(levelsDb))

	for i, level := range levelsDb {
		switch {
		case level >= threshold+halfKnee:
			over := level - threshold
			out[i] = -over * (1 - 1/ratio)

		case level > threshold-halfKnee && knee > 0:
			over := level - threshold + halfKnee
			kneeRatio := over / knee
			softRatio := 1 + kneeRatio*(ratio-1)/ratio
			out[i] = -over * (1 - 1/softRatio)

		default:
			out[i] = 0
		}
	}

	return out
}

func (c *Compressor) updateDetectors(buffer *types.Buffer, mode DetectionMode) {
	mono := buffer.Mono()

	switch mode {
	case DetectPeak:
		var peak float64

		for _, s := range mono {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}

		c.peakFollower.Process(peak)

	case DetectRMS, DetectHybrid, "":
		var sum float64
		for _, s := range mono {
			sum += s * s
		}

		c.rmsFollower.Process(math.Sqrt(sum / float64(len(mono))))
	}
}

// applyLookahead delays the audio by the look-ahead interval through a
// per-channel delay line, allocated on first use to match the channel
// count.
func (c *Compressor) applyLookahead(buffer *types.Buffer) *types.Buffer {
	if c.delay == nil || len(c.delay) != buffer.Channels() {
		c.delay = make([][]float64, buffer.Channels())
		for ch := range c.delay {
			c.delay[ch] = make([]float64, c.lookaheadSamples)
		}
	}

	n := buffer.Frames()

	out := &types.Buffer{
		Samples:    make([][]float64, buffer.Channels()),
		SampleRate: buffer.SampleRate,
	}

	for ch := range buffer.Samples {
		in := buffer.Samples[ch]
		line := c.delay[ch]
		delayed := make([]float64, n)

		if n >= c.lookaheadSamples {
			copy(delayed, line)
			copy(delayed[c.lookaheadSamples:], in[:n-c.lookaheadSamples])
			copy(line, in[n-c.lookaheadSamples:])
		} else {
			copy(delayed, line[:n])
			// Shift the line left by n and append the chunk.
			copy(line, line[n:])
			copy(line[c.lookaheadSamples-n:], in)
		}

		out.Samples[ch] = delayed
	}

	return out
}

// SetThresholdDb retunes the threshold; the envelope state is untouched so
// parameter morphing stays click-free.
func (c *Compressor) SetThresholdDb(thresholdDb float64) {
	c.settings.ThresholdDb = thresholdDb
}

// SetRatio retunes the ratio, floored at 1:1.
func (c *Compressor) SetRatio(ratio float64) {
	if ratio < 1 {
		ratio = 1
	}

	c.settings.Ratio = ratio
}

// State reports the compressor's current internal state.
func (c *Compressor) State() CompressionInfo {
	return CompressionInfo{
		GainReductionDb: c.gainReduction,
		OutputGain:      c.previousGain,
		ThresholdDb:     c.settings.ThresholdDb,
		Ratio:           c.settings.Ratio,
	}
}

// Reset clears all envelopes and the delay line.
func (c *Compressor) Reset() {
	c.peakFollower.Reset()
	c.rmsFollower.Reset()
	c.gainFollower.Reset()
	c.gainReduction = 0
	c.previousGain = 1.0

	for ch := range c.delay {
		for i := range c.delay[ch] {
			c.delay[ch][i] = 0
		}
	}
}
