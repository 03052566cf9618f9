package auralis

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matiaszanolli/Auralis-sub001/internal/dynamics"
	"github.com/matiaszanolli/Auralis-sub001/internal/fingerprint"
	"github.com/matiaszanolli/Auralis-sub001/internal/target"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// StreamingSettings configures the streaming masterer.
type StreamingSettings struct {
	SampleRate        int
	Intent            UserIntent
	PreserveCharacter float64
	EnableHarmonic    bool

	// RetargetSeconds is how often the cached target refreshes from the
	// accumulated analysis; between refreshes DSP parameters morph
	// smoothly toward the cached values to avoid zipper noise.
	RetargetSeconds float64
	// MorphRate is the per-chunk fraction of the remaining parameter
	// distance covered, in (0,1].
	MorphRate float64

	Compressor dynamics.CompressorSettings
	Limiter    dynamics.LimiterSettings
}

// DefaultStreamingSettings retargets every 2 seconds with a gentle morph.
func DefaultStreamingSettings(sampleRate int) StreamingSettings {
	return StreamingSettings{
		SampleRate:        sampleRate,
		PreserveCharacter: 0.7,
		EnableHarmonic:    true,
		RetargetSeconds:   2.0,
		MorphRate:         0.2,
		Compressor:        dynamics.DefaultCompressorSettings(),
		Limiter:           dynamics.DefaultLimiterSettings(),
	}
}

// StreamingMasterer drives the DSP chain over a live stream: every chunk
// feeds the streaming fingerprint, the mastering target is recomputed at a
// low duty cycle from the buffered recent audio, and the compressor and
// limiter parameters morph toward it chunk by chunk. Chunks of any length
// >= 1 are accepted; the output chunk always matches the input shape.
type StreamingMasterer struct {
	settings StreamingSettings

	fingerprint *fingerprint.StreamingFingerprint
	recent      *fingerprint.SampleRing

	compressor *dynamics.Compressor
	limiter    *dynamics.Limiter

	// Cached targets and the currently morphed parameter values.
	targetThresholdDb float64
	targetRatio       float64
	targetCeilingDb   float64
	thresholdDb       float64
	ratio             float64
	ceilingDb         float64

	sinceRetarget int
	chunkCount    int
}

// NewStreamingMasterer validates the settings and builds the stream chain.
func NewStreamingMasterer(settings StreamingSettings) (*StreamingMasterer, error) {
	if settings.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidSampleRate, settings.SampleRate)
	}

	if settings.RetargetSeconds <= 0 {
		settings.RetargetSeconds = 2.0
	}

	if settings.MorphRate <= 0 || settings.MorphRate > 1 {
		settings.MorphRate = 0.2
	}

	compressor, err := dynamics.NewCompressor(settings.Compressor, settings.SampleRate)
	if err != nil {
		return nil, err
	}

	limiter, err := dynamics.NewLimiter(settings.Limiter, settings.SampleRate)
	if err != nil {
		return nil, err
	}

	m := &StreamingMasterer{
		settings:    settings,
		fingerprint: fingerprint.NewStreamingFingerprint(settings.SampleRate, settings.EnableHarmonic),
		recent:      fingerprint.NewSampleRing(settings.SampleRate * 5),
		compressor:  compressor,
		limiter:     limiter,
	}

	m.seedParameters()

	return m, nil
}

func (m *StreamingMasterer) seedParameters() {
	m.thresholdDb = m.settings.Compressor.ThresholdDb
	m.ratio = m.settings.Compressor.Ratio
	m.ceilingDb = m.settings.Limiter.ThresholdDb
	m.targetThresholdDb = m.thresholdDb
	m.targetRatio = m.ratio
	m.targetCeilingDb = m.ceilingDb
}

// ProcessChunk masters one chunk and returns a chunk of identical shape.
func (m *StreamingMasterer) ProcessChunk(chunk *Buffer) (*Buffer, error) {
	if chunk.Frames() == 0 {
		return chunk, nil
	}

	m.chunkCount++
	mono := chunk.Mono()

	m.fingerprint.Update(mono)
	m.recent.Extend(mono)
	m.sinceRetarget += len(mono)

	if float64(m.sinceRetarget) >= m.settings.RetargetSeconds*float64(m.settings.SampleRate) {
		m.retarget()
		m.sinceRetarget = 0
	}

	// Morph parameters toward the cached target, then run the chain.
	m.thresholdDb = morphToward(m.thresholdDb, m.targetThresholdDb, m.settings.MorphRate)
	m.ratio = morphToward(m.ratio, m.targetRatio, m.settings.MorphRate)
	m.ceilingDb = morphToward(m.ceilingDb, m.targetCeilingDb, m.settings.MorphRate)

	m.compressor.SetThresholdDb(m.thresholdDb)
	m.compressor.SetRatio(m.ratio)
	m.limiter.SetThresholdDb(m.ceilingDb)

	compressed, _ := m.compressor.Process(chunk, dynamics.DetectHybrid)
	limited := m.limiter.Process(compressed)

	if !chunk.SameShape(limited) {
		return nil, fmt.Errorf("%w: streaming chunk", types.ErrShapeViolation)
	}

	return limited, nil
}

// retarget reruns the heavy analysis over the recent audio and refreshes
// the cached parameter targets.
func (m *StreamingMasterer) retarget() {
	audio := m.recent.Snapshot()
	if len(audio) < m.settings.SampleRate/2 {
		return
	}

	analysis := AnalyzeContent(types.NewMono(audio, m.settings.SampleRate))
	tgt := target.Generate(analysis, m.settings.Intent, m.settings.PreserveCharacter)

	m.targetThresholdDb, m.targetRatio = compressionParams(tgt.ProcessingIntensity)
	m.targetCeilingDb = limiterCeiling(tgt.ProcessingIntensity)

	log.Debug("stream retarget",
		"intensity", tgt.ProcessingIntensity,
		"threshold_db", m.targetThresholdDb,
		"ratio", m.targetRatio,
		"ceiling_db", m.targetCeilingDb)
}

// Fingerprint exposes the live streaming fingerprint.
func (m *StreamingMasterer) Fingerprint() fingerprint.Metrics {
	return m.fingerprint.GetFingerprint()
}

// Confidence exposes the live per-metric confidences.
func (m *StreamingMasterer) Confidence() fingerprint.Metrics {
	return m.fingerprint.GetConfidence()
}

// Reset restores the constructed state for reuse on unrelated content.
func (m *StreamingMasterer) Reset() {
	m.fingerprint.Reset()
	m.recent.Clear()
	m.compressor.Reset()
	m.limiter.Reset()
	m.sinceRetarget = 0
	m.chunkCount = 0
	m.seedParameters()
}
