package auralis

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matiaszanolli/Auralis-sub001/internal/dynamics"
	"github.com/matiaszanolli/Auralis-sub001/internal/fingerprint"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/parallel"
	"github.com/matiaszanolli/Auralis-sub001/internal/profile"
	"github.com/matiaszanolli/Auralis-sub001/internal/target"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// ProcessingMode selects the hybrid processor's pipeline.
type ProcessingMode string

const (
	ModeAdaptive ProcessingMode = "adaptive"
	ModeHybrid   ProcessingMode = "hybrid"
	ModeBypass   ProcessingMode = "bypass"
)

var ErrInvalidMode = errors.New("unknown processing mode (valid: adaptive, hybrid, bypass)")

// UserIntent mirrors the target generator's intent knob.
type UserIntent = target.UserIntent

const (
	IntentNone       = target.IntentNone
	IntentEnhance    = target.IntentEnhance
	IntentPreserve   = target.IntentPreserve
	IntentTransform  = target.IntentTransform
	IntentAudiophile = target.IntentAudiophile
	IntentPunchy     = target.IntentPunchy
)

// ProcessorSettings configures the hybrid processor.
type ProcessorSettings struct {
	SampleRate        int
	Mode              ProcessingMode
	Intent            UserIntent
	PreserveCharacter float64 // 0-1, default 0.7
	UserPreference    string  // profile override for hybrid mode: audiophile/loud/balanced

	// ProfileDir optionally points at the reference profile directory;
	// required for hybrid mode, ignored by the others.
	ProfileDir string

	Compressor dynamics.CompressorSettings
	Limiter    dynamics.LimiterSettings
	Pool       parallel.Config
}

// DefaultProcessorSettings returns the adaptive-mode defaults.
func DefaultProcessorSettings(sampleRate int) ProcessorSettings {
	return ProcessorSettings{
		SampleRate:        sampleRate,
		Mode:              ModeAdaptive,
		PreserveCharacter: 0.7,
		Compressor:        dynamics.DefaultCompressorSettings(),
		Limiter:           dynamics.DefaultLimiterSettings(),
		Pool:              parallel.DefaultConfig(),
	}
}

// MasterResult reports what a Process call decided and did.
type MasterResult struct {
	Analysis    *ContentProfile
	Target      Target
	EQGainsDb   []float64
	Compression dynamics.CompressionInfo
}

// HybridProcessor is the top-level mastering pipeline: content analysis,
// target generation, EQ, compression and brick-wall limiting. In every
// mode the output shape equals the input shape; a violation is reported as
// a fatal error, never silently truncated or padded.
type HybridProcessor struct {
	settings   ProcessorSettings
	compressor *dynamics.Compressor
	limiter    *dynamics.Limiter
	matcher    *profile.Matcher // nil outside hybrid mode

	lastResult MasterResult
}

// NewHybridProcessor validates the settings and builds the chain. In
// hybrid mode the reference profile directory must exist.
func NewHybridProcessor(settings ProcessorSettings) (*HybridProcessor, error) {
	switch settings.Mode {
	case ModeAdaptive, ModeHybrid, ModeBypass, "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, settings.Mode)
	}

	if settings.Mode == "" {
		settings.Mode = ModeAdaptive
	}

	if settings.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidSampleRate, settings.SampleRate)
	}

	compressor, err := dynamics.NewCompressor(settings.Compressor, settings.SampleRate)
	if err != nil {
		return nil, err
	}

	limiter, err := dynamics.NewLimiter(settings.Limiter, settings.SampleRate)
	if err != nil {
		return nil, err
	}

	p := &HybridProcessor{
		settings:   settings,
		compressor: compressor,
		limiter:    limiter,
	}

	if settings.Mode == ModeHybrid {
		store, err := profile.NewStore(settings.ProfileDir)
		if err != nil {
			return nil, err
		}

		p.matcher = profile.NewMatcher(store)
	}

	return p, nil
}

// Process masters one buffer. The returned buffer always has the same
// shape as the input.
func (p *HybridProcessor) Process(buffer *Buffer) (*Buffer, error) {
	if buffer.Frames() == 0 {
		return buffer, nil
	}

	for _, ch := range buffer.Samples {
		if len(ch) != buffer.Frames() {
			return nil, fmt.Errorf("%w: ragged input", types.ErrChannelMismatch)
		}
	}

	var (
		out *Buffer
		err error
	)

	switch p.settings.Mode {
	case ModeBypass:
		out = buffer.Clone()
	case ModeHybrid:
		out, err = p.processHybrid(buffer)
	default:
		out, err = p.processAdaptive(buffer)
	}

	if err != nil {
		return nil, err
	}

	// Shape invariant: this check is a contract, not an optimization, and
	// stays in release builds.
	if !buffer.SameShape(out) {
		return nil, fmt.Errorf("%w: input %dx%d, output %dx%d",
			types.ErrShapeViolation,
			buffer.Channels(), buffer.Frames(),
			out.Channels(), out.Frames())
	}

	return out, nil
}

// processAdaptive is the pure content-driven path: analysis and the
// continuous target generator drive the chain directly.
func (p *HybridProcessor) processAdaptive(buffer *Buffer) (*Buffer, error) {
	analysis := AnalyzeContent(buffer)
	tgt := target.Generate(analysis, p.settings.Intent, p.settings.PreserveCharacter)

	return p.runChain(buffer, analysis, tgt)
}

// processHybrid additionally consults the reference profile matcher; its
// character-preservation clamps constrain the continuous target.
func (p *HybridProcessor) processHybrid(buffer *Buffer) (*Buffer, error) {
	analysis := AnalyzeContent(buffer)
	tgt := target.Generate(analysis, p.settings.Intent, p.settings.PreserveCharacter)

	match := p.matcher.GenerateTarget(analysis, true, p.settings.UserPreference)

	// The reference pulls loudness toward its measured point and acts as a
	// dynamics floor.
	tgt.TargetLufs = (tgt.TargetLufs + match.TargetLufs) / 2
	if match.MinCrestFactor > tgt.TargetCrestFactor {
		tgt.TargetCrestFactor = match.MinCrestFactor
	}

	tgt.ProcessingIntensity = metrics.Clip(
		(tgt.ProcessingIntensity+match.ProcessingIntensity)/2, 0, 1)

	log.Debug("hybrid reference target",
		"profile", match.ProfileKey, "adjustments", match.Adjustments)

	return p.runChain(buffer, analysis, tgt)
}

func (p *HybridProcessor) runChain(buffer *Buffer, analysis *ContentProfile, tgt Target) (*Buffer, error) {
	intensity := tgt.ProcessingIntensity

	// EQ curve from the band energy features, tamed by intensity.
	features := fingerprint.BandEnergyFeatures(buffer.Mono(), buffer.SampleRate)
	gains := intensityScaledGains(EQGains(features), intensity)

	equalized := applyEQ(buffer, gains, p.settings.Pool)

	// Compression parameters informed by the target.
	thresholdDb, ratio := compressionParams(intensity)
	p.compressor.SetThresholdDb(thresholdDb)
	p.compressor.SetRatio(ratio)

	compressed, info := p.compressor.Process(equalized, dynamics.DetectHybrid)

	// Limiter ceiling derived from the target intensity: gentle masters
	// keep more headroom.
	p.limiter.SetThresholdDb(limiterCeiling(intensity))

	limited := p.limiter.Process(compressed)

	p.lastResult = MasterResult{
		Analysis:    analysis,
		Target:      tgt,
		EQGainsDb:   gains,
		Compression: info,
	}

	return limited, nil
}

// compressionParams maps processing intensity onto threshold/ratio the way
// the measured dynamics demand: light work compresses gently from a high
// threshold, heavy restoration digs deeper.
func compressionParams(intensity float64) (thresholdDb, ratio float64) {
	switch {
	case intensity > 0.7:
		return -20.0, 4.0
	case intensity > 0.4:
		return -18.0, 3.0
	default:
		return -16.0, 2.0
	}
}

// limiterCeiling spans the typical -0.3 to -1.0 dBTP mastering range.
func limiterCeiling(intensity float64) float64 {
	return -0.3 - 0.7*metrics.Clip(intensity, 0, 1)
}

// LastResult returns the decisions of the most recent Process call.
func (p *HybridProcessor) LastResult() MasterResult {
	return p.lastResult
}

// Reset clears all DSP state for reuse on unrelated content.
func (p *HybridProcessor) Reset() {
	p.compressor.Reset()
	p.limiter.Reset()
	p.lastResult = MasterResult{}
}
