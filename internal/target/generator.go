// Package target generates continuous processing targets from measured
// content characteristics. There is no preset matching here: targets are
// points in a 5-dimensional parameter space (LUFS, crest factor, bass/mid
// ratio, bass %, mid %) whose bounds come from analysis of seven diverse
// reference masters.
package target

import (
	"math"

	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// UserIntent shifts the computed target along the parameter space.
type UserIntent string

const (
	IntentNone       UserIntent = ""
	IntentEnhance    UserIntent = "enhance"
	IntentPreserve   UserIntent = "preserve"
	IntentTransform  UserIntent = "transform"
	IntentAudiophile UserIntent = "audiophile"
	IntentPunchy     UserIntent = "punchy"
)

// Bound describes one dimension of the parameter space.
type Bound struct {
	Min     float64
	Max     float64
	Neutral float64
}

// Parameter-space bounds observed across the seven reference masters.
var (
	BoundLufs         = Bound{Min: -21.0, Max: -8.6, Neutral: -15.0}
	BoundCrest        = Bound{Min: 10.5, Max: 21.1, Neutral: 16.0}
	BoundBassMidRatio = Bound{Min: -3.4, Max: 5.5, Neutral: 1.0}
	BoundBassPct      = Bound{Min: 30.9, Max: 74.6, Neutral: 55.0}
	BoundMidPct       = Bound{Min: 21.3, Max: 66.9, Neutral: 35.0}
)

// DynamicsLoudnessCorrelation is the observed inverse relationship between
// crest factor and LUFS: highly dynamic masters are quiet, loudness-war
// masters are loud.
const DynamicsLoudnessCorrelation = -0.85

// ParameterSpaceInfo describes the space for introspection and display.
type ParameterSpaceInfo struct {
	Dimensions      int
	DimensionNames  []string
	Lufs            Bound
	Crest           Bound
	BassMidRatio    Bound
	BassPct         Bound
	MidPct          Bound
	LufsCrestCorr   float64
	ReferencePoints int
}

// Info returns the parameter-space description.
func Info() ParameterSpaceInfo {
	return ParameterSpaceInfo{
		Dimensions:      5,
		DimensionNames:  []string{"LUFS", "Crest Factor", "Bass/Mid Ratio", "Bass %", "Mid %"},
		Lufs:            BoundLufs,
		Crest:           BoundCrest,
		BassMidRatio:    BoundBassMidRatio,
		BassPct:         BoundBassPct,
		MidPct:          BoundMidPct,
		LufsCrestCorr:   DynamicsLoudnessCorrelation,
		ReferencePoints: 7,
	}
}

type point struct {
	lufs    float64
	crest   float64
	bassMid float64
	bassPct float64
	midPct  float64
}

// Generate maps the measured content profile plus user guidance onto a
// processing target. preserveCharacter blends the source point with the
// computed optimum: 1 keeps the source exactly, 0 adopts the target fully.
func Generate(profile *types.ContentProfile, intent UserIntent, preserveCharacter float64) types.Target {
	preserveCharacter = metrics.Clip(preserveCharacter, 0, 1)

	source := point{
		lufs:    profile.Dynamic.EstimatedLufs,
		crest:   profile.Dynamic.CrestFactorDb,
		bassMid: profile.Spectral.BassToMidDb,
		bassPct: profile.Spectral.BassPct,
		midPct:  profile.Spectral.MidPct,
	}

	optimal := computeOptimalTargets(source)
	optimal = applyUserIntent(source, optimal, intent)
	final := blend(source, optimal, preserveCharacter)

	intensity := intensityFromDeltas(source, final)

	return types.Target{
		TargetLufs:          final.lufs,
		TargetCrestFactor:   final.crest,
		TargetBassMidRatio:  final.bassMid,
		TargetBassPct:       final.bassPct,
		TargetMidPct:        final.midPct,
		ProcessingIntensity: intensity,
		PreserveCharacter:   preserveCharacter,
		SourceLufs:          source.lufs,
		SourceCrestFactor:   source.crest,
		SourceBassMidRatio:  source.bassMid,
		LufsChange:          final.lufs - source.lufs,
		CrestChange:         final.crest - source.crest,
		BassMidChange:       final.bassMid - source.bassMid,
	}
}

// computeOptimalTargets applies the discovered relationships:
// excellent dynamics are preserved or slightly enhanced, crushed dynamics
// are partially restored, LUFS follows crest inversely, and the rare
// mid-dominant balance is kept untouched.
func computeOptimalTargets(source point) point {
	var targetCrest float64

	switch {
	case source.crest > 17:
		targetCrest = math.Min(source.crest+0.5, BoundCrest.Max)
	case source.crest < 12:
		targetCrest = source.crest + (BoundCrest.Neutral-source.crest)*0.5
	default:
		targetCrest = BoundCrest.Neutral
	}

	normalizedCrest := (targetCrest - BoundCrest.Min) / (BoundCrest.Max - BoundCrest.Min)
	targetLufs := BoundLufs.Max - normalizedCrest*(BoundLufs.Max-BoundLufs.Min)

	out := point{lufs: targetLufs, crest: targetCrest}

	switch {
	case source.midPct > 50 && source.bassMid < 0:
		// Classic mid-dominant balance is rare; keep it exactly.
		out.bassMid = source.bassMid
		out.bassPct = source.bassPct
		out.midPct = source.midPct
	case source.bassPct > 70:
		// Extreme modern bass: rebalance gently.
		out.bassPct = source.bassPct - 5
		out.midPct = source.midPct + 3
		out.bassMid = source.bassMid - 0.5
	default:
		// Move 30% toward neutral, keep 70% of the source balance.
		out.bassMid = source.bassMid*0.7 + BoundBassMidRatio.Neutral*0.3
		out.bassPct = source.bassPct*0.7 + BoundBassPct.Neutral*0.3
		out.midPct = source.midPct*0.7 + BoundMidPct.Neutral*0.3
	}

	return out
}

func applyUserIntent(source, target point, intent UserIntent) point {
	switch intent {
	case IntentAudiophile:
		target.crest = math.Min(target.crest+2.0, BoundCrest.Max)
		target.lufs = math.Max(target.lufs-2.0, BoundLufs.Min)

	case IntentPunchy:
		target.crest = math.Max(target.crest-1.5, 14.0)
		target.lufs = math.Min(target.lufs+2.0, -12.0)

	case IntentPreserve:
		// Halve every delta: pull the target halfway back to the source.
		target.crest = source.crest + (target.crest-source.crest)*0.5
		target.lufs = source.lufs + (target.lufs-source.lufs)*0.5
		target.bassMid = source.bassMid + (target.bassMid-source.bassMid)*0.5

	case IntentEnhance, IntentTransform, IntentNone:
	}

	return target
}

func blend(source, target point, preserve float64) point {
	mix := func(s, t float64) float64 {
		return s*preserve + t*(1-preserve)
	}

	return point{
		lufs:    mix(source.lufs, target.lufs),
		crest:   mix(source.crest, target.crest),
		bassMid: mix(source.bassMid, target.bassMid),
		bassPct: mix(source.bassPct, target.bassPct),
		midPct:  mix(source.midPct, target.midPct),
	}
}

// intensityFromDeltas is the weighted normalized delta norm: dynamics
// changes dominate, then loudness, then frequency balance.
func intensityFromDeltas(source, final point) float64 {
	lufsDelta := math.Abs(final.lufs-source.lufs) / 10.0
	crestDelta := math.Abs(final.crest-source.crest) / 8.0
	freqDelta := math.Abs(final.bassMid-source.bassMid) / 5.0

	intensity := lufsDelta*0.35 + crestDelta*0.45 + freqDelta*0.20

	return metrics.Clip(intensity, 0, 1)
}
