package profile

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Character-preservation limits: the reference pulls the master toward its
// measured point, but never this far from the source.
const (
	MaxLufsChange  = 6.0
	MaxCrestChange = 4.0
)

// FrequencyTarget is the reference profile's frequency balance.
type FrequencyTarget struct {
	BassPct     float64
	MidPct      float64
	HighPct     float64
	BassToMidDb float64
	HighToMidDb float64
}

// MatchTarget is the profile-derived processing target.
type MatchTarget struct {
	ProfileKey          string
	Confidence          float64
	TargetLufs          float64
	MinCrestFactor      float64
	FrequencyTarget     FrequencyTarget
	ProcessingIntensity float64
	PreserveCharacter   bool
	Adjustments         string
}

// Comparison reports per-dimension deltas between a measurement and a
// reference profile.
type Comparison struct {
	ProfileKey       string
	LufsDiff         float64
	CrestDiff        float64
	BassPctDiff      float64
	MidPctDiff       float64
	BassMidRatioDiff float64
}

// Matcher selects and adjusts reference profiles for measured content.
type Matcher struct {
	store *Store
}

// NewMatcher wraps a loaded store.
func NewMatcher(store *Store) *Matcher {
	return &Matcher{store: store}
}

// GenerateTarget derives a processing target from the profile named by the
// content analysis. An unknown or unloaded profile falls back to the
// default with a warning. userPreference optionally overrides the match:
// "audiophile", "loud" or "balanced"; anything else warns and falls back to
// the default profile.
func (m *Matcher) GenerateTarget(analysis *types.ContentProfile, preserveCharacter bool, userPreference string) MatchTarget {
	profileKey := analysis.ProfileMatch
	confidence := analysis.Confidence

	p := m.store.Get(profileKey)
	if p == nil {
		log.Warn("profile not found, using default", "key", profileKey, "default", DefaultKey)

		profileKey = DefaultKey
		p = m.store.Get(DefaultKey)
	}

	if userPreference != "" {
		profileKey, p = m.applyUserPreference(userPreference, profileKey, p)
	}

	// Base targets are the profile's stored measurements. With an empty
	// store even the default can be nil; fall back to neutral constants.
	targetLufs := -15.0
	targetCrest := 16.0

	if p != nil {
		targetLufs = p.Loudness.IntegratedLufs
		targetCrest = p.DynamicRange.CrestFactorDb
	}

	if preserveCharacter {
		targetLufs, targetCrest = adjustForCharacter(targetLufs, targetCrest, analysis)
	}

	intensity := processingIntensity(analysis, targetLufs, targetCrest, confidence)

	var freq FrequencyTarget
	if p != nil {
		freq = FrequencyTarget{
			BassPct:     p.FrequencyResponse.BassEnergyPct,
			MidPct:      p.FrequencyResponse.MidEnergyPct,
			HighPct:     p.FrequencyResponse.HighEnergyPct,
			BassToMidDb: p.FrequencyResponse.BassToMidRatioDb,
			HighToMidDb: p.FrequencyResponse.HighToMidRatioDb,
		}
	}

	return MatchTarget{
		ProfileKey:          profileKey,
		Confidence:          confidence,
		TargetLufs:          targetLufs,
		MinCrestFactor:      targetCrest,
		FrequencyTarget:     freq,
		ProcessingIntensity: intensity,
		PreserveCharacter:   preserveCharacter,
		Adjustments:         describeAdjustments(analysis, targetLufs, targetCrest, profileKey),
	}
}

func (m *Matcher) applyUserPreference(preference, currentKey string, current *Profile) (string, *Profile) {
	var key string

	switch preference {
	case "audiophile":
		key = "steven_wilson_2024"
	case "loud":
		key = "dio_holy_diver"
	case "balanced":
		key = "blind_guardian"
	default:
		log.Warn("unknown user preference, using default", "preference", preference, "default", DefaultKey)

		return DefaultKey, m.store.Get(DefaultKey)
	}

	if p := m.store.Get(key); p != nil {
		return key, p
	}

	log.Warn("preferred profile not loaded", "key", key)

	return currentKey, current
}

// adjustForCharacter limits how far the reference may pull the source, and
// refuses to reduce dynamics of an already-dynamic master.
func adjustForCharacter(targetLufs, targetCrest float64, analysis *types.ContentProfile) (float64, float64) {
	sourceLufs := analysis.Dynamic.EstimatedLufs
	sourceCrest := analysis.Dynamic.CrestFactorDb

	if change := targetLufs - sourceLufs; math.Abs(change) > MaxLufsChange {
		targetLufs = sourceLufs + math.Copysign(MaxLufsChange, change)
	}

	if change := targetCrest - sourceCrest; math.Abs(change) > MaxCrestChange {
		targetCrest = sourceCrest + math.Copysign(MaxCrestChange, change)
	}

	if sourceCrest > 16 && targetCrest < sourceCrest {
		log.Debug("source already dynamic, preserving crest", "crest_db", sourceCrest)

		targetCrest = sourceCrest
	}

	return targetLufs, targetCrest
}

// processingIntensity scales with the distance to the target, weighted
// toward loudness, and is damped when the match confidence is low.
func processingIntensity(analysis *types.ContentProfile, targetLufs, targetCrest, confidence float64) float64 {
	lufsDist := math.Abs(targetLufs - analysis.Dynamic.EstimatedLufs)
	crestDist := math.Abs(targetCrest - analysis.Dynamic.CrestFactorDb)

	lufsNorm := metrics.NormalizeToRange(lufsDist, 10.0, true)
	crestNorm := metrics.NormalizeToRange(crestDist, 8.0, true)

	intensity := lufsNorm*0.6 + crestNorm*0.4
	intensity *= 0.5 + confidence*0.5

	return metrics.Clip(intensity, 0, 1)
}

func describeAdjustments(analysis *types.ContentProfile, targetLufs, targetCrest float64, profileKey string) string {
	lufsChange := targetLufs - analysis.Dynamic.EstimatedLufs
	crestChange := targetCrest - analysis.Dynamic.CrestFactorDb

	var loudness string

	switch {
	case math.Abs(lufsChange) < 1:
		loudness = "minimal loudness adjustment"
	case lufsChange < -3:
		loudness = fmt.Sprintf("significant volume reduction (%.1f dB)", lufsChange)
	case lufsChange < 0:
		loudness = fmt.Sprintf("moderate volume reduction (%.1f dB)", lufsChange)
	case lufsChange > 3:
		loudness = fmt.Sprintf("significant volume increase (+%.1f dB)", lufsChange)
	default:
		loudness = fmt.Sprintf("moderate volume increase (+%.1f dB)", lufsChange)
	}

	var dynamics string

	switch {
	case math.Abs(crestChange) < 1:
		dynamics = "dynamics preserved"
	case crestChange < -2:
		dynamics = fmt.Sprintf("dynamics reduced (%.1f dB)", crestChange)
	case crestChange < 0:
		dynamics = fmt.Sprintf("dynamics slightly reduced (%.1f dB)", crestChange)
	case crestChange > 2:
		dynamics = fmt.Sprintf("dynamics enhanced (+%.1f dB)", crestChange)
	default:
		dynamics = fmt.Sprintf("dynamics slightly enhanced (+%.1f dB)", crestChange)
	}

	return fmt.Sprintf("%s, %s, using %s reference", loudness, dynamics, profileKey)
}

// Compare reports how far a measurement sits from a named profile.
func (m *Matcher) Compare(analysis *types.ContentProfile, profileKey string) (Comparison, error) {
	p := m.store.Get(profileKey)
	if p == nil {
		return Comparison{}, fmt.Errorf("profile %q not found", profileKey)
	}

	return Comparison{
		ProfileKey:       profileKey,
		LufsDiff:         p.Loudness.IntegratedLufs - analysis.Dynamic.EstimatedLufs,
		CrestDiff:        p.DynamicRange.CrestFactorDb - analysis.Dynamic.CrestFactorDb,
		BassPctDiff:      p.FrequencyResponse.BassEnergyPct - analysis.Spectral.BassPct,
		MidPctDiff:       p.FrequencyResponse.MidEnergyPct - analysis.Spectral.MidPct,
		BassMidRatioDiff: p.FrequencyResponse.BassToMidRatioDb - analysis.Spectral.BassToMidDb,
	}, nil
}
