package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

func profileWith(lufs, crest, bassMid, bassPct, midPct float64) *types.ContentProfile {
	return &types.ContentProfile{
		Spectral: types.SpectralDescriptor{
			BassPct:     bassPct,
			MidPct:      midPct,
			HighPct:     100 - bassPct - midPct,
			BassToMidDb: bassMid,
		},
		Dynamic: types.DynamicDescriptor{
			EstimatedLufs: lufs,
			CrestFactorDb: crest,
		},
		Confidence: 0.9,
	}
}

func TestLoudnessWarRestoration(t *testing.T) {
	// Crushed dynamics, extreme bass: the generator proposes restoring
	// dynamics and pulling loudness down.
	p := profileWith(-9.5, 11.0, 4.0, 71, 20)

	tgt := Generate(p, IntentNone, 0.7)

	assert.Greater(t, tgt.CrestChange, 0.0)
	assert.Less(t, tgt.LufsChange, 0.0)
	assert.Greater(t, tgt.ProcessingIntensity, 0.0)
	assert.Equal(t, 0.7, tgt.PreserveCharacter)
}

func TestMidDominantBalancePreserved(t *testing.T) {
	// The classic mid-dominant signature is rare; the spectral balance
	// must survive untouched regardless of the blend.
	p := profileWith(-15.6, 17.7, -3.4, 30, 67)

	tgt := Generate(p, IntentNone, 0.7)

	assert.InDelta(t, -3.4, tgt.TargetBassMidRatio, 1e-9)
	assert.InDelta(t, 30, tgt.TargetBassPct, 1e-9)
	assert.InDelta(t, 67, tgt.TargetMidPct, 1e-9)
	assert.InDelta(t, 0.0, tgt.BassMidChange, 1e-9)
}

func TestExcellentDynamicsEnhanced(t *testing.T) {
	p := profileWith(-18.3, 18.5, 0.9, 55, 35)

	tgt := Generate(p, IntentNone, 0.0)

	// Slight enhancement, capped by the space.
	assert.InDelta(t, 19.0, tgt.TargetCrestFactor, 1e-9)
	assert.LessOrEqual(t, tgt.TargetCrestFactor, BoundCrest.Max)
}

func TestModerateDynamicsAimNeutral(t *testing.T) {
	p := profileWith(-14, 14.0, 2.0, 55, 35)

	tgt := Generate(p, IntentNone, 0.0)
	assert.InDelta(t, BoundCrest.Neutral, tgt.TargetCrestFactor, 1e-9)
}

func TestExtremeBassRebalanced(t *testing.T) {
	p := profileWith(-12, 14.0, 5.0, 74, 22)

	tgt := Generate(p, IntentNone, 0.0)

	assert.InDelta(t, 69, tgt.TargetBassPct, 1e-9)
	assert.InDelta(t, 25, tgt.TargetMidPct, 1e-9)
	assert.InDelta(t, 4.5, tgt.TargetBassMidRatio, 1e-9)
}

func TestUserIntents(t *testing.T) {
	p := profileWith(-14, 14.0, 2.0, 55, 35)

	base := Generate(p, IntentNone, 0.0)
	audiophile := Generate(p, IntentAudiophile, 0.0)
	punchy := Generate(p, IntentPunchy, 0.0)
	preserve := Generate(p, IntentPreserve, 0.0)

	assert.Greater(t, audiophile.TargetCrestFactor, base.TargetCrestFactor)
	assert.Less(t, audiophile.TargetLufs, base.TargetLufs)

	assert.Less(t, punchy.TargetCrestFactor, base.TargetCrestFactor)
	assert.GreaterOrEqual(t, punchy.TargetCrestFactor, 14.0)
	assert.Greater(t, punchy.TargetLufs, base.TargetLufs)
	assert.LessOrEqual(t, punchy.TargetLufs, -12.0)

	// Preserve halves every move relative to the source.
	assert.InDelta(t, p.Dynamic.CrestFactorDb+(base.TargetCrestFactor-p.Dynamic.CrestFactorDb)*0.5,
		preserve.TargetCrestFactor, 1e-9)
}

func TestPreserveCharacterExtremes(t *testing.T) {
	p := profileWith(-9.5, 11.0, 4.0, 65, 25)

	kept := Generate(p, IntentNone, 1.0)
	assert.InDelta(t, p.Dynamic.CrestFactorDb, kept.TargetCrestFactor, 1e-9)
	assert.InDelta(t, p.Dynamic.EstimatedLufs, kept.TargetLufs, 1e-9)
	assert.InDelta(t, 0.0, kept.ProcessingIntensity, 1e-9)

	full := Generate(p, IntentNone, 0.0)
	assert.Greater(t, full.ProcessingIntensity, kept.ProcessingIntensity)
}

func TestNeutralSourceNeedsNoWork(t *testing.T) {
	// A source sitting at the neutral point of the space produces near
	// zero deltas and intensity.
	p := profileWith(-15, 16.0, 1.0, 55, 35)

	tgt := Generate(p, IntentNone, 0.7)

	assert.InDelta(t, 0.0, tgt.CrestChange, 0.1)
	assert.InDelta(t, 0.0, tgt.LufsChange, 0.2)
	assert.Less(t, tgt.ProcessingIntensity, 0.05)
}

func TestIntensityClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := profileWith(
			rapid.Float64Range(-40, 0).Draw(t, "lufs"),
			rapid.Float64Range(0, 30).Draw(t, "crest"),
			rapid.Float64Range(-10, 10).Draw(t, "bassMid"),
			rapid.Float64Range(0, 100).Draw(t, "bassPct"),
			rapid.Float64Range(0, 100).Draw(t, "midPct"),
		)

		preserve := rapid.Float64Range(0, 1).Draw(t, "preserve")

		tgt := Generate(p, IntentNone, preserve)

		assert.GreaterOrEqual(t, tgt.ProcessingIntensity, 0.0)
		assert.LessOrEqual(t, tgt.ProcessingIntensity, 1.0)
	})
}

func TestParameterSpaceInfo(t *testing.T) {
	info := Info()

	require.Equal(t, 5, info.Dimensions)
	require.Len(t, info.DimensionNames, 5)
	assert.Equal(t, -0.85, info.LufsCrestCorr)
	assert.Equal(t, 7, info.ReferencePoints)
	assert.Equal(t, BoundLufs, info.Lufs)
}
