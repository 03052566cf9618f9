package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

func testProfile(lufs, crest, bassPct, midPct, bassMid float64) *Profile {
	return &Profile{
		Loudness:     Loudness{IntegratedLufs: lufs},
		DynamicRange: DynamicRange{CrestFactorDb: crest},
		FrequencyResponse: FrequencyResponse{
			BassEnergyPct:    bassPct,
			MidEnergyPct:     midPct,
			HighEnergyPct:    100 - bassPct - midPct,
			BassToMidRatioDb: bassMid,
		},
	}
}

func testStore() *Store {
	return NewStoreFromProfiles(map[string]*Profile{
		"steven_wilson_2021":   testProfile(-18.3, 18.5, 55, 35, 0.9),
		"steven_wilson_2024":   testProfile(-21.0, 21.1, 74, 21, 5.5),
		"acdc_highway_to_hell": testProfile(-15.6, 17.7, 31, 67, -3.4),
		"blind_guardian":       testProfile(-16.0, 16.0, 62, 30, 3.8),
		"dio_holy_diver":       testProfile(-8.6, 11.6, 60, 33, 2.8),
		"joe_satriani":         testProfile(-10.6, 10.5, 67, 26, 4.4),
	})
}

func analysisWith(lufs, crest float64, match string, confidence float64) *types.ContentProfile {
	return &types.ContentProfile{
		Spectral: types.SpectralDescriptor{BassPct: 60, MidPct: 30, BassToMidDb: 3},
		Dynamic: types.DynamicDescriptor{
			EstimatedLufs: lufs,
			CrestFactorDb: crest,
		},
		ProfileMatch: match,
		Confidence:   confidence,
	}
}

func TestNewStoreMissingDirectory(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, fault.ErrMissingRequirements)
}

func TestNewStoreLoadsProfiles(t *testing.T) {
	dir := t.TempDir()

	data, err := json.Marshal(testProfile(-18.3, 18.5, 55, 35, 0.9))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steven_wilson_prodigal_2021.json"), data, 0o644))

	// One malformed file: tolerated with a warning.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dio_holy_diver_2005.json"), []byte("not json"), 0o644))

	store, err := NewStore(dir)
	require.NoError(t, err)

	assert.NotNil(t, store.Get("steven_wilson_2021"))
	assert.Nil(t, store.Get("dio_holy_diver"))
	assert.Nil(t, store.Get("bob_marley_legend"))
	assert.Len(t, store.Keys(), 1)
}

func TestGenerateTargetLoudnessWar(t *testing.T) {
	matcher := NewMatcher(testStore())

	// Loudness-war source matched against its own loud reference: the
	// reference sits close to the source, so intensity stays low.
	analysis := analysisWith(-8.0, 11.0, "joe_satriani", 0.85)
	target := matcher.GenerateTarget(analysis, true, "")

	assert.Equal(t, "joe_satriani", target.ProfileKey)
	assert.GreaterOrEqual(t, target.ProcessingIntensity, 0.0)
	assert.LessOrEqual(t, target.ProcessingIntensity, 1.0)
	assert.Contains(t, target.Adjustments, "reference")
}

func TestGenerateTargetUnknownProfileFallsBack(t *testing.T) {
	matcher := NewMatcher(testStore())

	analysis := analysisWith(-12, 13, "no_such_profile", 0.4)
	target := matcher.GenerateTarget(analysis, true, "")

	assert.Equal(t, DefaultKey, target.ProfileKey)
}

func TestGenerateTargetPreferenceOverride(t *testing.T) {
	matcher := NewMatcher(testStore())
	analysis := analysisWith(-12, 13, "blind_guardian", 0.8)

	audiophile := matcher.GenerateTarget(analysis, false, "audiophile")
	assert.Equal(t, "steven_wilson_2024", audiophile.ProfileKey)

	loud := matcher.GenerateTarget(analysis, false, "loud")
	assert.Equal(t, "dio_holy_diver", loud.ProfileKey)

	balanced := matcher.GenerateTarget(analysis, false, "balanced")
	assert.Equal(t, "blind_guardian", balanced.ProfileKey)

	// Unknown preference falls back to the default profile.
	unknown := matcher.GenerateTarget(analysis, false, "extreme")
	assert.Equal(t, DefaultKey, unknown.ProfileKey)
}

func TestCharacterPreservationClampsChanges(t *testing.T) {
	matcher := NewMatcher(testStore())

	// Source at -8 LUFS, reference at -21: the raw 13 dB drop is clamped
	// to 6 dB.
	analysis := analysisWith(-8.0, 12.0, "steven_wilson_2024", 0.9)
	target := matcher.GenerateTarget(analysis, true, "")

	assert.InDelta(t, -14.0, target.TargetLufs, 1e-9)

	// Crest change clamped to +4.
	assert.InDelta(t, 16.0, target.MinCrestFactor, 1e-9)
}

func TestCharacterPreservationKeepsDynamics(t *testing.T) {
	matcher := NewMatcher(testStore())

	// Source crest 18 exceeds the loud reference: never reduce dynamics
	// of an already dynamic master.
	analysis := analysisWith(-16, 18.0, "dio_holy_diver", 0.8)
	target := matcher.GenerateTarget(analysis, true, "")

	assert.GreaterOrEqual(t, target.MinCrestFactor, 18.0)
}

func TestIntensityScalesWithConfidence(t *testing.T) {
	matcher := NewMatcher(testStore())

	confident := matcher.GenerateTarget(analysisWith(-8, 11, "steven_wilson_2021", 1.0), false, "")
	hesitant := matcher.GenerateTarget(analysisWith(-8, 11, "steven_wilson_2021", 0.0), false, "")

	assert.Greater(t, confident.ProcessingIntensity, hesitant.ProcessingIntensity)
	assert.InDelta(t, confident.ProcessingIntensity*0.5, hesitant.ProcessingIntensity, 1e-9)
}

func TestCompare(t *testing.T) {
	matcher := NewMatcher(testStore())
	analysis := analysisWith(-12, 13, "blind_guardian", 0.8)

	cmp, err := matcher.Compare(analysis, "blind_guardian")
	require.NoError(t, err)

	assert.InDelta(t, -4.0, cmp.LufsDiff, 1e-9)
	assert.InDelta(t, 3.0, cmp.CrestDiff, 1e-9)

	_, err = matcher.Compare(analysis, "nope")
	assert.Error(t, err)
}
