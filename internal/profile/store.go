// Package profile holds the reference mastering profiles: pre-measured
// source characteristics of seven diverse masters, loaded once from a JSON
// directory and read-only thereafter, plus the matcher that turns a
// content analysis into a concrete processing target.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/farcloser/primordium/fault"
)

// TrackInfo identifies the reference recording.
type TrackInfo struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	Year         int    `json:"year"`
	RemasterYear int    `json:"remaster_year"`
	Engineer     string `json:"engineer"`
	Genre        string `json:"genre"`
	Format       string `json:"format"`
}

// Loudness holds the measured loudness metrics.
type Loudness struct {
	IntegratedLufs float64 `json:"integrated_lufs"`
	RmsDb          float64 `json:"rms_db"`
	PeakDb         float64 `json:"peak_db"`
}

// DynamicRange holds the measured dynamics metrics.
type DynamicRange struct {
	CrestFactorDb float64 `json:"crest_factor_db"`
	PeakDb        float64 `json:"peak_db"`
	RmsDb         float64 `json:"rms_db"`
}

// FrequencyResponse holds the measured frequency balance.
type FrequencyResponse struct {
	BassEnergyPct      float64 `json:"bass_energy_pct"`
	MidEnergyPct       float64 `json:"mid_energy_pct"`
	HighEnergyPct      float64 `json:"high_energy_pct"`
	BassToMidRatioDb   float64 `json:"bass_to_mid_ratio_db"`
	HighToMidRatioDb   float64 `json:"high_to_mid_ratio_db"`
	SpectralCentroidHz float64 `json:"spectral_centroid_hz"`
	SpectralRolloffHz  float64 `json:"spectral_rolloff_hz"`
}

// StereoField holds the measured stereo image.
type StereoField struct {
	StereoWidth  float64 `json:"stereo_width"`
	SideEnergyDb float64 `json:"side_energy_db"`
	Correlation  float64 `json:"correlation"`
}

// Profile is one reference record. ThirdOctaveBands maps center frequency
// (as a string key, Hz) to a dB level.
type Profile struct {
	TrackInfo         TrackInfo          `json:"track_info"`
	Loudness          Loudness           `json:"loudness"`
	DynamicRange      DynamicRange       `json:"dynamic_range"`
	FrequencyResponse FrequencyResponse  `json:"frequency_response"`
	StereoField       StereoField        `json:"stereo_field"`
	ThirdOctaveBands  map[string]float64 `json:"third_octave_bands"`
}

// DefaultKey is the balanced fallback profile.
const DefaultKey = "steven_wilson_2021"

// profileFiles maps stable profile keys to their JSON file names.
var profileFiles = map[string]string{
	"steven_wilson_2021":   "steven_wilson_prodigal_2021.json",
	"steven_wilson_2024":   "steven_wilson_normal_2024.json",
	"acdc_highway_to_hell": "acdc_highway_to_hell_2003.json",
	"blind_guardian":       "power_metal_blind_guardian.json",
	"bob_marley_legend":    "bob_marley_legend_2002.json",
	"joe_satriani":         "joe_satriani_cant_go_back_2014.json",
	"dio_holy_diver":       "dio_holy_diver_2005.json",
}

// Store is the loaded, read-only profile set.
type Store struct {
	profiles map[string]*Profile
}

// NewStore loads every known profile from dir. A missing directory is a
// hard error; individually missing or malformed files are tolerated with a
// warning so a partial profile set still works.
func NewStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: profile directory %q", fault.ErrMissingRequirements, dir)
	}

	store := &Store{profiles: map[string]*Profile{}}

	for key, filename := range profileFiles {
		path := filepath.Join(dir, filename)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("reference profile not found", "key", key, "path", path)

			continue
		}

		var p Profile

		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn("reference profile unreadable",
				"key", key, "path", path, "err", fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err))

			continue
		}

		store.profiles[key] = &p
	}

	log.Debug("reference profiles loaded", "count", len(store.profiles))

	return store, nil
}

// NewStoreFromProfiles builds a store from in-memory profiles (used by
// consumers that manage their own persistence).
func NewStoreFromProfiles(profiles map[string]*Profile) *Store {
	copied := make(map[string]*Profile, len(profiles))
	for k, v := range profiles {
		copied[k] = v
	}

	return &Store{profiles: copied}
}

// Get returns the profile for key, or nil when absent.
func (s *Store) Get(key string) *Profile {
	return s.profiles[key]
}

// Keys lists the loaded profile keys.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}

	return keys
}
