// Package auralis is the core of an adaptive audio mastering engine: a
// content-aware analyzer, a continuous target generator and a streaming
// capable DSP chain that shift an unmastered buffer toward a learned
// reference point without snapping to a discrete preset.
//
// Usage:
//
//	analysis := auralis.AnalyzeContent(buffer)
//	proc, err := auralis.NewHybridProcessor(auralis.DefaultProcessorSettings(sr))
//	mastered, err := proc.Process(buffer)
package auralis

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matiaszanolli/Auralis-sub001/internal/dsputil"
	"github.com/matiaszanolli/Auralis-sub001/internal/metrics"
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Standard analysis bands: bass fundamentals, core musical content, air.
const (
	bassLow  = 20.0
	bassHigh = 250.0
	midHigh  = 4000.0
	highTop  = 20000.0
)

// AnalyzeContent inspects what the audio actually sounds like — never
// metadata — and matches it against the seven reference signatures. Too
// short or all-silent input yields a safe default profile with
// ProfileMatch "unknown" and low confidence.
func AnalyzeContent(buffer *Buffer) *ContentProfile {
	mono := buffer.Mono()

	if len(mono) == 0 || dsputil.Peak(mono) <= types.Epsilon {
		return defaultProfile()
	}

	spectral, ok := analyzeSpectralContent(mono, buffer.SampleRate)
	if !ok {
		return defaultProfile()
	}

	dynamic := analyzeDynamicContent(mono, buffer.SampleRate)
	energy := EnergyDescriptor{
		Rms:          dsputil.RMS(mono),
		SpectralFlux: dsputil.SpectralFlux(mono, buffer.SampleRate),
	}

	match, confidence := matchToProfile(spectral, dynamic)

	return &ContentProfile{
		Spectral:        spectral,
		Dynamic:         dynamic,
		Energy:          energy,
		ProfileMatch:    match,
		Confidence:      confidence,
		Characteristics: describeCharacteristics(spectral, dynamic),
	}
}

// defaultProfile is the safe stand-in for undecidable input (silence, too
// short). Its measurements sit at the parameter-space neutral point so a
// downstream target generator proposes essentially no processing.
func defaultProfile() *ContentProfile {
	return &ContentProfile{
		Spectral: SpectralDescriptor{
			BassPct: 55, MidPct: 35, HighPct: 10,
			BassToMidDb:      1.0,
			HighToMidDb:      -5.0,
			SpectralCentroid: 2000,
		},
		Dynamic: DynamicDescriptor{
			RmsDb:         -18,
			PeakDb:        -2,
			CrestFactorDb: 16,
			EstimatedLufs: -15,
		},
		ProfileMatch: "unknown",
		Confidence:   0.3,
		Characteristics: Characteristics{
			FrequencyBalance: "unknown",
			DynamicRange:     "unknown",
			EraEstimation:    "unknown",
		},
	}
}

// analyzeSpectralContent measures band energy over the whole buffer with a
// single full-length FFT. The bass/mid ratio is the strongest content
// differentiator (8.9 dB range across the references).
func analyzeSpectralContent(mono []float64, sampleRate int) (SpectralDescriptor, bool) {
	if len(mono) < 2 {
		return SpectralDescriptor{}, false
	}

	// Rectangular window over the full signal, matching the band-energy
	// definition (no spectral averaging wanted here).
	window := make([]float64, len(mono))
	for i := range window {
		window[i] = 1
	}

	mags := dsputil.Magnitudes(mono, window)
	binHz := float64(sampleRate) / float64(len(mono))

	var bassEnergy, midEnergy, highEnergy float64

	for bin, m := range mags {
		f := float64(bin) * binHz
		e := m * m

		switch {
		case f >= bassLow && f < bassHigh:
			bassEnergy += e
		case f >= bassHigh && f < midHigh:
			midEnergy += e
		case f >= midHigh && f <= highTop:
			highEnergy += e
		}
	}

	total := bassEnergy + midEnergy + highEnergy
	if total <= types.Epsilon {
		return SpectralDescriptor{}, false
	}

	bassToMid := metrics.SafeDivide(bassEnergy, midEnergy, 1.0)
	highToMid := metrics.SafeDivide(highEnergy, midEnergy, 1.0)

	return SpectralDescriptor{
		BassPct:          bassEnergy / total * 100,
		MidPct:           midEnergy / total * 100,
		HighPct:          highEnergy / total * 100,
		BassToMidDb:      10 * math.Log10(math.Max(bassToMid, types.Epsilon)),
		HighToMidDb:      10 * math.Log10(math.Max(highToMid, types.Epsilon)),
		SpectralCentroid: dsputil.SpectralCentroid(mags, binHz),
	}, true
}

func analyzeDynamicContent(mono []float64, sampleRate int) DynamicDescriptor {
	rms := dsputil.RMS(mono)
	peak := dsputil.Peak(mono)

	rmsDb := -100.0
	if rms > 0 {
		rmsDb = 20 * math.Log10(rms)
	}

	peakDb := -100.0
	if peak > 0 {
		peakDb = 20 * math.Log10(peak)
	}

	// RMS variation across 1-second windows.
	variationDb := 0.0

	if len(mono) > sampleRate {
		windowRMS := dsputil.FrameRMS(mono, sampleRate, sampleRate)

		mean := metrics.Mean(windowRMS)
		if mean > 0 {
			ratio := metrics.Std(windowRMS) / mean
			variationDb = 20 * math.Log10(math.Max(ratio, types.Epsilon))
		}
	}

	return DynamicDescriptor{
		RmsDb:          rmsDb,
		PeakDb:         peakDb,
		CrestFactorDb:  peakDb - rmsDb,
		EstimatedLufs:  rmsDb + 3.0,
		RmsVariationDb: variationDb,
	}
}

// matchToProfile walks the ordered decision tree over the key quantities.
// The first clause that fires wins; mid-dominance is checked first because
// it is by far the rarest signature.
func matchToProfile(spectral SpectralDescriptor, dynamic DynamicDescriptor) (string, float64) {
	bassMid := spectral.BassToMidDb
	crest := dynamic.CrestFactorDb
	bassPct := spectral.BassPct
	midPct := spectral.MidPct

	switch {
	case midPct > 50 && bassMid < 0:
		log.Debug("detected classic rock", "mid_pct", midPct, "bass_mid_db", bassMid)

		return "acdc_highway_to_hell", 0.95

	case crest > 19:
		if bassPct > 70 {
			return "steven_wilson_2024", 0.90
		}

		return "steven_wilson_2021", 0.85

	case crest > 17:
		if bassMid > 0 {
			return "steven_wilson_2021", 0.80
		}

		return "acdc_highway_to_hell", 0.75

	case crest > 15 && crest <= 17 && bassMid > 3:
		return "blind_guardian", 0.85

	case bassPct > 58 && bassPct < 70 && crest > 11 && crest < 13 && bassMid < 4.5:
		return "bob_marley_legend", 0.75

	case crest < 12:
		if bassMid > 3.5 {
			return "joe_satriani", 0.85
		}

		if crest < 11.8 {
			return "dio_holy_diver", 0.80
		}

		return "bob_marley_legend", 0.70
	}

	return "steven_wilson_2021", 0.50
}

func describeCharacteristics(spectral SpectralDescriptor, dynamic DynamicDescriptor) Characteristics {
	var balance string

	switch {
	case spectral.MidPct > 55:
		balance = "mid-dominant (classic rock style)"
	case spectral.BassPct > 65:
		balance = "bass-heavy (modern production)"
	case spectral.BassPct > 50:
		balance = "bass-forward"
	default:
		balance = "balanced"
	}

	var dynamicDesc string

	crest := dynamic.CrestFactorDb

	switch {
	case crest > 17:
		dynamicDesc = "highly dynamic (audiophile quality)"
	case crest > 14:
		dynamicDesc = "good dynamics"
	case crest > 12:
		dynamicDesc = "moderate dynamics"
	default:
		dynamicDesc = "heavily compressed (loudness war)"
	}

	var era string

	switch {
	case crest > 17 && spectral.BassToMidDb < 0:
		era = "analog/classic era (pre-1990s)"
	case crest > 17:
		era = "modern audiophile (2010s+)"
	case crest < 12:
		era = "loudness war (2000-2015)"
	default:
		era = "balanced modern (2015+)"
	}

	return Characteristics{
		FrequencyBalance: balance,
		DynamicRange:     dynamicDesc,
		EraEstimation:    era,
	}
}
