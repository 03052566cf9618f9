//nolint:staticcheck // too dumb with Db
package auralis

import (
	"github.com/matiaszanolli/Auralis-sub001/internal/types"
)

// Re-exported core data model. The internal packages share these types;
// aliasing keeps one definition.
type (
	Buffer             = types.Buffer
	SpectralDescriptor = types.SpectralDescriptor
	DynamicDescriptor  = types.DynamicDescriptor
	EnergyDescriptor   = types.EnergyDescriptor
	Characteristics    = types.Characteristics
	ContentProfile     = types.ContentProfile
	Target             = types.Target
)

// NewMono wraps a mono sample slice in a Buffer.
func NewMono(samples []float64, sampleRate int) *Buffer {
	return types.NewMono(samples, sampleRate)
}

var (
	ErrEmptyBuffer       = types.ErrEmptyBuffer
	ErrNonFiniteSamples  = types.ErrNonFiniteSamples
	ErrInvalidSampleRate = types.ErrInvalidSampleRate
	ErrShapeViolation    = types.ErrShapeViolation
)
