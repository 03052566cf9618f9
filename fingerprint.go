package auralis

import (
	"github.com/matiaszanolli/Auralis-sub001/internal/fingerprint"
)

// FingerprintDimensions is the size of the full perceptual fingerprint.
const FingerprintDimensions = fingerprint.Dimensions

// FingerprintMetrics maps feature names to values.
type FingerprintMetrics = fingerprint.Metrics

// FingerprintVector is a complete fingerprint with per-dimension
// confidences.
type FingerprintVector = fingerprint.Vector

// StreamingFingerprint is the online fingerprint orchestrator.
type StreamingFingerprint = fingerprint.StreamingFingerprint

// ExtractFingerprint computes the full 25-dimensional fingerprint of a
// buffer. Individual analyzer failures degrade to documented defaults;
// every returned value is finite and inside its declared range.
func ExtractFingerprint(buffer *Buffer) FingerprintVector {
	return fingerprint.Extract(buffer)
}

// FingerprintOrder returns the published fixed ordering of the vector's
// keys. Consumers should prefer the named keys; this order is the only
// sanctioned positional mapping.
func FingerprintOrder() []string {
	order := make([]string, fingerprint.Dimensions)
	for i, dim := range fingerprint.VectorOrder {
		order[i] = dim.Key
	}

	return order
}

// FlattenFingerprint orders the metric map into the fixed 25-entry slice.
func FlattenFingerprint(m FingerprintMetrics) []float64 {
	return fingerprint.Flatten(m)
}

// NewStreamingFingerprint builds the online orchestrator.
func NewStreamingFingerprint(sampleRate int, enableHarmonic bool) *StreamingFingerprint {
	return fingerprint.NewStreamingFingerprint(sampleRate, enableHarmonic)
}
