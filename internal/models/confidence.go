package models

// Confidence marks whether a result came from real input or from a fallback path.
type Confidence string

const (
	// ConfidenceHigh means the result was computed from complete input.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow means a fallback filled in part of the result.
	ConfidenceLow Confidence = "low"
	// ConfidenceUnknown means there was no input to compute from.
	ConfidenceUnknown Confidence = "unknown"
)

// Lower returns the weaker of two confidences.
func (c Confidence) Lower(other Confidence) Confidence {
	if c.rank() <= other.rank() {
		return c
	}
	return other
}

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}
