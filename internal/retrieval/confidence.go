package retrieval

// ConfidenceLevel grades how well retrieval supports answering a query.
type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceFallback ConfidenceLevel = "FALLBACK"
)

// Classifier maps similarity score distributions to confidence levels.
// SimilarityThreshold is the floor for the LOW tier; the HIGH and MEDIUM
// cut points are fixed.
type Classifier struct {
	SimilarityThreshold float64
}

// NewClassifier creates a Classifier with the given LOW-tier floor.
func NewClassifier(similarityThreshold float64) *Classifier {
	return &Classifier{SimilarityThreshold: similarityThreshold}
}

// Classify grades a set of similarity scores. The ladder is checked top
// down: strong max and mean give HIGH, weaker combinations degrade through
// MEDIUM and LOW, and anything below the threshold (or an empty result set)
// is FALLBACK.
func (c *Classifier) Classify(scores []float64) ConfidenceLevel {
	if len(scores) == 0 {
		return ConfidenceFallback
	}

	max := scores[0]
	var sum float64
	for _, s := range scores {
		if s > max {
			max = s
		}
		sum += s
	}
	mean := sum / float64(len(scores))

	switch {
	case max >= 0.6 && mean >= 0.4:
		return ConfidenceHigh
	case max >= 0.4 && mean >= 0.3:
		return ConfidenceMedium
	case max >= c.SimilarityThreshold:
		return ConfidenceLow
	default:
		return ConfidenceFallback
	}
}

// Explanation returns a human-readable description of a confidence level,
// used in reasoning traces.
func Explanation(level ConfidenceLevel) string {
	switch level {
	case ConfidenceHigh:
		return "Strong semantic match with multiple relevant courses"
	case ConfidenceMedium:
		return "Good semantic match with some relevant courses"
	case ConfidenceLow:
		return "Moderate semantic match, recommendations may be broad"
	case ConfidenceFallback:
		return "Limited semantic match, providing general guidance"
	default:
		return "Unknown confidence level"
	}
}
