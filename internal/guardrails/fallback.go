package guardrails

import (
	"fmt"

	"advisor/internal/logging"
)

// fallbackTemplate is the deterministic guidance returned when validation or
// confidence fails. It deliberately names no course IDs, so the fallback
// path cannot hallucinate.
const fallbackTemplate = `I apologize, but I couldn't provide specific course recommendations for your query due to validation constraints. This might be because:

1. The query is too broad or unclear
2. No courses closely match your specific interests
3. There were technical issues processing your request

For general guidance, I recommend:
- Starting with core computer science fundamentals
- Consulting with an academic advisor for personalized planning
- Exploring the course catalog to discover areas of interest
- Considering your prerequisite completion and academic level

Please try rephrasing your query with more specific interests or academic goals.`

// FallbackSynthesizer produces safe, generic responses when the pipeline
// cannot stand behind specific recommendations. Template-based, never calls
// the LLM.
type FallbackSynthesizer struct{}

// NewFallbackSynthesizer creates a FallbackSynthesizer.
func NewFallbackSynthesizer() *FallbackSynthesizer {
	return &FallbackSynthesizer{}
}

// Synthesize returns the fallback response for a query. The response always
// has no recommendations, zero scores, and a warning carrying the reason.
func (f *FallbackSynthesizer) Synthesize(query, reason string) ValidatedResponse {
	logging.GuardrailsDebug("synthesizing fallback response: %s", reason)

	return ValidatedResponse{
		Query:             query,
		Recommendations:   []Recommendation{},
		OverallConfidence: 0.0,
		Justification:     fallbackTemplate,
		MatchScore:        0.0,
		FallbackTriggered: true,
		ValidationPassed:  false,
		Warnings:          []string{fmt.Sprintf("Fallback triggered: %s", reason)},
		Metadata:          map[string]string{"fallback_reason": reason},
	}
}
