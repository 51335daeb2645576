// Package guardrails validates LLM output before it is trusted: parsing raw
// completions, filtering hallucinated course IDs, enforcing field
// constraints, and synthesizing safe fallback responses.
package guardrails

// Recommendation is a single validated course recommendation.
type Recommendation struct {
	CourseID              string  `json:"course_id"`
	Title                 string  `json:"title"`
	Justification         string  `json:"justification"`
	MatchScore            float64 `json:"match_score"`
	PrerequisitesMet      bool    `json:"prerequisites_met"`
	DifficultyAppropriate bool    `json:"difficulty_appropriate"`
}

// ValidatedResponse is the unit returned to callers for every query.
// Constructed once per query and immutable after return.
type ValidatedResponse struct {
	Query             string            `json:"query"`
	Recommendations   []Recommendation  `json:"recommendations"`
	OverallConfidence float64           `json:"overall_confidence"`
	Justification     string            `json:"justification"`
	MatchScore        float64           `json:"match_score"`
	FallbackTriggered bool              `json:"fallback_triggered"`
	ValidationPassed  bool              `json:"validation_passed"`
	Warnings          []string          `json:"warnings"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ParsedResponse is the loosely-typed shape extracted from raw LLM text
// before validation. Optional numeric fields are pointers so "absent" and
// "zero" stay distinguishable.
type ParsedResponse struct {
	Recommendations   []ParsedRecommendation `json:"recommendations"`
	OverallConfidence *float64               `json:"overall_confidence"`
	Justification     string                 `json:"justification"`
	MatchScore        *float64               `json:"match_score"`
}

// ParsedRecommendation mirrors the JSON shape the prompt asks the model to
// emit. Boolean flags default to true when the model omits them.
type ParsedRecommendation struct {
	CourseID              string   `json:"course_id"`
	Title                 string   `json:"title"`
	Justification         string   `json:"justification"`
	MatchScore            *float64 `json:"match_score"`
	PrerequisitesMet      *bool    `json:"prerequisites_met"`
	DifficultyAppropriate *bool    `json:"difficulty_appropriate"`
}
