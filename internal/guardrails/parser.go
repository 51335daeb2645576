package guardrails

import (
	"encoding/json"
	"regexp"
	"strings"

	"advisor/internal/catalog"
	"advisor/internal/logging"
)

// courseIDToken matches course-ID-shaped tokens anywhere in free text.
var courseIDToken = regexp.MustCompile(`\b[A-Z]{2,4}\d{3}\b`)

// Default scores assigned when the model's output had to be recovered by
// pattern extraction instead of JSON decoding.
const (
	extractedMatchScore   = 0.7
	extractedOverallScore = 0.5
)

// Parser extracts structured data from raw LLM text. It never fails:
// malformed input degrades to pattern extraction against the catalog.
type Parser struct {
	cat *catalog.Catalog
}

// NewParser creates a Parser bound to a catalog snapshot. The snapshot is
// used to resolve course titles during pattern extraction.
func NewParser(cat *catalog.Catalog) *Parser {
	return &Parser{cat: cat}
}

// Parse extracts a ParsedResponse from raw text. Strategy: decode the first
// balanced JSON object if one exists; otherwise scan for course-ID tokens
// and synthesize minimal recommendations with default scores.
func (p *Parser) Parse(raw string) ParsedResponse {
	timer := logging.StartTimer(logging.CategoryGuardrails, "Parser.Parse")
	defer timer.Stop()

	if obj := extractJSONObject(raw); obj != "" {
		var parsed ParsedResponse
		if err := json.Unmarshal([]byte(obj), &parsed); err == nil {
			logging.GuardrailsDebug("parsed JSON response: %d recommendations", len(parsed.Recommendations))
			return parsed
		}
		logging.GuardrailsDebug("JSON object found but failed to decode, falling back to pattern extraction")
	}

	return p.extractFromText(raw)
}

// extractFromText recovers recommendations from unstructured text by
// matching course-ID tokens against the catalog.
func (p *Parser) extractFromText(raw string) ParsedResponse {
	overall := extractedOverallScore
	parsed := ParsedResponse{
		Justification: raw,
		MatchScore:    &overall,
	}

	seen := make(map[string]bool)
	for _, id := range courseIDToken.FindAllString(raw, -1) {
		if len(parsed.Recommendations) >= 5 {
			break
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		course, ok := p.cat.Lookup(id)
		if !ok {
			continue
		}

		score := extractedMatchScore
		parsed.Recommendations = append(parsed.Recommendations, ParsedRecommendation{
			CourseID:      id,
			Title:         course.Title,
			Justification: "Recommended based on content analysis",
			MatchScore:    &score,
		})
	}

	logging.GuardrailsDebug("pattern extraction recovered %d recommendations", len(parsed.Recommendations))
	return parsed
}

// extractJSONObject returns the first balanced {...} substring, respecting
// string literals and escapes. Returns "" if none exists.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}
