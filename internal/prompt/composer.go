package prompt

import (
	"fmt"
	"sort"
	"strings"

	"advisor/internal/logging"
	"advisor/internal/retrieval"
)

// SystemPrompt is the system message sent with every structured request.
const SystemPrompt = "You are a course advisor. Always respond with valid JSON containing course " +
	"recommendations with required fields: course_id, title, justification, and match_score."

// structuredTemplate is the user prompt requesting strict JSON output.
// Placeholders: valid course IDs, query, context, confidence level.
const structuredTemplate = `You are an expert course advisor. Provide course recommendations in the following JSON format:

{
  "recommendations": [
    {
      "course_id": "CS101",
      "title": "Course Title",
      "justification": "Detailed explanation of why this course is recommended (minimum 50 characters)",
      "match_score": 0.85,
      "prerequisites_met": true,
      "difficulty_appropriate": true
    }
  ],
  "overall_confidence": 0.80,
  "justification": "Overall reasoning for these recommendations (minimum 100 characters)",
  "match_score": 0.80
}

IMPORTANT CONSTRAINTS:
- ONLY use course IDs from this valid list: %s
- Each justification must be at least 50 characters and specific to the course
- Match scores must be between 0.0 and 1.0
- Be honest about confidence levels
- If unsure, use lower match scores

STUDENT QUERY: "%s"

AVAILABLE COURSES:
%s

CONFIDENCE LEVEL: %s

Provide your response as valid JSON only:`

// fallbackAddendum is appended when retrieval confidence is FALLBACK, so
// the model acknowledges the weak grounding instead of inventing matches.
const fallbackAddendum = `

NOTE: The similarity search returned limited relevant results. Please provide general guidance and suggest the student:
1. Refine their query with more specific interests
2. Explore course categories that might align with their goals
3. Consider speaking with an academic advisor for personalized guidance`

// Composer builds the user prompt for a query from the context block and
// the valid course ID set.
type Composer struct{}

// NewComposer creates a Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose renders the structured user prompt. validIDs restricts which
// course IDs the model may emit; they are sorted for deterministic prompts.
func (c *Composer) Compose(query, context string, level retrieval.ConfidenceLevel, validIDs map[string]struct{}) string {
	timer := logging.StartTimer(logging.CategoryPrompt, "Composer.Compose")
	defer timer.Stop()

	ids := make([]string, 0, len(validIDs))
	for id := range validIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	p := fmt.Sprintf(structuredTemplate, strings.Join(ids, ", "), query, context, string(level))

	if level == retrieval.ConfidenceFallback {
		p += fallbackAddendum
	}

	logging.PromptDebug("composed prompt: %d chars, confidence=%s, %d valid IDs", len(p), level, len(ids))
	return p
}
