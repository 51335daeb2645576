// Package prompt builds the retrieved-course context block and composes the
// system and user prompts sent to the LLM gateway.
package prompt

import (
	"fmt"
	"strings"

	"advisor/internal/logging"
	"advisor/internal/retrieval"
)

// EmptyContext is the sentinel emitted when retrieval found nothing. The
// composer and downstream reasoning treat it as "no grounding available".
const EmptyContext = "No relevant courses found."

// maxContextCourses caps how many candidates are rendered into the context
// block regardless of how many were retrieved.
const maxContextCourses = 5

// BuildContext renders retrieved candidates into the numbered context block
// injected into the user prompt. Scores are formatted to three decimals so
// the model sees stable, comparable relevance numbers.
func BuildContext(candidates []retrieval.Candidate) string {
	if len(candidates) == 0 {
		return EmptyContext
	}

	var b strings.Builder
	b.WriteString("RELEVANT COURSES FOUND:")

	for i, cand := range candidates {
		if i >= maxContextCourses {
			break
		}
		c := cand.Course
		prereqs := c.Prerequisites
		if prereqs == "" {
			prereqs = "None"
		}

		fmt.Fprintf(&b, "\n\n%d. %s (%s)\n", i+1, c.Title, c.ID)
		fmt.Fprintf(&b, "   - Description: %s\n", c.Description)
		fmt.Fprintf(&b, "   - Credits: %d | Difficulty: %d/5\n", c.Credits, c.Difficulty)
		fmt.Fprintf(&b, "   - Category: %s | Semester: %s\n", c.Category, c.Semester)
		fmt.Fprintf(&b, "   - Prerequisites: %s\n", prereqs)
		fmt.Fprintf(&b, "   - Relevance Score: %.3f", cand.Similarity)
	}

	ctx := b.String()
	logging.PromptDebug("built context block: %d courses, %d chars", min(len(candidates), maxContextCourses), len(ctx))
	return ctx
}
