package prompt

import (
	"strings"
	"testing"

	"advisor/internal/retrieval"
)

func TestComposeEmbedsQueryContextAndIDs(t *testing.T) {
	c := NewComposer()
	validIDs := map[string]struct{}{
		"MATH201": {},
		"CS101":   {},
		"CS301":   {},
	}

	p := c.Compose("I like AI", "RELEVANT COURSES FOUND: ...", retrieval.ConfidenceHigh, validIDs)

	for _, want := range []string{
		`STUDENT QUERY: "I like AI"`,
		"RELEVANT COURSES FOUND: ...",
		"CONFIDENCE LEVEL: HIGH",
		"valid JSON only",
		`"course_id"`,
		`"match_score"`,
		`"overall_confidence"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// IDs are sorted for deterministic prompts.
	if !strings.Contains(p, "CS101, CS301, MATH201") {
		t.Error("valid ID list not sorted")
	}
}

func TestComposeFallbackAddendum(t *testing.T) {
	c := NewComposer()
	ids := map[string]struct{}{"CS101": {}}

	normal := c.Compose("q", EmptyContext, retrieval.ConfidenceLow, ids)
	if strings.Contains(normal, "limited relevant results") {
		t.Error("non-fallback prompt carries the fallback addendum")
	}

	fb := c.Compose("q", EmptyContext, retrieval.ConfidenceFallback, ids)
	if !strings.Contains(fb, "limited relevant results") {
		t.Error("fallback prompt missing addendum")
	}
	if !strings.Contains(fb, "academic advisor") {
		t.Error("fallback addendum missing advisor guidance")
	}
}

func TestComposeDeterministic(t *testing.T) {
	c := NewComposer()
	ids := map[string]struct{}{"CS301": {}, "CS101": {}, "ENG102": {}}

	first := c.Compose("databases", "ctx", retrieval.ConfidenceMedium, ids)
	for i := 0; i < 10; i++ {
		if c.Compose("databases", "ctx", retrieval.ConfidenceMedium, ids) != first {
			t.Fatal("Compose output varies across calls with identical inputs")
		}
	}
}
