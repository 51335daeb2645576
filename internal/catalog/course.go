// Package catalog holds the course catalog: the Course record, immutable
// Catalog snapshots, the JSON-backed Store, and a file watcher that drives
// atomic snapshot reloads.
package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// courseIDPattern matches canonical course identifiers such as CS101 or MATH202.
var courseIDPattern = regexp.MustCompile(`^[A-Z]{2,4}\d{3}$`)

// Course is a single catalog record.
type Course struct {
	ID            string `json:"code"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Credits       int    `json:"credits"`
	Difficulty    int    `json:"difficulty"` // 1-5
	Category      string `json:"category"`
	Semester      string `json:"semester"`
	Prerequisites string `json:"prerequisites"`
	Instructor    string `json:"instructor,omitempty"`
	Schedule      string `json:"schedule,omitempty"`
}

// ValidID reports whether id matches the canonical course ID shape.
func ValidID(id string) bool {
	return courseIDPattern.MatchString(id)
}

// Validate checks the record's structural invariants.
func (c Course) Validate() error {
	if !ValidID(c.ID) {
		return fmt.Errorf("invalid course ID %q: must match %s", c.ID, courseIDPattern.String())
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("course %s: title is required", c.ID)
	}
	if c.Difficulty < 1 || c.Difficulty > 5 {
		return fmt.Errorf("course %s: difficulty %d out of range [1,5]", c.ID, c.Difficulty)
	}
	if c.Credits < 0 {
		return fmt.Errorf("course %s: negative credits", c.ID)
	}
	return nil
}

// EmbeddingText renders the course as the text that gets embedded for
// similarity search. Field labels are kept stable so stored embeddings
// remain comparable across reloads.
func (c Course) EmbeddingText() string {
	parts := make([]string, 0, 4)
	if c.Title != "" {
		parts = append(parts, "Course: "+c.Title)
	}
	if c.Description != "" {
		parts = append(parts, "Description: "+c.Description)
	}
	if c.Category != "" {
		parts = append(parts, "Category: "+c.Category)
	}
	if c.Prerequisites != "" {
		parts = append(parts, "Prerequisites: "+c.Prerequisites)
	}
	return strings.Join(parts, "\n")
}
