package guardrails

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"advisor/internal/catalog"
	"advisor/internal/logging"
)

// unrealisticClaims are phrases that indicate overconfident language in a
// justification. Matches produce warnings, not rejections.
var unrealisticClaims = []*regexp.Regexp{
	regexp.MustCompile(`(?i)100% guaranteed`),
	regexp.MustCompile(`(?i)perfect course`),
	regexp.MustCompile(`(?i)never fails`),
	regexp.MustCompile(`(?i)instant expertise`),
	regexp.MustCompile(`(?i)no prerequisites needed`),
}

const (
	minJustificationLen        = 50
	minOverallJustificationLen = 100
	defaultMaxRecommendations  = 5

	// consistencyTolerance is the largest allowed gap between the stated
	// overall confidence and the mean of individual match scores before a
	// warning is recorded.
	consistencyTolerance = 0.3
)

// CourseValidator checks course IDs against the catalog and scans free text
// for hallucinated IDs and unrealistic claims.
type CourseValidator struct {
	cat      *catalog.Catalog
	validIDs map[string]struct{}
}

// NewCourseValidator creates a CourseValidator for a catalog snapshot.
func NewCourseValidator(cat *catalog.Catalog) *CourseValidator {
	v := &CourseValidator{
		cat:      cat,
		validIDs: cat.ValidIDs(),
	}
	logging.Guardrails("course validator initialized with %d valid IDs", len(v.validIDs))
	return v
}

// ValidateID reports whether the course ID exists in the catalog.
func (v *CourseValidator) ValidateID(id string) bool {
	_, ok := v.validIDs[id]
	return ok
}

// Lookup returns catalog details for a valid course ID.
func (v *CourseValidator) Lookup(id string) (catalog.Course, bool) {
	return v.cat.Lookup(id)
}

// DetectHallucinations scans text for course-ID-shaped tokens not in the
// catalog and for unrealistic-claim phrases. Returns issue descriptions.
func (v *CourseValidator) DetectHallucinations(text string) []string {
	var issues []string

	for _, id := range courseIDToken.FindAllString(text, -1) {
		if !v.ValidateID(id) {
			issues = append(issues, fmt.Sprintf("Potential hallucinated course ID: %s", id))
		}
	}

	for _, claim := range unrealisticClaims {
		if claim.MatchString(text) {
			issues = append(issues, fmt.Sprintf("Potentially unrealistic claim detected: %s", claim.String()))
		}
	}

	return issues
}

// Validator runs the FILTER, SCORE, and DECISION steps over a parsed
// response and produces the final ValidatedResponse.
type Validator struct {
	courses             *CourseValidator
	confidenceThreshold float64
	maxRecommendations  int
	fallback            *FallbackSynthesizer
}

// NewValidator creates a Validator. confidenceThreshold is the minimum
// overall confidence for accepting a response; maxRecommendations caps the
// accepted list (values <= 0 use the default of 5).
func NewValidator(courses *CourseValidator, confidenceThreshold float64, maxRecommendations int) *Validator {
	if maxRecommendations <= 0 {
		maxRecommendations = defaultMaxRecommendations
	}
	logging.Guardrails("output validator initialized: confidence threshold %.2f, max recommendations %d",
		confidenceThreshold, maxRecommendations)
	return &Validator{
		courses:             courses,
		confidenceThreshold: confidenceThreshold,
		maxRecommendations:  maxRecommendations,
		fallback:            NewFallbackSynthesizer(),
	}
}

// Validate filters a parsed response against the catalog, computes aggregate
// scores, and decides between acceptance and fallback.
func (v *Validator) Validate(parsed ParsedResponse, query string) ValidatedResponse {
	timer := logging.StartTimer(logging.CategoryGuardrails, "Validator.Validate")
	defer timer.Stop()

	var warnings []string
	validationPassed := true

	// FILTER: each candidate must name a real course and satisfy the
	// structural constraints.
	var accepted []Recommendation
	for _, rec := range parsed.Recommendations {
		if !v.courses.ValidateID(rec.CourseID) {
			warnings = append(warnings, fmt.Sprintf("Invalid course ID filtered: %s", rec.CourseID))
			validationPassed = false
			continue
		}

		warnings = append(warnings, v.courses.DetectHallucinations(rec.Justification)...)

		score := 0.5
		if rec.MatchScore != nil {
			score = *rec.MatchScore
		}
		if score < 0.0 || score > 1.0 {
			warnings = append(warnings, fmt.Sprintf("Recommendation %s dropped: match score %s out of range [0,1]",
				rec.CourseID, strconv.FormatFloat(score, 'f', -1, 64)))
			validationPassed = false
			continue
		}

		title := rec.Title
		if course, ok := v.courses.Lookup(rec.CourseID); ok {
			title = course.Title
		}

		// Short justifications are padded rather than rejected. This keeps
		// otherwise-sound recommendations at the cost of a weaker length
		// guarantee.
		justification := rec.Justification
		if len(justification) < minJustificationLen {
			justification = fmt.Sprintf("Recommended course for your interests: %s. This course provides valuable knowledge and skills.", justification)
		}

		prereqsMet := true
		if rec.PrerequisitesMet != nil {
			prereqsMet = *rec.PrerequisitesMet
		}
		difficultyOK := true
		if rec.DifficultyAppropriate != nil {
			difficultyOK = *rec.DifficultyAppropriate
		}

		accepted = append(accepted, Recommendation{
			CourseID:              rec.CourseID,
			Title:                 title,
			Justification:         justification,
			MatchScore:            score,
			PrerequisitesMet:      prereqsMet,
			DifficultyAppropriate: difficultyOK,
		})

		if len(accepted) >= v.maxRecommendations {
			break
		}
	}

	// SCORE: derive aggregates from the model's values when present, the
	// accepted scores otherwise.
	var meanScore float64
	if len(accepted) > 0 {
		var sum float64
		for _, rec := range accepted {
			sum += rec.MatchScore
		}
		meanScore = sum / float64(len(accepted))
	}

	overallConfidence := 0.0
	switch {
	case parsed.OverallConfidence != nil:
		overallConfidence = *parsed.OverallConfidence
	case len(accepted) > 0:
		overallConfidence = meanScore
	}
	if overallConfidence < 0.0 || overallConfidence > 1.0 {
		warnings = append(warnings, fmt.Sprintf("Overall confidence %.2f out of range, clamped", overallConfidence))
		overallConfidence = math.Max(0.0, math.Min(1.0, overallConfidence))
		validationPassed = false
	}

	matchScore := overallConfidence
	if parsed.MatchScore != nil {
		matchScore = math.Max(0.0, math.Min(1.0, *parsed.MatchScore))
	}

	// Consistency between stated confidence and individual scores is a
	// warning, not a rejection.
	if len(accepted) > 0 && math.Abs(overallConfidence-meanScore) > consistencyTolerance {
		warnings = append(warnings, fmt.Sprintf(
			"Overall confidence %.2f inconsistent with mean match score %.2f", overallConfidence, meanScore))
	}

	// DECISION
	fallbackTriggered := overallConfidence < v.confidenceThreshold ||
		len(accepted) == 0 ||
		!validationPassed

	metadata := map[string]string{
		"original_recommendation_count": strconv.Itoa(len(parsed.Recommendations)),
		"filtered_recommendation_count": strconv.Itoa(len(accepted)),
	}

	if fallbackTriggered {
		reason := fallbackReason(overallConfidence, v.confidenceThreshold, len(accepted), validationPassed)
		logging.Guardrails("fallback triggered for query %q: %s", query, reason)

		resp := v.fallback.Synthesize(query, reason)
		resp.Warnings = append(warnings, resp.Warnings...)
		for k, val := range metadata {
			resp.Metadata[k] = val
		}
		return resp
	}

	justification := parsed.Justification
	if justification == "" {
		justification = "No specific justification provided"
	}
	if len(justification) < minOverallJustificationLen {
		justification += ". Based on the analysis of your query and available courses, these recommendations aim to provide relevant learning opportunities that align with your stated interests and academic goals."
	}

	logging.Guardrails("response accepted: %d recommendations, confidence=%.2f, %d warnings",
		len(accepted), overallConfidence, len(warnings))

	return ValidatedResponse{
		Query:             query,
		Recommendations:   accepted,
		OverallConfidence: overallConfidence,
		Justification:     justification,
		MatchScore:        matchScore,
		FallbackTriggered: false,
		ValidationPassed:  true,
		Warnings:          warnings,
		Metadata:          metadata,
	}
}

func fallbackReason(confidence, threshold float64, acceptedCount int, validationPassed bool) string {
	var reasons []string
	if confidence < threshold {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, threshold))
	}
	if acceptedCount == 0 {
		reasons = append(reasons, "no valid recommendations")
	}
	if !validationPassed {
		reasons = append(reasons, "validation errors during filtering")
	}
	return strings.Join(reasons, "; ")
}
