package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrAssessmentNotFound = goerr.New("assessment not found")
	ErrNotScored          = goerr.New("assessment has not been scored yet")

	// Conflict errors
	ErrRegenerationConflict = goerr.New("a newer generation is already committed")

	// Input errors
	ErrUnknownQuestion = goerr.New("question is not part of the assessment template")
	ErrInvalidInput    = goerr.New("invalid input")
)

// Context keys for error values
const (
	AssessmentIDKey = "assessment_id"
	GenerationIDKey = "generation_id"
	StateKey        = "state"
)
