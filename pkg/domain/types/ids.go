package types

import (
	"regexp"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+([-_.][a-z0-9]+)*$`)

// ThreatID identifies a threat in the threat catalog
type ThreatID string

// Validate checks if the ThreatID is valid
func (x ThreatID) Validate() error {
	if x == "" {
		return goerr.New("threat ID cannot be empty")
	}
	if !idPattern.MatchString(string(x)) {
		return goerr.New("threat ID must be lowercase alphanumeric with separators", goerr.V("id", x))
	}
	return nil
}

func (x ThreatID) String() string { return string(x) }

// ControlID identifies a mitigating control in the control catalog
type ControlID string

// Validate checks if the ControlID is valid
func (x ControlID) Validate() error {
	if x == "" {
		return goerr.New("control ID cannot be empty")
	}
	if !idPattern.MatchString(string(x)) {
		return goerr.New("control ID must be lowercase alphanumeric with separators", goerr.V("id", x))
	}
	return nil
}

func (x ControlID) String() string { return string(x) }

// QuestionID identifies a questionnaire question
type QuestionID string

// Validate checks if the QuestionID is valid
func (x QuestionID) Validate() error {
	if x == "" {
		return goerr.New("question ID cannot be empty")
	}
	if !idPattern.MatchString(string(x)) {
		return goerr.New("question ID must be lowercase alphanumeric with separators", goerr.V("id", x))
	}
	return nil
}

func (x QuestionID) String() string { return string(x) }

// SectionID identifies a questionnaire section
type SectionID string

func (x SectionID) String() string { return string(x) }

// TemplateID identifies a facility questionnaire template (warehouse, datacenter, ...)
type TemplateID string

// Validate checks if the TemplateID is valid
func (x TemplateID) Validate() error {
	if x == "" {
		return goerr.New("template ID cannot be empty")
	}
	if !idPattern.MatchString(string(x)) {
		return goerr.New("template ID must be lowercase alphanumeric with separators", goerr.V("id", x))
	}
	return nil
}

func (x TemplateID) String() string { return string(x) }

// AssessmentID identifies a facility assessment. IDs are assigned by the repository.
type AssessmentID int64

func (x AssessmentID) String() string { return strconv.FormatInt(int64(x), 10) }

// ParseAssessmentID parses a decimal assessment ID
func ParseAssessmentID(s string) (AssessmentID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, goerr.New("invalid assessment ID", goerr.V("id", s))
	}
	return AssessmentID(v), nil
}

// ScenarioID identifies one persisted risk scenario row
type ScenarioID string

func (x ScenarioID) String() string { return string(x) }

// GenerationID identifies one regeneration run. Values are UUIDv7 so that
// lexical order equals creation order.
type GenerationID string

func (x GenerationID) String() string { return string(x) }

// Before reports whether x was created before other
func (x GenerationID) Before(other GenerationID) bool { return x < other }
