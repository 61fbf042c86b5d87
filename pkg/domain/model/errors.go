package model

import "github.com/m-mizutani/goerr/v2"

// Score bounds shared by likelihood, vulnerability and impact
const (
	MinScore = 1
	MaxScore = 5
)

// Sentinel errors for the domain model
var (
	ErrMissingName            = goerr.New("name is required")
	ErrScoreOutOfRange        = goerr.New("score out of range")
	ErrDuplicateID            = goerr.New("duplicate ID")
	ErrUnresolvedCatalogEntry = goerr.New("unresolved catalog entry")
	ErrUnknownReference       = goerr.New("unknown catalog reference")
	ErrInvalidQuestion        = goerr.New("invalid question")
	ErrInvalidRule            = goerr.New("invalid rule")
	ErrTemplateNotFound       = goerr.New("template not found")
)

// Context keys for error values
const (
	ThreatIDKey     = "threat_id"
	ControlIDKey    = "control_id"
	QuestionIDKey   = "question_id"
	TemplateIDKey   = "template_id"
	RuleIDKey       = "rule_id"
	MissingKey      = "missing"
	MissingCountKey = "missing_count"
)
