package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// DefaultRatingThreshold is the bad-rating threshold on a 1-5 scale
const DefaultRatingThreshold = 2.0

// CriticalWeight is the minimum risk weight of a critical question
const CriticalWeight = 2

// Question is the static configuration of one questionnaire item
type Question struct {
	ID      types.QuestionID
	Section types.SectionID
	Text    string
	// Finding is the observational clause used in narratives when the
	// question contributes a risk factor, e.g. "no trailer seal verification"
	Finding         string
	Polarity        types.Polarity
	Weight          int
	Threats         []types.ThreatID
	Controls        []types.ControlID
	BadAnswers      []string
	Match           types.MatchStrategy
	RatingThreshold float64
}

// Threshold returns the configured rating threshold or the default
func (q *Question) Threshold() float64 {
	if q.RatingThreshold > 0 {
		return q.RatingThreshold
	}
	return DefaultRatingThreshold
}

// IsCritical reports whether the weight qualifies the question as critical
func (q *Question) IsCritical() bool {
	return q.Weight >= CriticalWeight
}

// Validate checks if the Question is valid
func (q *Question) Validate() error {
	if err := q.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid question ID")
	}
	if !q.Polarity.IsValid() {
		return goerr.Wrap(ErrInvalidQuestion, "invalid polarity",
			goerr.V(QuestionIDKey, q.ID), goerr.V("polarity", q.Polarity))
	}
	if q.Weight < 0 || q.Weight > 2 {
		return goerr.Wrap(ErrInvalidQuestion, "risk weight must be 0, 1 or 2",
			goerr.V(QuestionIDKey, q.ID), goerr.V("weight", q.Weight))
	}
	if !q.Match.IsValid() {
		return goerr.Wrap(ErrInvalidQuestion, "invalid match strategy",
			goerr.V(QuestionIDKey, q.ID), goerr.V("match", q.Match))
	}
	if q.Polarity == types.PolarityMultipleChoice && len(q.BadAnswers) == 0 {
		return goerr.Wrap(ErrInvalidQuestion, "multiple-choice question requires bad answers",
			goerr.V(QuestionIDKey, q.ID))
	}
	if q.RatingThreshold < 0 {
		return goerr.Wrap(ErrInvalidQuestion, "rating threshold must not be negative",
			goerr.V(QuestionIDKey, q.ID))
	}
	return nil
}
