package model

import (
	"time"

	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Response is the captured answer to one question of an assessment
type Response struct {
	AssessmentID types.AssessmentID
	QuestionID   types.QuestionID
	Answer       Answer
	Notes        string
	UpdatedAt    time.Time
}

// Responses is the response map of one assessment keyed by question ID.
// It may be partial.
type Responses map[types.QuestionID]*Response

// NewResponses indexes a response list by question ID. Later entries win.
func NewResponses(list []*Response) Responses {
	r := make(Responses, len(list))
	for _, resp := range list {
		if resp == nil {
			continue
		}
		r[resp.QuestionID] = resp
	}
	return r
}

// Answer returns the answer for a question, or a null answer when missing
func (r Responses) Answer(id types.QuestionID) Answer {
	if resp, ok := r[id]; ok && resp != nil {
		return resp.Answer
	}
	return Answer{}
}
