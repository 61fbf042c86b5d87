package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

type responseRepository struct {
	mu        sync.RWMutex
	responses map[types.AssessmentID]map[types.QuestionID]*model.Response
}

func newResponseRepository() *responseRepository {
	return &responseRepository{
		responses: make(map[types.AssessmentID]map[types.QuestionID]*model.Response),
	}
}

func (r *responseRepository) Put(ctx context.Context, assessmentID types.AssessmentID, responses []*model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byQuestion, ok := r.responses[assessmentID]
	if !ok {
		byQuestion = make(map[types.QuestionID]*model.Response)
		r.responses[assessmentID] = byQuestion
	}

	now := time.Now().UTC()
	for _, resp := range responses {
		stored := *resp
		stored.AssessmentID = assessmentID
		stored.UpdatedAt = now
		byQuestion[resp.QuestionID] = &stored
	}

	return nil
}

func (r *responseRepository) List(ctx context.Context, assessmentID types.AssessmentID) ([]*model.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byQuestion := r.responses[assessmentID]
	responses := make([]*model.Response, 0, len(byQuestion))
	for _, resp := range byQuestion {
		c := *resp
		responses = append(responses, &c)
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].QuestionID < responses[j].QuestionID
	})

	return responses, nil
}

func (r *responseRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.responses, assessmentID)
	return nil
}
