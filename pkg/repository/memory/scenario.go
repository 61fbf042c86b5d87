package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

type scenarioRepository struct {
	mu sync.RWMutex
	// rows keeps insertion order per assessment
	rows map[types.AssessmentID][]*model.RiskScenario
}

func newScenarioRepository() *scenarioRepository {
	return &scenarioRepository{
		rows: make(map[types.AssessmentID][]*model.RiskScenario),
	}
}

func (r *scenarioRepository) Create(ctx context.Context, scenario *model.RiskScenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.rows[scenario.AssessmentID] {
		if s.ID == scenario.ID {
			return goerr.New("scenario already exists", goerr.V("id", scenario.ID))
		}
	}

	r.rows[scenario.AssessmentID] = append(r.rows[scenario.AssessmentID], scenario.Copy())
	return nil
}

func (r *scenarioRepository) ListByAssessment(ctx context.Context, assessmentID types.AssessmentID) ([]*model.RiskScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.rows[assessmentID]
	scenarios := make([]*model.RiskScenario, 0, len(rows))
	for _, s := range rows {
		scenarios = append(scenarios, s.Copy())
	}
	return scenarios, nil
}

func (r *scenarioRepository) Delete(ctx context.Context, assessmentID types.AssessmentID, id types.ScenarioID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.rows[assessmentID]
	for i, s := range rows {
		if s.ID == id {
			r.rows[assessmentID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}

	return goerr.Wrap(ErrNotFound, "scenario not found",
		goerr.V("assessment_id", assessmentID), goerr.V("id", id))
}

func (r *scenarioRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, assessmentID)
	return nil
}
