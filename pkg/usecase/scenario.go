package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/service/scoring"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

type ScenarioUseCase struct {
	uc *UseCases
}

// ScoreResult is the outcome of one scoring run
type ScoreResult struct {
	GenerationID types.GenerationID
	Scenarios    []*model.RiskScenario
	Summary      *model.AssessmentSummary
	Posture      *model.PostureScore
}

// Score evaluates responses against a template without persisting anything
func (x *ScenarioUseCase) Score(ctx context.Context, templateID types.TemplateID, responses []*model.Response) (*ScoreResult, error) {
	q, err := x.uc.registry.Get(templateID)
	if err != nil {
		return nil, goerr.Wrap(err, "unknown template")
	}
	return x.uc.score(ctx, q, model.NewResponses(responses), "")
}

func (uc *UseCases) score(ctx context.Context, q *model.Questionnaire, responses model.Responses, generation types.GenerationID) (*ScoreResult, error) {
	engine, err := scoring.New(uc.registry.KnowledgeBase(), q, scoring.WithParallelism(uc.parallelism))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create scoring engine")
	}

	scenarios, err := engine.EvaluateAll(ctx, responses)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate threats", goerr.V(model.TemplateIDKey, q.ID))
	}

	now := uc.now()
	for _, s := range scenarios {
		s.GenerationID = generation
		s.CreatedAt = now
		logging.From(ctx).Debug("threat scored",
			"threat_id", s.ThreatID,
			"likelihood", s.Likelihood,
			"vulnerability", s.Vulnerability,
			"impact", s.Impact,
			"risk", s.InherentRisk,
			"level", s.RiskLevel,
		)
	}
	scoring.SortScenarios(scenarios)

	return &ScoreResult{
		GenerationID: generation,
		Scenarios:    scenarios,
		Summary:      scoring.Summarize(generation, scenarios, now),
		Posture:      scoring.Posture(q, responses),
	}, nil
}

// ListScenarios returns the scenarios of the committed generation, sorted by
// inherent risk desc then threat ID. Rows of any other generation are never
// returned. An assessment that was never scored has no scenarios.
func (x *ScenarioUseCase) ListScenarios(ctx context.Context, id types.AssessmentID) ([]*model.RiskScenario, error) {
	assessment, err := x.uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.Summary == nil {
		return []*model.RiskScenario{}, nil
	}

	rows, err := x.uc.repo.Scenario().ListByAssessment(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list scenarios", goerr.V(AssessmentIDKey, id))
	}

	scenarios := make([]*model.RiskScenario, 0, len(rows))
	for _, s := range rows {
		if s.GenerationID == assessment.Summary.GenerationID {
			scenarios = append(scenarios, s)
		}
	}
	scoring.SortScenarios(scenarios)
	return scenarios, nil
}

// Summary returns the summary stored by the last successful regeneration
func (x *ScenarioUseCase) Summary(ctx context.Context, id types.AssessmentID) (*model.AssessmentSummary, error) {
	assessment, err := x.uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.Summary == nil {
		return nil, goerr.Wrap(ErrNotScored, "no summary", goerr.V(AssessmentIDKey, id))
	}
	return assessment.Summary, nil
}

// CriticalScenarios returns the scenarios classified critical or flagged
// critical priority
func CriticalScenarios(scenarios []*model.RiskScenario) []*model.RiskScenario {
	var critical []*model.RiskScenario
	for _, s := range scenarios {
		if s.RiskLevel == types.RiskLevelCritical || s.CriticalPriority {
			critical = append(critical, s)
		}
	}
	return critical
}
