package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

// RegenerationResult is the outcome of a successful regeneration
type RegenerationResult struct {
	Assessment *model.Assessment
	ScoreResult
	// Superseded is the number of rows of earlier generations removed
	Superseded int
}

// regeneration tracks one run of the scenario state machine. Rows are
// created one by one because the store may not offer multi-row atomicity.
type regeneration struct {
	repo         interfaces.ScenarioRepository
	assessmentID types.AssessmentID
	generation   types.GenerationID
	state        types.RegenerationState
	created      []*model.RiskScenario
}

func (r *regeneration) transition(ctx context.Context, next types.RegenerationState) {
	logging.From(ctx).Info("regeneration state changed",
		"assessment_id", r.assessmentID,
		"generation_id", r.generation,
		"from", r.state,
		"to", next,
	)
	r.state = next
}

func (r *regeneration) create(ctx context.Context, scenarios []*model.RiskScenario) error {
	for _, s := range scenarios {
		if err := r.repo.Create(ctx, s); err != nil {
			return goerr.Wrap(err, "failed to create scenario",
				goerr.V(AssessmentIDKey, r.assessmentID),
				goerr.V(GenerationIDKey, r.generation),
				goerr.V(model.ThreatIDKey, s.ThreatID),
				goerr.V(StateKey, r.state))
		}
		r.created = append(r.created, s)
	}
	return nil
}

// rollback deletes every row created by this run. It runs detached from
// cancellation of the caller's context.
func (r *regeneration) rollback(ctx context.Context) {
	r.transition(ctx, types.RegenerationRollingBack)
	ctx = context.WithoutCancel(ctx)

	for i := len(r.created) - 1; i >= 0; i-- {
		s := r.created[i]
		if err := r.repo.Delete(ctx, r.assessmentID, s.ID); err != nil {
			// Leftover rows are invisible to readers and removed by the next
			// successful run.
			logging.From(ctx).Warn("failed to roll back scenario",
				"assessment_id", r.assessmentID,
				"generation_id", r.generation,
				"scenario_id", s.ID,
				"error", err,
			)
		}
	}
	r.created = nil
}

func (r *regeneration) supersede(ctx context.Context) (int, error) {
	rows, err := r.repo.ListByAssessment(ctx, r.assessmentID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list scenarios for superseding",
			goerr.V(AssessmentIDKey, r.assessmentID))
	}

	deleted := 0
	for _, s := range rows {
		// rows of a newer run belong to that run
		if !s.GenerationID.Before(r.generation) {
			continue
		}
		if err := r.repo.Delete(ctx, r.assessmentID, s.ID); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete superseded scenario",
				goerr.V(AssessmentIDKey, r.assessmentID),
				goerr.V(GenerationIDKey, s.GenerationID))
		}
		deleted++
	}
	return deleted, nil
}

// Regenerate rescores an assessment and replaces its scenario set.
//
// Runs for the same assessment are serialized. All rows of the new
// generation are created first. Only when every row exists is the new
// generation committed by storing the summary on the assessment, after which
// rows of earlier generations are deleted. Any failure before the commit
// deletes the rows created so far and leaves the prior set untouched. A
// failure while superseding is returned, but readers already see only the
// committed generation. If a newer generation was committed meanwhile, the
// run is rolled back and ErrRegenerationConflict is returned.
func (x *ScenarioUseCase) Regenerate(ctx context.Context, id types.AssessmentID) (*RegenerationResult, error) {
	uc := x.uc
	unlock, err := uc.regenLocks.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	assessment, err := uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := uc.registry.Get(assessment.TemplateID)
	if err != nil {
		return nil, goerr.Wrap(err, "assessment template is not registered", goerr.V(AssessmentIDKey, id))
	}
	list, err := uc.repo.Response().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list responses", goerr.V(AssessmentIDKey, id))
	}

	result, err := uc.score(ctx, q, model.NewResponses(list), model.NewGenerationID())
	if err != nil {
		return nil, err
	}
	for _, s := range result.Scenarios {
		s.ID = model.NewScenarioID()
		s.AssessmentID = id
	}

	run := &regeneration{
		repo:         uc.repo.Scenario(),
		assessmentID: id,
		generation:   result.GenerationID,
	}
	run.transition(ctx, types.RegenerationCreating)

	committed := false
	defer func() {
		if !committed {
			run.rollback(ctx)
		}
	}()

	if err := run.create(ctx, result.Scenarios); err != nil {
		return nil, err
	}
	run.transition(ctx, types.RegenerationAllCreated)

	current, err := uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Summary != nil && !current.Summary.GenerationID.Before(result.GenerationID) {
		return nil, goerr.Wrap(ErrRegenerationConflict, "newer generation committed during regeneration",
			goerr.V(AssessmentIDKey, id),
			goerr.V(GenerationIDKey, result.GenerationID),
			goerr.V("committed_generation_id", current.Summary.GenerationID))
	}

	current.Summary = result.Summary
	current.UpdatedAt = result.Summary.ScoredAt
	updated, err := uc.repo.Assessment().Update(ctx, current)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment summary",
			goerr.V(AssessmentIDKey, id),
			goerr.V(GenerationIDKey, result.GenerationID))
	}
	committed = true

	run.transition(ctx, types.RegenerationSupersedingOld)
	superseded, err := run.supersede(ctx)
	if err != nil {
		return nil, err
	}
	run.transition(ctx, types.RegenerationDone)

	logging.From(ctx).Info("scenarios regenerated",
		"assessment_id", id,
		"generation_id", result.GenerationID,
		"scenarios", len(result.Scenarios),
		"superseded", superseded,
		"overall", result.Summary.OverallRiskLevel,
		"critical", result.Summary.CriticalCount,
	)

	if result.Summary.HasCritical() && uc.notifier != nil {
		notified := updated.Copy()
		critical := CriticalScenarios(result.Scenarios)
		uc.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyCritical(ctx, notified, critical)
		})
	}

	return &RegenerationResult{
		Assessment:  updated,
		ScoreResult: *result,
		Superseded:  superseded,
	}, nil
}
