package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/utils/errutil"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

// SweepStaleScenarios deletes scenario rows that do not belong to the
// committed generation of their assessment and were created before
// now - grace. Such rows are left behind when a rollback or a superseding
// step fails. The grace period keeps rows of a regeneration that is still
// creating its set.
func (x *ScenarioUseCase) SweepStaleScenarios(ctx context.Context, grace time.Duration) (int, error) {
	uc := x.uc
	assessments, err := uc.repo.Assessment().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list assessments")
	}

	cutoff := uc.now().Add(-grace)
	swept := 0
	for _, a := range assessments {
		rows, err := uc.repo.Scenario().ListByAssessment(ctx, a.ID)
		if err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to list scenarios", goerr.V(AssessmentIDKey, a.ID)),
				"skip assessment while sweeping")
			continue
		}

		var committed types.GenerationID
		if a.Summary != nil {
			committed = a.Summary.GenerationID
		}

		for _, s := range rows {
			if s.GenerationID == committed || !s.CreatedAt.Before(cutoff) {
				continue
			}
			if err := uc.repo.Scenario().Delete(ctx, a.ID, s.ID); err != nil {
				_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to delete stale scenario",
					goerr.V(AssessmentIDKey, a.ID),
					goerr.V(GenerationIDKey, s.GenerationID)), "stale scenario is kept")
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		logging.From(ctx).Info("stale scenarios swept", "count", swept)
	}
	return swept, nil
}
