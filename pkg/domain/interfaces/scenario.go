package interfaces

import (
	"context"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ScenarioRepository defines the interface for RiskScenario data access. The
// store is not required to offer multi-row atomicity; regeneration
// compensates with per-row deletes.
type ScenarioRepository interface {
	// Create stores one scenario row. ID and GenerationID are set by the caller.
	Create(ctx context.Context, scenario *model.RiskScenario) error

	// ListByAssessment retrieves every scenario row of an assessment across
	// all generations
	ListByAssessment(ctx context.Context, assessmentID types.AssessmentID) ([]*model.RiskScenario, error)

	// Delete deletes one scenario row
	Delete(ctx context.Context, assessmentID types.AssessmentID, id types.ScenarioID) error

	// DeleteByAssessment removes every scenario row of an assessment
	DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error
}
