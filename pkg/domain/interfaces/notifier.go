package interfaces

import (
	"context"

	"github.com/secmon-lab/bastion/pkg/domain/model"
)

// Notifier announces the outcome of a regeneration that found critical threats
type Notifier interface {
	NotifyCritical(ctx context.Context, assessment *model.Assessment, scenarios []*model.RiskScenario) error
}
