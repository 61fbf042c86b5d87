package interfaces

import (
	"context"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ResponseRepository defines the interface for interview Response data access
type ResponseRepository interface {
	// Put upserts responses of one assessment keyed by question ID
	Put(ctx context.Context, assessmentID types.AssessmentID, responses []*model.Response) error

	// List retrieves all responses of an assessment ordered by question ID
	List(ctx context.Context, assessmentID types.AssessmentID) ([]*model.Response, error)

	// DeleteByAssessment removes every response of an assessment
	DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error
}
