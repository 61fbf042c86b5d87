package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ErrNotFound is returned by every repository backend when a record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Assessment() AssessmentRepository
	Response() ResponseRepository
	Scenario() ScenarioRepository

	Close() error
}

// AssessmentRepository defines the interface for Assessment data access
type AssessmentRepository interface {
	// Create creates a new assessment with auto-generated ID
	Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error)

	// Get retrieves an assessment by ID
	Get(ctx context.Context, id types.AssessmentID) (*model.Assessment, error)

	// List retrieves all assessments ordered by ID
	List(ctx context.Context) ([]*model.Assessment, error)

	// Update replaces name, facility, template and summary of an existing assessment
	Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error)

	// Delete deletes an assessment by ID
	Delete(ctx context.Context, id types.AssessmentID) error
}
