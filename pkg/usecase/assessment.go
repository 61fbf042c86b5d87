package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/service/scoring"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

type AssessmentUseCase struct {
	uc *UseCases
}

func (x *AssessmentUseCase) CreateAssessment(ctx context.Context, name, facility string, templateID types.TemplateID) (*model.Assessment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "assessment name is required")
	}
	if _, err := x.uc.registry.Get(templateID); err != nil {
		return nil, goerr.Wrap(err, "unknown assessment template")
	}

	now := x.uc.now()
	assessment := &model.Assessment{
		Name:       name,
		Facility:   strings.TrimSpace(facility),
		TemplateID: templateID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := assessment.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid assessment")
	}

	created, err := x.uc.repo.Assessment().Create(ctx, assessment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	logging.From(ctx).Info("assessment created",
		"assessment_id", created.ID,
		"template_id", created.TemplateID,
	)
	return created, nil
}

func (x *AssessmentUseCase) GetAssessment(ctx context.Context, id types.AssessmentID) (*model.Assessment, error) {
	return x.uc.getAssessment(ctx, id)
}

func (x *AssessmentUseCase) ListAssessments(ctx context.Context) ([]*model.Assessment, error) {
	assessments, err := x.uc.repo.Assessment().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}
	return assessments, nil
}

// DeleteAssessment removes the assessment with its responses and scenarios
func (x *AssessmentUseCase) DeleteAssessment(ctx context.Context, id types.AssessmentID) error {
	if _, err := x.uc.getAssessment(ctx, id); err != nil {
		return err
	}

	if err := x.uc.repo.Scenario().DeleteByAssessment(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete scenarios", goerr.V(AssessmentIDKey, id))
	}
	if err := x.uc.repo.Response().DeleteByAssessment(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete responses", goerr.V(AssessmentIDKey, id))
	}
	if err := x.uc.repo.Assessment().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete assessment", goerr.V(AssessmentIDKey, id))
	}

	logging.From(ctx).Info("assessment deleted", "assessment_id", id)
	return nil
}

// PutResponses upserts answers of an assessment. Every question must belong
// to the assessment's template. Responses may be partial.
func (x *AssessmentUseCase) PutResponses(ctx context.Context, id types.AssessmentID, responses []*model.Response) ([]*model.Response, error) {
	assessment, err := x.uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := x.uc.registry.Get(assessment.TemplateID)
	if err != nil {
		return nil, goerr.Wrap(err, "assessment template is not registered", goerr.V(AssessmentIDKey, id))
	}

	now := x.uc.now()
	for _, r := range responses {
		if r == nil {
			return nil, goerr.Wrap(ErrInvalidInput, "response is nil", goerr.V(AssessmentIDKey, id))
		}
		if _, ok := q.Question(r.QuestionID); !ok {
			return nil, goerr.Wrap(ErrUnknownQuestion, "unknown question",
				goerr.V(AssessmentIDKey, id),
				goerr.V(model.QuestionIDKey, r.QuestionID),
				goerr.V(model.TemplateIDKey, assessment.TemplateID))
		}
		r.AssessmentID = id
		r.UpdatedAt = now
	}

	if err := x.uc.repo.Response().Put(ctx, id, responses); err != nil {
		return nil, goerr.Wrap(err, "failed to put responses", goerr.V(AssessmentIDKey, id))
	}

	return x.ListResponses(ctx, id)
}

func (x *AssessmentUseCase) ListResponses(ctx context.Context, id types.AssessmentID) ([]*model.Response, error) {
	if _, err := x.uc.getAssessment(ctx, id); err != nil {
		return nil, err
	}
	responses, err := x.uc.repo.Response().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list responses", goerr.V(AssessmentIDKey, id))
	}
	return responses, nil
}

// Posture computes the security posture score from the current responses.
// It is independent of scenario generation.
func (x *AssessmentUseCase) Posture(ctx context.Context, id types.AssessmentID) (*model.PostureScore, error) {
	assessment, err := x.uc.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := x.uc.registry.Get(assessment.TemplateID)
	if err != nil {
		return nil, goerr.Wrap(err, "assessment template is not registered", goerr.V(AssessmentIDKey, id))
	}
	list, err := x.uc.repo.Response().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list responses", goerr.V(AssessmentIDKey, id))
	}
	return scoring.Posture(q, model.NewResponses(list)), nil
}

func (uc *UseCases) getAssessment(ctx context.Context, id types.AssessmentID) (*model.Assessment, error) {
	assessment, err := uc.repo.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrAssessmentNotFound, "assessment not found", goerr.V(AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(AssessmentIDKey, id))
	}
	return assessment, nil
}
