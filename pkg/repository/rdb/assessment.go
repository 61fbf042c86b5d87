package rdb

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"gorm.io/gorm"
)

type assessmentRow struct {
	ID         int64                    `gorm:"primaryKey;autoIncrement"`
	Name       string                   `gorm:"size:255;not null"`
	Facility   string                   `gorm:"size:255"`
	TemplateID string                   `gorm:"size:64;not null"`
	Summary    *model.AssessmentSummary `gorm:"serializer:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (assessmentRow) TableName() string { return "assessments" }

func toAssessmentRow(a *model.Assessment) *assessmentRow {
	return &assessmentRow{
		ID:         int64(a.ID),
		Name:       a.Name,
		Facility:   a.Facility,
		TemplateID: string(a.TemplateID),
		Summary:    a.Copy().Summary,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (r *assessmentRow) toModel() *model.Assessment {
	return &model.Assessment{
		ID:         types.AssessmentID(r.ID),
		Name:       r.Name,
		Facility:   r.Facility,
		TemplateID: types.TemplateID(r.TemplateID),
		Summary:    r.Summary,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type assessmentRepository struct {
	db *gorm.DB
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	now := time.Now().UTC()
	row := toAssessmentRow(assessment)
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	return row.toModel(), nil
}

func (r *assessmentRepository) get(ctx context.Context, id types.AssessmentID) (*assessmentRow, error) {
	var row assessmentRow
	if err := r.db.WithContext(ctx).First(&row, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "assessment not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V("id", id))
	}
	return &row, nil
}

func (r *assessmentRepository) Get(ctx context.Context, id types.AssessmentID) (*model.Assessment, error) {
	row, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *assessmentRepository) List(ctx context.Context) ([]*model.Assessment, error) {
	var rows []assessmentRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}

	assessments := make([]*model.Assessment, 0, len(rows))
	for i := range rows {
		assessments = append(assessments, rows[i].toModel())
	}
	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	existing, err := r.get(ctx, assessment.ID)
	if err != nil {
		return nil, err
	}

	row := toAssessmentRow(assessment)
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V("id", assessment.ID))
	}

	return row.toModel(), nil
}

func (r *assessmentRepository) Delete(ctx context.Context, id types.AssessmentID) error {
	result := r.db.WithContext(ctx).Delete(&assessmentRow{}, int64(id))
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete assessment", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "assessment not found", goerr.V("id", id))
	}
	return nil
}
