package rdb

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type responseRow struct {
	AssessmentID int64        `gorm:"primaryKey;autoIncrement:false"`
	QuestionID   string       `gorm:"primaryKey;size:128"`
	Answer       model.Answer `gorm:"serializer:json"`
	Notes        string       `gorm:"type:text"`
	UpdatedAt    time.Time
}

func (responseRow) TableName() string { return "responses" }

type responseRepository struct {
	db *gorm.DB
}

func (r *responseRepository) Put(ctx context.Context, assessmentID types.AssessmentID, responses []*model.Response) error {
	if len(responses) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]responseRow, 0, len(responses))
	for _, resp := range responses {
		rows = append(rows, responseRow{
			AssessmentID: int64(assessmentID),
			QuestionID:   string(resp.QuestionID),
			Answer:       resp.Answer,
			Notes:        resp.Notes,
			UpdatedAt:    now,
		})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "notes", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return goerr.Wrap(err, "failed to put responses", goerr.V("assessment_id", assessmentID))
	}

	return nil
}

func (r *responseRepository) List(ctx context.Context, assessmentID types.AssessmentID) ([]*model.Response, error) {
	var rows []responseRow
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", int64(assessmentID)).
		Order("question_id").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list responses", goerr.V("assessment_id", assessmentID))
	}

	responses := make([]*model.Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, &model.Response{
			AssessmentID: types.AssessmentID(row.AssessmentID),
			QuestionID:   types.QuestionID(row.QuestionID),
			Answer:       row.Answer,
			Notes:        row.Notes,
			UpdatedAt:    row.UpdatedAt.UTC(),
		})
	}
	return responses, nil
}

func (r *responseRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", int64(assessmentID)).
		Delete(&responseRow{}).Error; err != nil {
		return goerr.Wrap(err, "failed to delete responses", goerr.V("assessment_id", assessmentID))
	}
	return nil
}
