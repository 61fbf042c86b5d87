package rdb

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"gorm.io/gorm"
)

type scenarioRow struct {
	ID                  string            `gorm:"primaryKey;size:64"`
	AssessmentID        int64             `gorm:"index;not null"`
	GenerationID        string            `gorm:"index;size:64;not null"`
	ThreatID            string            `gorm:"size:128;not null"`
	ThreatName          string            `gorm:"size:255"`
	Likelihood          int               `gorm:"not null"`
	Vulnerability       int               `gorm:"not null"`
	Impact              int               `gorm:"not null"`
	InherentRisk        int               `gorm:"not null"`
	RiskLevel           string            `gorm:"size:16;not null"`
	CriticalPriority    bool              `gorm:"not null"`
	Narrative           string            `gorm:"type:text"`
	RecommendedControls []types.ControlID `gorm:"serializer:json"`
	ResidualRisk        int               `gorm:"not null"`
	CreatedAt           time.Time
}

func (scenarioRow) TableName() string { return "scenarios" }

func toScenarioRow(s *model.RiskScenario) *scenarioRow {
	return &scenarioRow{
		ID:                  string(s.ID),
		AssessmentID:        int64(s.AssessmentID),
		GenerationID:        string(s.GenerationID),
		ThreatID:            string(s.ThreatID),
		ThreatName:          s.ThreatName,
		Likelihood:          s.Likelihood,
		Vulnerability:       s.Vulnerability,
		Impact:              s.Impact,
		InherentRisk:        s.InherentRisk,
		RiskLevel:           string(s.RiskLevel),
		CriticalPriority:    s.CriticalPriority,
		Narrative:           s.Narrative,
		RecommendedControls: s.Copy().RecommendedControls,
		ResidualRisk:        s.ResidualRisk,
		CreatedAt:           s.CreatedAt,
	}
}

func (r *scenarioRow) toModel() *model.RiskScenario {
	return &model.RiskScenario{
		ID:                  types.ScenarioID(r.ID),
		AssessmentID:        types.AssessmentID(r.AssessmentID),
		GenerationID:        types.GenerationID(r.GenerationID),
		ThreatID:            types.ThreatID(r.ThreatID),
		ThreatName:          r.ThreatName,
		Likelihood:          r.Likelihood,
		Vulnerability:       r.Vulnerability,
		Impact:              r.Impact,
		InherentRisk:        r.InherentRisk,
		RiskLevel:           types.RiskLevel(r.RiskLevel),
		CriticalPriority:    r.CriticalPriority,
		Narrative:           r.Narrative,
		RecommendedControls: r.RecommendedControls,
		ResidualRisk:        r.ResidualRisk,
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

type scenarioRepository struct {
	db *gorm.DB
}

func (r *scenarioRepository) Create(ctx context.Context, scenario *model.RiskScenario) error {
	if err := r.db.WithContext(ctx).Create(toScenarioRow(scenario)).Error; err != nil {
		return goerr.Wrap(err, "failed to create scenario",
			goerr.V("assessment_id", scenario.AssessmentID), goerr.V("id", scenario.ID))
	}
	return nil
}

func (r *scenarioRepository) ListByAssessment(ctx context.Context, assessmentID types.AssessmentID) ([]*model.RiskScenario, error) {
	var rows []scenarioRow
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", int64(assessmentID)).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list scenarios", goerr.V("assessment_id", assessmentID))
	}

	scenarios := make([]*model.RiskScenario, 0, len(rows))
	for i := range rows {
		scenarios = append(scenarios, rows[i].toModel())
	}
	return scenarios, nil
}

func (r *scenarioRepository) Delete(ctx context.Context, assessmentID types.AssessmentID, id types.ScenarioID) error {
	result := r.db.WithContext(ctx).
		Where("assessment_id = ? AND id = ?", int64(assessmentID), string(id)).
		Delete(&scenarioRow{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete scenario", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "scenario not found",
			goerr.V("assessment_id", assessmentID), goerr.V("id", id))
	}
	return nil
}

func (r *scenarioRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", int64(assessmentID)).
		Delete(&scenarioRow{}).Error; err != nil {
		return goerr.Wrap(err, "failed to delete scenarios", goerr.V("assessment_id", assessmentID))
	}
	return nil
}
