package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Assessment is a physical-security assessment of one facility
type Assessment struct {
	ID         types.AssessmentID
	Name       string
	Facility   string
	TemplateID types.TemplateID
	Summary    *AssessmentSummary
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks if the Assessment is valid
func (a *Assessment) Validate() error {
	if a.Name == "" {
		return goerr.Wrap(ErrMissingName, "assessment name is required")
	}
	if err := a.TemplateID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid assessment template")
	}
	return nil
}

// Copy returns a deep copy of the assessment
func (a *Assessment) Copy() *Assessment {
	c := *a
	if a.Summary != nil {
		s := *a.Summary
		s.LevelCounts = make(map[types.RiskLevel]int, len(a.Summary.LevelCounts))
		for k, v := range a.Summary.LevelCounts {
			s.LevelCounts[k] = v
		}
		s.TopThreats = append([]types.ThreatID(nil), a.Summary.TopThreats...)
		c.Summary = &s
	}
	return &c
}

// AssessmentSummary is derived once per regeneration from the scenario collection
type AssessmentSummary struct {
	GenerationID     types.GenerationID
	OverallRiskLevel types.RiskLevel
	ScenarioCount    int
	CriticalCount    int
	LevelCounts      map[types.RiskLevel]int
	TopThreats       []types.ThreatID
	Narrative        string
	ScoredAt         time.Time
}

// HasCritical reports whether any scenario is critical or critical priority
func (s *AssessmentSummary) HasCritical() bool {
	return s != nil && s.CriticalCount > 0
}

// CategoryPosture is the pass/fail tally of one questionnaire section
type CategoryPosture struct {
	Section types.SectionID
	Name    string
	Weight  float64
	Passed  int
	Failed  int
}

// Ratio returns the pass ratio of the category, or 0 when nothing was evaluated
func (c *CategoryPosture) Ratio() float64 {
	total := c.Passed + c.Failed
	if total == 0 {
		return 0
	}
	return float64(c.Passed) / float64(total)
}

// PostureScore is the at-a-glance security posture of an assessment
type PostureScore struct {
	Score      float64
	Grade      types.Grade
	Categories []CategoryPosture
}
