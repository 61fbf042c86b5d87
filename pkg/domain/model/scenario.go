package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// NewScenarioID generates a new random scenario ID
func NewScenarioID() types.ScenarioID {
	return types.ScenarioID(uuid.New().String())
}

// NewGenerationID generates a new time-ordered generation ID
func NewGenerationID() types.GenerationID {
	return types.GenerationID(uuid.Must(uuid.NewV7()).String())
}

// RiskScenario is the scored outcome of one threat for one assessment.
// It is always recomputed in full; it is never partially updated.
type RiskScenario struct {
	ID           types.ScenarioID
	AssessmentID types.AssessmentID
	GenerationID types.GenerationID
	ThreatID     types.ThreatID
	ThreatName   string

	Likelihood    int
	Vulnerability int
	Impact        int
	InherentRisk  int
	RiskLevel     types.RiskLevel
	// CriticalPriority is set when vulnerability alone reaches the escalation
	// threshold, independent of RiskLevel
	CriticalPriority bool

	Narrative           string
	RecommendedControls []types.ControlID
	ResidualRisk        int
	CreatedAt           time.Time
}

// RiskPercent returns the inherent risk as a percentage of the maximum score
func (s *RiskScenario) RiskPercent() float64 {
	return float64(s.InherentRisk) * 100 / float64(MaxInherentRisk)
}

// MaxInherentRisk is the largest possible L x V x I product
const MaxInherentRisk = MaxScore * MaxScore * MaxScore

// Copy returns a deep copy of the scenario
func (s *RiskScenario) Copy() *RiskScenario {
	c := *s
	if s.RecommendedControls != nil {
		c.RecommendedControls = make([]types.ControlID, len(s.RecommendedControls))
		copy(c.RecommendedControls, s.RecommendedControls)
	}
	return &c
}
