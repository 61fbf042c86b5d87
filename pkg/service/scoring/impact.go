package scoring

import (
	"github.com/secmon-lab/bastion/pkg/domain/model"
)

// BaselineImpact is the neutral starting impact. Unlike likelihood it does
// not depend on the threat's catalog baseline.
const BaselineImpact = 3

// ImpactResult is the impact of one threat with the rules that moved it
type ImpactResult struct {
	Score   int
	Applied []string
	// Floored is set when the threat's impact floor raised the score
	Floored bool
}

// Impact applies the asset/operational profile rules to the neutral
// baseline, then the threat's impact floor
func Impact(q *model.Questionnaire, threat *model.Threat, responses model.Responses) ImpactResult {
	adj := applyRules(q.ImpactRules, threat.ID, responses)
	result := ImpactResult{
		Score:   clamp(BaselineImpact + adj.Delta),
		Applied: adj.Applied,
	}

	if floor := q.ImpactFloor(threat.ID); floor > result.Score {
		result.Score = clamp(floor)
		result.Floored = true
	}

	return result
}
