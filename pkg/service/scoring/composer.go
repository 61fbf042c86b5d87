package scoring

import (
	"sort"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

const (
	// MaxRecommendations caps the recommended controls per scenario
	MaxRecommendations = 3
	// EscalationVulnerability is the vulnerability that flags critical priority on its own
	EscalationVulnerability = 4
)

// Classification bands as percentage of the maximum inherent risk
const (
	criticalPercent = 75
	highPercent     = 50
	mediumPercent   = 25
)

// Classify maps an inherent risk score to its level by percentage of 125
func Classify(inherentRisk int) types.RiskLevel {
	// integer comparison of risk*100 against percent*125 avoids float edges
	scaled := inherentRisk * 100
	switch {
	case scaled >= criticalPercent*model.MaxInherentRisk:
		return types.RiskLevelCritical
	case scaled >= highPercent*model.MaxInherentRisk:
		return types.RiskLevelHigh
	case scaled >= mediumPercent*model.MaxInherentRisk:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}

// IsCriticalPriority reports whether vulnerability alone escalates the threat
func IsCriticalPriority(vulnerability int) bool {
	return vulnerability >= EscalationVulnerability
}

type candidate struct {
	control       types.ControlID
	critical      bool
	effectiveness float64
}

// Recommend ranks the controls linked to contributing questions that are not
// already present. Order is question criticality, then control
// effectiveness, then control ID.
func Recommend(kb *model.KnowledgeBase, contributions []Contribution, detected ControlSet) []types.ControlID {
	seen := make(map[types.ControlID]*candidate)
	var candidates []*candidate

	for _, c := range contributions {
		for _, cid := range c.Question.Controls {
			if detected.Has(cid) {
				continue
			}
			if existing, ok := seen[cid]; ok {
				existing.critical = existing.critical || c.Critical
				continue
			}
			cand := &candidate{control: cid, critical: c.Critical}
			if ctrl, ok := kb.Control(cid); ok {
				cand.effectiveness = ctrl.Effectiveness
			}
			seen[cid] = cand
			candidates = append(candidates, cand)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.critical != b.critical {
			return a.critical
		}
		if a.effectiveness != b.effectiveness {
			return a.effectiveness > b.effectiveness
		}
		return a.control < b.control
	})

	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}
	result := make([]types.ControlID, len(candidates))
	for i, c := range candidates {
		result[i] = c.control
	}
	return result
}

// Compose combines the component scores of one threat into a scenario. The
// scenario has no ID, assessment or generation yet.
func Compose(kb *model.KnowledgeBase, threat *model.Threat, l LikelihoodResult, v VulnerabilityResult, i ImpactResult, detected ControlSet) *model.RiskScenario {
	inherent := l.Score * v.Score * i.Score
	scenario := &model.RiskScenario{
		ThreatID:            threat.ID,
		ThreatName:          threat.Name,
		Likelihood:          l.Score,
		Vulnerability:       v.Score,
		Impact:              i.Score,
		InherentRisk:        inherent,
		RiskLevel:           Classify(inherent),
		CriticalPriority:    IsCriticalPriority(v.Score),
		RecommendedControls: Recommend(kb, v.Contributions, detected),
		ResidualRisk:        inherent,
	}
	scenario.Narrative = Narrate(threat, scenario, v.Contributions)
	return scenario
}
