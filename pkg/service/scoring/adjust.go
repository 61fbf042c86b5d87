package scoring

import (
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Adjustment is the summed delta of a rule table for one threat
type Adjustment struct {
	Delta   int
	Applied []string
}

// applyRules evaluates a (threats, predicate, delta) table for one threat.
// Ungrouped rules add independently; within a group only the matching rule
// with the largest absolute delta counts, so "suspected insider" (+2) and a
// generic "yes" (+1) on the same incident question do not stack.
func applyRules(rules []model.AdjustmentRule, threat types.ThreatID, responses model.Responses) Adjustment {
	var adj Adjustment
	best := make(map[string]*model.AdjustmentRule)
	var groups []string

	for i := range rules {
		rule := &rules[i]
		if !rule.AppliesTo(threat) || !rule.When.Holds(responses) {
			continue
		}

		if rule.Group == "" {
			adj.Delta += rule.Delta
			adj.Applied = append(adj.Applied, rule.ID)
			continue
		}

		current, ok := best[rule.Group]
		if !ok {
			groups = append(groups, rule.Group)
		}
		if !ok || abs(rule.Delta) > abs(current.Delta) {
			best[rule.Group] = rule
		}
	}

	for _, g := range groups {
		rule := best[g]
		adj.Delta += rule.Delta
		adj.Applied = append(adj.Applied, rule.ID)
	}

	return adj
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
