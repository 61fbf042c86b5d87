package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// MaxTopThreats is the number of highest-risk threats listed in a summary
const MaxTopThreats = 3

// SortScenarios orders scenarios by inherent risk desc, then threat ID
func SortScenarios(scenarios []*model.RiskScenario) {
	sort.SliceStable(scenarios, func(i, j int) bool {
		if scenarios[i].InherentRisk != scenarios[j].InherentRisk {
			return scenarios[i].InherentRisk > scenarios[j].InherentRisk
		}
		return scenarios[i].ThreatID < scenarios[j].ThreatID
	})
}

// Summarize derives the assessment summary from one generation of scenarios.
// A threat counts as critical when it is classified critical or flagged
// critical priority.
func Summarize(generation types.GenerationID, scenarios []*model.RiskScenario, now time.Time) *model.AssessmentSummary {
	summary := &model.AssessmentSummary{
		GenerationID:     generation,
		OverallRiskLevel: types.RiskLevelLow,
		ScenarioCount:    len(scenarios),
		LevelCounts:      make(map[types.RiskLevel]int, 4),
		ScoredAt:         now,
	}

	sorted := make([]*model.RiskScenario, len(scenarios))
	copy(sorted, scenarios)
	SortScenarios(sorted)

	for _, s := range sorted {
		summary.LevelCounts[s.RiskLevel]++
		if s.RiskLevel.Severity() > summary.OverallRiskLevel.Severity() {
			summary.OverallRiskLevel = s.RiskLevel
		}
		if s.RiskLevel == types.RiskLevelCritical || s.CriticalPriority {
			summary.CriticalCount++
		}
		if len(summary.TopThreats) < MaxTopThreats {
			summary.TopThreats = append(summary.TopThreats, s.ThreatID)
		}
	}

	summary.Narrative = summaryNarrative(summary, sorted)
	return summary
}

func summaryNarrative(summary *model.AssessmentSummary, sorted []*model.RiskScenario) string {
	if summary.ScenarioCount == 0 {
		return "No threat scenarios apply to this facility."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overall risk is %s across %d threat scenarios", summary.OverallRiskLevel, summary.ScenarioCount)

	var counts []string
	for _, level := range types.AllRiskLevels() {
		if n := summary.LevelCounts[level]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, level))
		}
	}
	fmt.Fprintf(&b, " (%s).", strings.Join(counts, ", "))

	if summary.CriticalCount > 0 {
		fmt.Fprintf(&b, " %d require critical priority.", summary.CriticalCount)
	}

	top := make([]string, 0, MaxTopThreats)
	for _, s := range sorted {
		if len(top) == MaxTopThreats {
			break
		}
		top = append(top, fmt.Sprintf("%s (%d/125)", s.ThreatName, s.InherentRisk))
	}
	fmt.Fprintf(&b, " Highest risks: %s.", strings.Join(top, ", "))

	return b.String()
}
