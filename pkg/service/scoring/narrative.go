package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

const maxFindings = 3

var (
	likelihoodLadder    = [5]string{"rare", "unlikely", "possible", "likely", "almost certain"}
	vulnerabilityLadder = [5]string{"minimal", "low", "moderate", "high", "critical"}
	impactLadder        = [5]string{"negligible", "minor", "moderate", "major", "severe"}
)

func ladder(l [5]string, score int) string {
	return l[clamp(score)-1]
}

// Narrate builds the scenario narrative from the adjective ladders and the
// observational clauses of the strongest contributing questions
func Narrate(threat *model.Threat, s *model.RiskScenario, contributions []Contribution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s is %s given the facility profile; exposure is %s and the impact would be %s. Inherent risk %d/125 (%s).",
		threat.Name,
		ladder(likelihoodLadder, s.Likelihood),
		ladder(vulnerabilityLadder, s.Vulnerability),
		ladder(impactLadder, s.Impact),
		s.InherentRisk, s.RiskLevel)

	findings := topFindings(contributions)
	if len(findings) > 0 {
		fmt.Fprintf(&b, " Observed: %s.", strings.Join(findings, "; "))
	} else {
		b.WriteString(" No specific gaps were observed for this threat.")
	}

	if s.CriticalPriority && s.RiskLevel != types.RiskLevelCritical {
		b.WriteString(" Vulnerability alone warrants critical priority.")
	}

	return b.String()
}

func topFindings(contributions []Contribution) []string {
	sorted := make([]Contribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	var findings []string
	for _, c := range sorted {
		if len(findings) == maxFindings {
			break
		}
		findings = append(findings, finding(c))
	}
	return findings
}

func finding(c Contribution) string {
	if c.Question.Finding != "" {
		return c.Question.Finding
	}
	return fmt.Sprintf("%q answered %q", strings.TrimSpace(c.Question.Text), c.Answer.String())
}
