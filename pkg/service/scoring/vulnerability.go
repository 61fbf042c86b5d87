package scoring

import (
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

const (
	// BaselineVulnerability is the neutral starting vulnerability
	BaselineVulnerability = 3
	// PointsPerVulnerabilityStep is how many risk-factor points raise vulnerability by one
	PointsPerVulnerabilityStep = 3
)

// VulnerabilityResult is the vulnerability of one threat with the
// contributions that produced it
type VulnerabilityResult struct {
	Score  int
	Points int
	// Contributions lists every question that contributed a non-zero point,
	// in questionnaire order of the mapping (critical first)
	Contributions []Contribution
	// Fallback is set when the threat has no explicit mapping and the whole
	// questionnaire was used
	Fallback bool
}

// Vulnerability scores one threat from the questions mapped to it. Threats
// without a mapping fall back to the whole questionnaire so that every
// catalog threat always receives a score.
func Vulnerability(q *model.Questionnaire, threat types.ThreatID, responses model.Responses) VulnerabilityResult {
	var result VulnerabilityResult

	mapping, ok := q.Mapping(threat)
	if ok {
		for _, id := range mapping.QuestionIDs() {
			question, found := q.Question(id)
			if !found {
				continue
			}
			result.add(question, responses.Answer(id), mapping.IsCritical(id))
		}
	} else {
		result.Fallback = true
		for i := range q.Questions {
			question := &q.Questions[i]
			result.add(question, responses.Answer(question.ID), false)
		}
	}

	result.Score = clamp(BaselineVulnerability + result.Points/PointsPerVulnerabilityStep)
	return result
}

func (r *VulnerabilityResult) add(q *model.Question, answer model.Answer, critical bool) {
	points := Evaluate(q, answer, critical)
	if points == 0 {
		return
	}
	r.Points += points
	r.Contributions = append(r.Contributions, Contribution{
		Question: q,
		Answer:   answer,
		Critical: critical,
		Points:   points,
	})
}
