package scoring

import (
	"github.com/secmon-lab/bastion/pkg/domain/model"
)

// LikelihoodResult is the likelihood of one threat with the rules that moved it
type LikelihoodResult struct {
	Score   int
	Applied []string
}

// Likelihood starts from the threat's catalog baseline and applies the
// questionnaire's likelihood rule table for that threat
func Likelihood(q *model.Questionnaire, threat *model.Threat, responses model.Responses) LikelihoodResult {
	adj := applyRules(q.LikelihoodRules, threat.ID, responses)
	return LikelihoodResult{
		Score:   clamp(threat.BaselineLikelihood + adj.Delta),
		Applied: adj.Applied,
	}
}
