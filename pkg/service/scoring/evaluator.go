package scoring

import (
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// CriticalBonus is added to a critical question's contribution when it
// contributes anything at all
const CriticalBonus = 1

// Contribution is the risk-factor points one answered question adds to one threat
type Contribution struct {
	Question *model.Question
	Answer   model.Answer
	Critical bool
	Points   int
}

// Triggered reports whether the answer is a risk indicator under the
// question's polarity. Null answers and unparsable ratings never trigger.
func Triggered(q *model.Question, answer model.Answer) bool {
	if answer.IsNull() {
		return false
	}

	switch q.Polarity {
	case types.PolarityPositiveControl:
		yes, ok := answer.Affirmative()
		return ok && !yes
	case types.PolarityNegativeIndicator:
		yes, ok := answer.Affirmative()
		return ok && yes
	case types.PolarityRating:
		v, ok := answer.Numeric()
		return ok && v <= q.Threshold()
	case types.PolarityMultipleChoice:
		return model.MatchAny(answer.Values(), q.BadAnswers, q.Match)
	default:
		return false
	}
}

// Evaluate returns the non-negative contribution of one answer. critical is
// whether the question sits in the critical subset of the threat being scored.
func Evaluate(q *model.Question, answer model.Answer, critical bool) int {
	if !Triggered(q, answer) || q.Weight <= 0 {
		return 0
	}
	points := q.Weight
	if critical {
		points += CriticalBonus
	}
	return points
}

// Safe reports whether the answer positively evidences the absence of the
// gap, i.e. the inverse of Triggered on a decidable answer. Context
// questions never evidence anything.
func Safe(q *model.Question, answer model.Answer) bool {
	if answer.IsNull() {
		return false
	}

	switch q.Polarity {
	case types.PolarityPositiveControl:
		yes, ok := answer.Affirmative()
		return ok && yes
	case types.PolarityNegativeIndicator:
		yes, ok := answer.Affirmative()
		return ok && !yes
	case types.PolarityRating:
		v, ok := answer.Numeric()
		return ok && v > q.Threshold()
	case types.PolarityMultipleChoice:
		return !model.MatchAny(answer.Values(), q.BadAnswers, q.Match)
	default:
		return false
	}
}
