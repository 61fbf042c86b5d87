package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// AllThreats is the wildcard threat reference in rule tables
const AllThreats types.ThreatID = "*"

// Condition is a declarative predicate over one answer
type Condition struct {
	Question  types.QuestionID
	Op        types.ConditionOp
	Values    []string
	Threshold float64
}

// Validate checks if the Condition is valid
func (c *Condition) Validate() error {
	if err := c.Question.Validate(); err != nil {
		return goerr.Wrap(err, "invalid condition question")
	}
	if !c.Op.IsValid() {
		return goerr.Wrap(ErrInvalidRule, "invalid condition operator",
			goerr.V(QuestionIDKey, c.Question), goerr.V("op", c.Op))
	}
	switch c.Op {
	case types.ConditionEquals, types.ConditionAnyOf, types.ConditionContains:
		if len(c.Values) == 0 {
			return goerr.Wrap(ErrInvalidRule, "condition requires values",
				goerr.V(QuestionIDKey, c.Question), goerr.V("op", c.Op))
		}
	}
	return nil
}

// Holds evaluates the condition against the responses. A missing or null
// answer never satisfies a condition.
func (c *Condition) Holds(responses Responses) bool {
	answer := responses.Answer(c.Question)
	if answer.IsNull() {
		return false
	}

	switch c.Op {
	case types.ConditionAnswered:
		return true
	case types.ConditionYes:
		yes, ok := answer.Affirmative()
		return ok && yes
	case types.ConditionNo:
		yes, ok := answer.Affirmative()
		return ok && !yes
	case types.ConditionEquals, types.ConditionAnyOf:
		return MatchAny(answer.Values(), c.Values, types.MatchExact)
	case types.ConditionContains:
		return MatchAny(answer.Values(), c.Values, types.MatchSubstring)
	case types.ConditionGTE:
		v, ok := answer.Numeric()
		return ok && v >= c.Threshold
	case types.ConditionLTE:
		v, ok := answer.Numeric()
		return ok && v <= c.Threshold
	default:
		return false
	}
}

// MatchAny reports whether any of values matches any of patterns,
// case-insensitively. Substring matching also accepts exact matches.
func MatchAny(values, patterns []string, strategy types.MatchStrategy) bool {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		for _, p := range patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if v == p {
				return true
			}
			if strategy != types.MatchExact && strings.Contains(v, p) {
				return true
			}
		}
	}
	return false
}

// AdjustmentRule is one row of a likelihood or impact bump table:
// (threats, predicate, delta). Within a non-empty Group only the matching
// rule with the largest absolute delta is applied per threat.
type AdjustmentRule struct {
	ID      string
	Threats []types.ThreatID
	Group   string
	Delta   int
	When    Condition
}

// AppliesTo reports whether the rule is keyed to the given threat
func (r *AdjustmentRule) AppliesTo(id types.ThreatID) bool {
	for _, t := range r.Threats {
		if t == AllThreats || t == id {
			return true
		}
	}
	return false
}

// Validate checks if the AdjustmentRule is valid
func (r *AdjustmentRule) Validate() error {
	if r.ID == "" {
		return goerr.Wrap(ErrInvalidRule, "rule ID is required")
	}
	if len(r.Threats) == 0 {
		return goerr.Wrap(ErrInvalidRule, "rule must name at least one threat", goerr.V(RuleIDKey, r.ID))
	}
	if r.Delta == 0 {
		return goerr.Wrap(ErrInvalidRule, "rule delta must not be zero", goerr.V(RuleIDKey, r.ID))
	}
	if err := r.When.Validate(); err != nil {
		return goerr.Wrap(err, "invalid rule condition", goerr.V(RuleIDKey, r.ID))
	}
	return nil
}

// ImpactFloor forces a minimum impact for a threat whose worst case is
// categorically severe
type ImpactFloor struct {
	Threat types.ThreatID
	Min    int
}

// Gate restricts a threat to runs where a triggering profile condition holds
type Gate struct {
	Threat types.ThreatID
	When   Condition
}
