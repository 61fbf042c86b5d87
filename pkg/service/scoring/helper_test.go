package scoring_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

func newKnowledgeBase(t *testing.T) *model.KnowledgeBase {
	t.Helper()

	kb, err := model.NewKnowledgeBase(
		[]model.Threat{
			{ID: "cargo-theft", Name: "Cargo Theft", Category: "theft", BaselineLikelihood: 2, BaselineImpact: 4},
			{ID: "after-hours-intrusion", Name: "After-hours Intrusion", Category: "intrusion", BaselineLikelihood: 3, BaselineImpact: 3},
			{ID: "insider-collusion", Name: "Insider Collusion", Category: "theft", BaselineLikelihood: 2, BaselineImpact: 3},
			{ID: "fire", Name: "Fire", Category: "life-safety", BaselineLikelihood: 1, BaselineImpact: 5},
			{ID: "inventory-shrinkage", Name: "Inventory Shrinkage", Category: "theft", BaselineLikelihood: 3, BaselineImpact: 2},
		},
		[]model.Control{
			{ID: "seal-verification", Name: "Trailer Seal Verification", Category: "procedural", Effectiveness: 0.8},
			{ID: "cctv", Name: "CCTV Coverage", Category: "technical", Effectiveness: 0.6},
			{ID: "guard-patrol", Name: "Guard Patrol", Category: "physical", Effectiveness: 0.5},
			{ID: "access-badge", Name: "Badge Access Control", Category: "technical", Effectiveness: 0.7},
			{ID: "perimeter-lighting", Name: "Perimeter Lighting", Category: "physical", Effectiveness: 0.4},
		},
	)
	gt.NoError(t, err).Required()
	return kb
}

func newQuestionnaire(t *testing.T, kb *model.KnowledgeBase) *model.Questionnaire {
	t.Helper()

	q := &model.Questionnaire{
		ID:   "warehouse",
		Name: "Warehouse",
		Sections: []model.Section{
			{ID: "dock", Name: "Shipping & Receiving", Weight: 2},
			{ID: "perimeter", Name: "Perimeter"},
			{ID: "history", Name: "Incident History"},
			{ID: "profile", Name: "Facility Profile"},
		},
		Questions: []model.Question{
			{
				ID: "seals", Section: "dock", Text: "Are trailer seals verified on arrival?",
				Finding: "no trailer seal verification", Polarity: types.PolarityPositiveControl, Weight: 2,
				Threats: []types.ThreatID{"cargo-theft"}, Controls: []types.ControlID{"seal-verification"},
			},
			{
				ID: "yard-cctv", Section: "dock", Text: "Is the trailer yard covered by CCTV?",
				Finding: "no CCTV coverage of the trailer yard", Polarity: types.PolarityPositiveControl, Weight: 2,
				Threats: []types.ThreatID{"cargo-theft"}, Controls: []types.ControlID{"cctv"},
			},
			{
				ID: "lighting", Section: "perimeter", Text: "Rate perimeter lighting (1-5)",
				Finding: "poor perimeter lighting", Polarity: types.PolarityRating, Weight: 1,
				Threats:  []types.ThreatID{"cargo-theft", "after-hours-intrusion"},
				Controls: []types.ControlID{"perimeter-lighting", "guard-patrol"},
			},
			{
				ID: "theft-history", Section: "history", Text: "Any cargo theft in the last 3 years?",
				Finding: "history of full truckload theft", Polarity: types.PolarityNegativeIndicator, Weight: 1,
				Threats: []types.ThreatID{"cargo-theft"},
			},
			{
				ID: "dock-cctv", Section: "dock", Text: "Are dock doors covered by CCTV?",
				Finding: "no CCTV at dock doors", Polarity: types.PolarityPositiveControl, Weight: 1,
				Threats: []types.ThreatID{"after-hours-intrusion"}, Controls: []types.ControlID{"cctv"},
			},
			{
				ID: "access", Section: "perimeter", Text: "How are employee entrances controlled?",
				Finding: "weak entrance access control", Polarity: types.PolarityMultipleChoice, Weight: 1,
				BadAnswers: []string{"none", "key"},
				Threats:    []types.ThreatID{"insider-collusion"}, Controls: []types.ControlID{"access-badge"},
			},
			{ID: "hours", Section: "profile", Text: "Operating hours", Polarity: types.PolarityContext},
			{ID: "asset-value", Section: "profile", Text: "Inventory value band", Polarity: types.PolarityContext},
			{ID: "shrinkage", Section: "profile", Text: "Annual shrinkage (%)", Polarity: types.PolarityContext},
		},
		LikelihoodRules: []model.AdjustmentRule{
			{
				ID: "24x7-intrusion", Threats: []types.ThreatID{"after-hours-intrusion"}, Delta: -1,
				When: model.Condition{Question: "hours", Op: types.ConditionEquals, Values: []string{"24x7"}},
			},
			{
				ID: "24x7-insider", Threats: []types.ThreatID{"insider-collusion"}, Delta: 1,
				When: model.Condition{Question: "hours", Op: types.ConditionEquals, Values: []string{"24x7"}},
			},
			{
				ID: "theft-confirmed", Threats: []types.ThreatID{"cargo-theft"}, Group: "theft-history", Delta: 1,
				When: model.Condition{Question: "theft-history", Op: types.ConditionYes},
			},
			{
				ID: "theft-insider", Threats: []types.ThreatID{"cargo-theft"}, Group: "theft-history", Delta: 2,
				When: model.Condition{Question: "theft-history", Op: types.ConditionContains, Values: []string{"insider"}},
			},
		},
		ImpactRules: []model.AdjustmentRule{
			{
				ID: "high-value", Threats: []types.ThreatID{model.AllThreats}, Delta: 1,
				When: model.Condition{Question: "asset-value", Op: types.ConditionAnyOf, Values: []string{"high", "very high"}},
			},
		},
		ImpactFloors: []model.ImpactFloor{
			{Threat: "cargo-theft", Min: 4},
			{Threat: "fire", Min: 5},
		},
		Gates: []model.Gate{
			{Threat: "inventory-shrinkage", When: model.Condition{Question: "shrinkage", Op: types.ConditionGTE, Threshold: 2}},
		},
	}
	gt.NoError(t, q.Build(kb)).Required()
	return q
}

func responses(answers map[types.QuestionID]model.Answer) model.Responses {
	r := make(model.Responses, len(answers))
	for id, a := range answers {
		r[id] = &model.Response{QuestionID: id, Answer: a}
	}
	return r
}

func mustThreat(t *testing.T, kb *model.KnowledgeBase, id types.ThreatID) *model.Threat {
	t.Helper()
	threat, ok := kb.Threat(id)
	gt.Bool(t, ok).True()
	return threat
}
