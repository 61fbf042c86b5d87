package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

func newTemplate() *model.Questionnaire {
	return &model.Questionnaire{
		ID:   "warehouse",
		Name: "Warehouse",
		Sections: []model.Section{
			{ID: "dock", Name: "Dock", Weight: 2},
			{ID: "profile", Name: "Profile"},
		},
		Questions: []model.Question{
			{ID: "seals", Section: "dock", Polarity: types.PolarityPositiveControl, Weight: 2,
				Threats: []types.ThreatID{"cargo-theft"}, Controls: []types.ControlID{"seal-verification"}},
			{ID: "yard-cctv", Section: "dock", Polarity: types.PolarityPositiveControl, Weight: 1,
				Threats: []types.ThreatID{"cargo-theft"}, Controls: []types.ControlID{"cctv"}},
			{ID: "hours", Section: "profile", Polarity: types.PolarityContext},
		},
		ImpactFloors: []model.ImpactFloor{
			{Threat: "fire", Min: 4},
			{Threat: "fire", Min: 5},
		},
		Gates: []model.Gate{
			{Threat: "cargo-theft", When: model.Condition{Question: "hours", Op: types.ConditionAnswered}},
		},
	}
}

func TestQuestionnaire_Build(t *testing.T) {
	kb := newKB(t)

	t.Run("builds mapping split by criticality", func(t *testing.T) {
		q := newTemplate()
		gt.NoError(t, q.Build(kb)).Required()

		m, ok := q.Mapping("cargo-theft")
		gt.Bool(t, ok).True()
		gt.Value(t, m.Critical).Equal([]types.QuestionID{"seals"})
		gt.Value(t, m.General).Equal([]types.QuestionID{"yard-cctv"})
		gt.Value(t, m.QuestionIDs()).Equal([]types.QuestionID{"seals", "yard-cctv"})
		gt.Bool(t, m.IsCritical("seals")).True()
		gt.Bool(t, m.IsCritical("yard-cctv")).False()

		_, ok = q.Mapping("fire")
		gt.Bool(t, ok).False()

		gt.Value(t, q.ImpactFloor("fire")).Equal(5)
		gt.Value(t, q.ImpactFloor("cargo-theft")).Equal(0)
		gt.Array(t, q.GatesFor("cargo-theft")).Length(1)

		s, ok := q.Section("profile")
		gt.Bool(t, ok).True()
		gt.Value(t, s.PostureWeight()).Equal(1.0)
	})

	t.Run("duplicate question", func(t *testing.T) {
		q := newTemplate()
		q.Questions = append(q.Questions, model.Question{ID: "seals", Polarity: types.PolarityContext})
		gt.Error(t, q.Build(kb)).Is(model.ErrDuplicateID)
	})

	t.Run("unknown control", func(t *testing.T) {
		q := newTemplate()
		q.Questions[0].Controls = []types.ControlID{"guard-patrol"}
		gt.Error(t, q.Build(kb)).Is(model.ErrUnknownReference)
	})

	t.Run("unknown threat in rule", func(t *testing.T) {
		q := newTemplate()
		q.LikelihoodRules = []model.AdjustmentRule{{
			ID: "r1", Threats: []types.ThreatID{"hijacking"}, Delta: 1,
			When: model.Condition{Question: "hours", Op: types.ConditionAnswered},
		}}
		gt.Error(t, q.Build(kb)).Is(model.ErrUnknownReference)
	})

	t.Run("wildcard rule is accepted", func(t *testing.T) {
		q := newTemplate()
		q.ImpactRules = []model.AdjustmentRule{{
			ID: "r1", Threats: []types.ThreatID{model.AllThreats}, Delta: 1,
			When: model.Condition{Question: "hours", Op: types.ConditionAnswered},
		}}
		gt.NoError(t, q.Build(kb))
	})

	t.Run("floor out of range", func(t *testing.T) {
		q := newTemplate()
		q.ImpactFloors = []model.ImpactFloor{{Threat: "fire", Min: 6}}
		gt.Error(t, q.Build(kb)).Is(model.ErrScoreOutOfRange)
	})

	t.Run("invalid weight", func(t *testing.T) {
		q := newTemplate()
		q.Questions[0].Weight = 3
		gt.Error(t, q.Build(kb)).Is(model.ErrInvalidQuestion)
	})

	t.Run("multiple choice without bad answers", func(t *testing.T) {
		q := newTemplate()
		q.Questions[0].Polarity = types.PolarityMultipleChoice
		gt.Error(t, q.Build(kb)).Is(model.ErrInvalidQuestion)
	})

	t.Run("zero delta rule", func(t *testing.T) {
		q := newTemplate()
		q.LikelihoodRules = []model.AdjustmentRule{{
			ID: "r1", Threats: []types.ThreatID{"fire"},
			When: model.Condition{Question: "hours", Op: types.ConditionAnswered},
		}}
		gt.Error(t, q.Build(kb)).Is(model.ErrInvalidRule)
	})
}

func TestCondition_Holds(t *testing.T) {
	r := model.NewResponses([]*model.Response{
		{QuestionID: "hours", Answer: model.TextAnswer("24x7")},
		{QuestionID: "staff", Answer: model.NumberAnswer(120)},
		{QuestionID: "alarm", Answer: model.BoolAnswer(false)},
		{QuestionID: "goods", Answer: model.ListAnswer("Electronics", "apparel")},
		{QuestionID: "history", Answer: model.TextAnswer("Yes, suspected insider")},
	})

	testCases := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{name: "equals ignores case", cond: model.Condition{Question: "hours", Op: types.ConditionEquals, Values: []string{"24X7"}}, want: true},
		{name: "equals is exact", cond: model.Condition{Question: "hours", Op: types.ConditionEquals, Values: []string{"24"}}, want: false},
		{name: "any of list", cond: model.Condition{Question: "goods", Op: types.ConditionAnyOf, Values: []string{"electronics", "pharma"}}, want: true},
		{name: "contains", cond: model.Condition{Question: "history", Op: types.ConditionContains, Values: []string{"insider"}}, want: true},
		{name: "yes", cond: model.Condition{Question: "history", Op: types.ConditionYes}, want: true},
		{name: "no", cond: model.Condition{Question: "alarm", Op: types.ConditionNo}, want: true},
		{name: "gte", cond: model.Condition{Question: "staff", Op: types.ConditionGTE, Threshold: 100}, want: true},
		{name: "lte", cond: model.Condition{Question: "staff", Op: types.ConditionLTE, Threshold: 100}, want: false},
		{name: "gte reads the leading number of text", cond: model.Condition{Question: "hours", Op: types.ConditionGTE, Threshold: 1}, want: true},
		{name: "answered", cond: model.Condition{Question: "alarm", Op: types.ConditionAnswered}, want: true},
		{name: "missing answer never holds", cond: model.Condition{Question: "unknown", Op: types.ConditionAnswered}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, tc.cond.Holds(r)).Equal(tc.want)
		})
	}
}

func TestTemplateRegistry(t *testing.T) {
	kb := newKB(t)
	reg := model.NewTemplateRegistry(kb)
	gt.Array(t, reg.List()).Length(0)

	gt.NoError(t, reg.Register(newTemplate())).Required()
	gt.Error(t, reg.Register(newTemplate())).Is(model.ErrDuplicateID)

	q, err := reg.Get("warehouse")
	gt.NoError(t, err).Required()
	gt.Value(t, q.Name).Equal("Warehouse")
	gt.Array(t, reg.List()).Length(1)
	gt.Value(t, reg.KnowledgeBase()).Equal(kb)

	_, err = reg.Get("retail")
	gt.Error(t, err).Is(model.ErrTemplateNotFound)
}
