package scoring_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/service/scoring"
)

func TestEvaluate(t *testing.T) {
	positive := &model.Question{ID: "p", Polarity: types.PolarityPositiveControl, Weight: 2}
	negative := &model.Question{ID: "n", Polarity: types.PolarityNegativeIndicator, Weight: 1}
	rating := &model.Question{ID: "r", Polarity: types.PolarityRating, Weight: 1}
	customRating := &model.Question{ID: "cr", Polarity: types.PolarityRating, Weight: 1, RatingThreshold: 3}
	choice := &model.Question{ID: "c", Polarity: types.PolarityMultipleChoice, Weight: 1, BadAnswers: []string{"None", "padlock"}}
	exact := &model.Question{ID: "e", Polarity: types.PolarityMultipleChoice, Weight: 1, BadAnswers: []string{"none"}, Match: types.MatchExact}
	context := &model.Question{ID: "x", Polarity: types.PolarityContext, Weight: 2}
	unweighted := &model.Question{ID: "u", Polarity: types.PolarityPositiveControl, Weight: 0}

	testCases := []struct {
		name     string
		question *model.Question
		answer   model.Answer
		critical bool
		want     int
	}{
		{name: "positive control answered no", question: positive, answer: model.BoolAnswer(false), want: 2},
		{name: "positive control answered yes", question: positive, answer: model.TextAnswer("Yes"), want: 0},
		{name: "positive control text no with detail", question: positive, answer: model.TextAnswer("No, not yet"), want: 2},
		{name: "critical bonus", question: positive, answer: model.TextAnswer("no"), critical: true, want: 3},
		{name: "critical bonus not applied without trigger", question: positive, answer: model.TextAnswer("yes"), critical: true, want: 0},
		{name: "null answer", question: positive, answer: model.Answer{}, critical: true, want: 0},
		{name: "blank text is null", question: positive, answer: model.TextAnswer("  "), want: 0},
		{name: "undecidable text", question: positive, answer: model.TextAnswer("sometimes"), want: 0},
		{name: "negative indicator yes", question: negative, answer: model.TextAnswer("yes, twice"), want: 1},
		{name: "negative indicator no", question: negative, answer: model.BoolAnswer(false), want: 0},
		{name: "rating at threshold", question: rating, answer: model.NumberAnswer(2), want: 1},
		{name: "rating above threshold", question: rating, answer: model.NumberAnswer(3), want: 0},
		{name: "rating as text", question: rating, answer: model.TextAnswer("1 - poor"), want: 1},
		{name: "rating as quality word", question: rating, answer: model.TextAnswer("Poor"), want: 1},
		{name: "good quality word", question: rating, answer: model.TextAnswer("good"), want: 0},
		{name: "malformed rating fails open", question: rating, answer: model.TextAnswer("n/a"), want: 0},
		{name: "custom rating threshold", question: customRating, answer: model.NumberAnswer(3), want: 1},
		{name: "multiple choice substring", question: choice, answer: model.TextAnswer("Padlock only"), want: 1},
		{name: "multiple choice list", question: choice, answer: model.ListAnswer("badge", "NONE"), want: 1},
		{name: "multiple choice good answer", question: choice, answer: model.TextAnswer("badge reader"), want: 0},
		{name: "exact match rejects substring", question: exact, answer: model.TextAnswer("none at night"), want: 0},
		{name: "exact match", question: exact, answer: model.TextAnswer("None"), want: 1},
		{name: "context never contributes", question: context, answer: model.TextAnswer("no"), critical: true, want: 0},
		{name: "zero weight never contributes", question: unweighted, answer: model.TextAnswer("no"), critical: true, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, scoring.Evaluate(tc.question, tc.answer, tc.critical)).Equal(tc.want)
		})
	}
}

func TestSafe(t *testing.T) {
	positive := &model.Question{ID: "p", Polarity: types.PolarityPositiveControl, Weight: 1}
	rating := &model.Question{ID: "r", Polarity: types.PolarityRating, Weight: 1}
	context := &model.Question{ID: "x", Polarity: types.PolarityContext}

	t.Run("safe answer is the inverse of a trigger", func(t *testing.T) {
		gt.Bool(t, scoring.Safe(positive, model.TextAnswer("yes"))).True()
		gt.Bool(t, scoring.Safe(positive, model.TextAnswer("no"))).False()
	})

	t.Run("undecidable answers are neither safe nor triggered", func(t *testing.T) {
		for _, a := range []model.Answer{{}, model.TextAnswer("unsure")} {
			gt.Bool(t, scoring.Safe(positive, a)).False()
			gt.Bool(t, scoring.Triggered(positive, a)).False()
		}
		gt.Bool(t, scoring.Safe(rating, model.TextAnswer("n/a"))).False()
	})

	t.Run("context is never safe", func(t *testing.T) {
		gt.Bool(t, scoring.Safe(context, model.TextAnswer("yes"))).False()
	})
}
