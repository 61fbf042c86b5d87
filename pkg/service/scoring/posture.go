package scoring

import (
	"math"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Posture computes the 0-100 security posture score from category-weighted
// pass ratios. Only decidable answers to non-context questions are counted;
// categories with nothing counted do not weigh on the score.
func Posture(q *model.Questionnaire, responses model.Responses) *model.PostureScore {
	categories := make([]model.CategoryPosture, 0, len(q.Sections))
	index := make(map[types.SectionID]int, len(q.Sections))
	for _, s := range q.Sections {
		index[s.ID] = len(categories)
		categories = append(categories, model.CategoryPosture{
			Section: s.ID,
			Name:    s.Name,
			Weight:  s.PostureWeight(),
		})
	}

	for i := range q.Questions {
		question := &q.Questions[i]
		if question.Polarity == types.PolarityContext {
			continue
		}
		answer := responses.Answer(question.ID)

		idx, ok := index[question.Section]
		if !ok {
			idx = len(categories)
			index[question.Section] = idx
			categories = append(categories, model.CategoryPosture{
				Section: question.Section,
				Name:    string(question.Section),
				Weight:  1,
			})
		}

		switch {
		case Triggered(question, answer):
			categories[idx].Failed++
		case Safe(question, answer):
			categories[idx].Passed++
		}
	}

	var weighted, weights float64
	for i := range categories {
		c := &categories[i]
		if c.Passed+c.Failed == 0 {
			continue
		}
		weighted += c.Weight * c.Ratio()
		weights += c.Weight
	}

	score := 0.0
	if weights > 0 {
		score = math.Round(weighted/weights*1000) / 10
	}

	return &model.PostureScore{
		Score:      score,
		Grade:      GradeOf(score),
		Categories: categories,
	}
}

// GradeOf maps a posture score to its letter grade
func GradeOf(score float64) types.Grade {
	switch {
	case score >= 90:
		return types.GradeA
	case score >= 80:
		return types.GradeB
	case score >= 70:
		return types.GradeC
	case score >= 60:
		return types.GradeD
	default:
		return types.GradeF
	}
}
