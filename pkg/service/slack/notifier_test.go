package slack_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

type mockService struct {
	channelID string
	blocks    []goslack.Block
	text      string
	err       error
}

func (m *mockService) PostMessage(_ context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	m.channelID = channelID
	m.blocks = blocks
	m.text = text
	return "1.0", m.err
}

func criticalAssessment() (*model.Assessment, []*model.RiskScenario) {
	a := &model.Assessment{
		ID:         7,
		Name:       "North DC",
		Facility:   "Building 4",
		TemplateID: "warehouse",
		Summary: &model.AssessmentSummary{
			OverallRiskLevel: types.RiskLevelCritical,
			ScenarioCount:    12,
			CriticalCount:    2,
			Narrative:        "Two threats need immediate attention.",
		},
	}
	scenarios := []*model.RiskScenario{
		{
			ThreatID: "cargo-theft", ThreatName: "Cargo Theft",
			Likelihood: 5, Vulnerability: 5, Impact: 4, InherentRisk: 100,
			RiskLevel: types.RiskLevelCritical, CriticalPriority: true,
			RecommendedControls: []types.ControlID{"high-value-cage", "seal-verification"},
		},
		{
			ThreatID: "fire", ThreatName: "Fire",
			Likelihood: 2, Vulnerability: 4, Impact: 5, InherentRisk: 40,
			RiskLevel: types.RiskLevelMedium, CriticalPriority: true,
		},
	}
	return a, scenarios
}

func blockTexts(blocks []goslack.Block) []string {
	var texts []string
	for _, b := range blocks {
		switch v := b.(type) {
		case *goslack.HeaderBlock:
			texts = append(texts, v.Text.Text)
		case *goslack.SectionBlock:
			if v.Text != nil {
				texts = append(texts, v.Text.Text)
			}
			for _, f := range v.Fields {
				texts = append(texts, f.Text)
			}
		case *goslack.ContextBlock:
			for _, e := range v.ContextElements.Elements {
				if obj, ok := e.(*goslack.TextBlockObject); ok {
					texts = append(texts, obj.Text)
				}
			}
		}
	}
	return texts
}

func TestBuildCriticalBlocks(t *testing.T) {
	a, scenarios := criticalAssessment()

	t.Run("renders header summary and scenarios", func(t *testing.T) {
		blocks := slack.BuildCriticalBlocks(a, scenarios, "https://bastion.example.com/api/assessments/7")
		texts := blockTexts(blocks)

		gt.String(t, texts[0]).Contains("North DC")
		gt.Array(t, texts).Has("Two threats need immediate attention.")
		gt.Array(t, texts).Has("*Critical threats*\n2 of 12")

		var cargo, fire string
		for _, s := range texts {
			switch {
			case strings.HasPrefix(s, "*Cargo Theft*"):
				cargo = s
			case strings.HasPrefix(s, "*Fire*"):
				fire = s
			}
		}
		footer := texts[len(texts)-1]

		gt.String(t, cargo).Contains("100/125 (L5 V5 I4)")
		gt.String(t, cargo).Contains("`high-value-cage`, `seal-verification`")
		gt.String(t, fire).Contains("critical priority")
		gt.String(t, footer).Contains("Template: warehouse")
		gt.String(t, footer).Contains("<https://bastion.example.com/api/assessments/7|Assessment>")
	})

	t.Run("caps listed scenarios", func(t *testing.T) {
		many := make([]*model.RiskScenario, 0, slack.MaxListedScenarios+2)
		for i := 0; i < slack.MaxListedScenarios+2; i++ {
			many = append(many, scenarios[0])
		}
		blocks := slack.BuildCriticalBlocks(a, many, "")

		// header, summary, divider, listed scenarios, context
		gt.Array(t, blocks).Length(3 + slack.MaxListedScenarios + 1)
		texts := blockTexts(blocks)
		gt.String(t, texts[len(texts)-1]).Contains("+2 more")
	})

	t.Run("omits summary when not scored", func(t *testing.T) {
		bare := &model.Assessment{ID: 1, Name: "Depot", TemplateID: "retail"}
		blocks := slack.BuildCriticalBlocks(bare, nil, "")
		// header, divider, context
		gt.Array(t, blocks).Length(3)
	})
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("requires service and channel", func(t *testing.T) {
		_, err := slack.NewNotifier(nil, "C1")
		gt.Value(t, err).NotNil()

		_, err = slack.NewNotifier(&mockService{}, "")
		gt.Value(t, err).NotNil()
	})

	t.Run("posts to the configured channel", func(t *testing.T) {
		svc := &mockService{}
		n, err := slack.NewNotifier(svc, "C0SEC", slack.WithBaseURL("https://bastion.example.com/"))
		gt.NoError(t, err).Required()

		a, scenarios := criticalAssessment()
		gt.NoError(t, n.NotifyCritical(ctx, a, scenarios)).Required()

		gt.Value(t, svc.channelID).Equal("C0SEC")
		gt.Value(t, svc.text).Equal("Critical risk found in North DC")
		texts := blockTexts(svc.blocks)
		gt.String(t, texts[len(texts)-1]).Contains("https://bastion.example.com/api/assessments/7|")
	})

	t.Run("wraps post failure", func(t *testing.T) {
		postErr := errors.New("rate_limited")
		svc := &mockService{err: postErr}
		n, err := slack.NewNotifier(svc, "C0SEC")
		gt.NoError(t, err).Required()

		a, scenarios := criticalAssessment()
		err = n.NotifyCritical(ctx, a, scenarios)
		gt.Error(t, err).Is(postErr)
	})
}
