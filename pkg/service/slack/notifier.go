package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// MaxListedScenarios caps the scenarios rendered in one message
const MaxListedScenarios = 5

// Notifier posts critical assessment results to a Slack channel
type Notifier struct {
	svc       Service
	channelID string
	baseURL   string
}

var _ interfaces.Notifier = &Notifier{}

// NotifierOption is a functional option for Notifier
type NotifierOption func(*Notifier)

// WithBaseURL adds a link to the assessment in the message
func WithBaseURL(url string) NotifierOption {
	return func(n *Notifier) {
		n.baseURL = strings.TrimRight(url, "/")
	}
}

// NewNotifier creates a Notifier posting to channelID
func NewNotifier(svc Service, channelID string, opts ...NotifierOption) (*Notifier, error) {
	if svc == nil {
		return nil, goerr.New("Slack service is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel is required")
	}

	n := &Notifier{svc: svc, channelID: channelID}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NotifyCritical posts one message listing the critical scenarios
func (n *Notifier) NotifyCritical(ctx context.Context, assessment *model.Assessment, scenarios []*model.RiskScenario) error {
	url := ""
	if n.baseURL != "" {
		url = fmt.Sprintf("%s/api/assessments/%d", n.baseURL, assessment.ID)
	}

	blocks := BuildCriticalBlocks(assessment, scenarios, url)
	text := fmt.Sprintf("Critical risk found in %s", assessment.Name)

	ts, err := n.svc.PostMessage(ctx, n.channelID, blocks, text)
	if err != nil {
		return goerr.Wrap(err, "failed to notify critical assessment",
			goerr.V("assessment_id", assessment.ID))
	}

	logging.From(ctx).Info("critical assessment notified",
		"assessment_id", assessment.ID,
		"channel_id", n.channelID,
		"ts", ts,
	)
	return nil
}

// BuildCriticalBlocks constructs Block Kit blocks for a critical assessment
func BuildCriticalBlocks(assessment *model.Assessment, scenarios []*model.RiskScenario, url string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, ":rotating_light: Critical risk: "+assessment.Name, true, false),
		),
	}

	if s := assessment.Summary; s != nil {
		fields := []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, "*Overall*\n"+levelLabel(s.OverallRiskLevel), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Critical threats*\n%d of %d", s.CriticalCount, s.ScenarioCount), false, false),
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, s.Narrative, false, false),
			fields, nil,
		))
	}

	blocks = append(blocks, slack.NewDividerBlock())

	listed := scenarios
	if len(listed) > MaxListedScenarios {
		listed = listed[:MaxListedScenarios]
	}
	for _, sc := range listed {
		var sb strings.Builder
		fmt.Fprintf(&sb, "*%s*  %s  %d/%d (L%d V%d I%d)",
			sc.ThreatName, levelLabel(sc.RiskLevel), sc.InherentRisk, model.MaxInherentRisk,
			sc.Likelihood, sc.Vulnerability, sc.Impact)
		if sc.CriticalPriority {
			sb.WriteString("  :warning: critical priority")
		}
		if len(sc.RecommendedControls) > 0 {
			ids := make([]string, len(sc.RecommendedControls))
			for i, c := range sc.RecommendedControls {
				ids[i] = "`" + c.String() + "`"
			}
			sb.WriteString("\nRecommended: " + strings.Join(ids, ", "))
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, sb.String(), false, false),
			nil, nil,
		))
	}

	contextParts := []string{}
	if assessment.Facility != "" {
		contextParts = append(contextParts, assessment.Facility)
	}
	contextParts = append(contextParts, "Template: "+assessment.TemplateID.String())
	if rest := len(scenarios) - len(listed); rest > 0 {
		contextParts = append(contextParts, fmt.Sprintf("+%d more", rest))
	}
	if url != "" {
		contextParts = append(contextParts, fmt.Sprintf(":link: <%s|Assessment>", url))
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(contextParts, "  |  "), false, false),
	))

	return blocks
}

func levelLabel(level types.RiskLevel) string {
	switch level {
	case types.RiskLevelCritical:
		return ":red_circle: critical"
	case types.RiskLevelHigh:
		return ":large_orange_circle: high"
	case types.RiskLevelMedium:
		return ":large_yellow_circle: medium"
	default:
		return ":white_circle: " + level.String()
	}
}
