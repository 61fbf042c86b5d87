package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/cli/config"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/repository/memory"
	"github.com/secmon-lab/bastion/pkg/service/report"
	"github.com/secmon-lab/bastion/pkg/usecase"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/secmon-lab/bastion/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func cmdScore() *cli.Command {
	var templateID string
	var responsesPath string
	var format string
	var output string
	var noColor bool
	var parallel int
	var catalogCfg config.Catalog

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "template",
			Aliases:     []string{"t"},
			Usage:       "Questionnaire template ID (e.g., warehouse)",
			Required:    true,
			Destination: &templateID,
		},
		&cli.StringFlag{
			Name:        "responses",
			Aliases:     []string{"r"},
			Usage:       "Responses file (JSON, TOML or YAML) keyed by question ID",
			Required:    true,
			Destination: &responsesPath,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (table, json)",
			Value:       formatTable,
			Destination: &format,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file path or gs://bucket/object URL. '-' writes to stdout",
			Value:       "-",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored table output",
			Sources:     cli.EnvVars("NO_COLOR"),
			Destination: &noColor,
		},
		&cli.IntFlag{
			Name:        "parallel",
			Usage:       "Number of threats scored concurrently",
			Value:       usecase.DefaultParallelism,
			Destination: &parallel,
		},
	}
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:  "score",
		Usage: "Score responses against a template without persisting anything",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if format != formatTable && format != formatJSON {
				return goerr.Wrap(usecase.ErrInvalidInput, "invalid output format", goerr.V("format", format))
			}
			if noColor {
				color.NoColor = true
			}

			registry, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalog")
			}

			responses, err := catalog.ReadResponsesFile(responsesPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read responses")
			}

			uc := usecase.New(memory.New(), registry, usecase.WithParallelism(parallel))
			result, err := uc.Scenario.Score(ctx, types.TemplateID(templateID), responses)
			if err != nil {
				return goerr.Wrap(err, "failed to score responses")
			}

			logging.Default().Info("Scored responses",
				"template_id", templateID,
				"responses", len(responses),
				"scenarios", len(result.Scenarios),
				"overall", result.Summary.OverallRiskLevel,
			)

			contentType := "text/plain"
			if format == formatJSON {
				contentType = "application/json"
			}
			w, err := report.Open(ctx, output, contentType)
			if err != nil {
				return goerr.Wrap(err, "failed to open output", goerr.V("output", output))
			}

			if format == formatJSON {
				err = writeScoreJSON(w, templateID, result)
			} else {
				err = writeScoreTable(w, result)
			}
			if err != nil {
				safe.Close(ctx, w)
				return err
			}
			if err := w.Close(); err != nil {
				return goerr.Wrap(err, "failed to write output", goerr.V("output", output))
			}
			return nil
		},
	}
}

type scoreOutput struct {
	Template  string           `json:"template"`
	Overall   types.RiskLevel  `json:"overall_risk_level"`
	Critical  int              `json:"critical_count"`
	Narrative string           `json:"narrative"`
	Posture   postureOutput    `json:"posture"`
	Scenarios []scenarioOutput `json:"scenarios"`
	ScoredAt  time.Time        `json:"scored_at"`
}

type postureOutput struct {
	Score float64     `json:"score"`
	Grade types.Grade `json:"grade"`
}

type scenarioOutput struct {
	ThreatID            types.ThreatID    `json:"threat_id"`
	ThreatName          string            `json:"threat_name"`
	Likelihood          int               `json:"likelihood"`
	Vulnerability       int               `json:"vulnerability"`
	Impact              int               `json:"impact"`
	InherentRisk        int               `json:"inherent_risk"`
	RiskLevel           types.RiskLevel   `json:"risk_level"`
	CriticalPriority    bool              `json:"critical_priority"`
	Narrative           string            `json:"narrative"`
	RecommendedControls []types.ControlID `json:"recommended_controls"`
}

func writeScoreJSON(w io.Writer, templateID string, result *usecase.ScoreResult) error {
	out := scoreOutput{
		Template:  templateID,
		Overall:   result.Summary.OverallRiskLevel,
		Critical:  result.Summary.CriticalCount,
		Narrative: result.Summary.Narrative,
		Posture: postureOutput{
			Score: result.Posture.Score,
			Grade: result.Posture.Grade,
		},
		Scenarios: make([]scenarioOutput, len(result.Scenarios)),
		ScoredAt:  result.Summary.ScoredAt,
	}
	for i, s := range result.Scenarios {
		controls := s.RecommendedControls
		if controls == nil {
			controls = []types.ControlID{}
		}
		out.Scenarios[i] = scenarioOutput{
			ThreatID:            s.ThreatID,
			ThreatName:          s.ThreatName,
			Likelihood:          s.Likelihood,
			Vulnerability:       s.Vulnerability,
			Impact:              s.Impact,
			InherentRisk:        s.InherentRisk,
			RiskLevel:           s.RiskLevel,
			CriticalPriority:    s.CriticalPriority,
			Narrative:           s.Narrative,
			RecommendedControls: controls,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return goerr.Wrap(err, "failed to encode score result")
	}
	return nil
}

var levelColors = map[types.RiskLevel]*color.Color{
	types.RiskLevelCritical: color.New(color.FgRed, color.Bold),
	types.RiskLevelHigh:     color.New(color.FgRed),
	types.RiskLevelMedium:   color.New(color.FgYellow),
	types.RiskLevelLow:      color.New(color.FgGreen),
}

func colorLevel(level types.RiskLevel, text string) string {
	if c, ok := levelColors[level]; ok {
		return c.Sprint(text)
	}
	return text
}

func writeScoreTable(w io.Writer, result *usecase.ScoreResult) error {
	bold := color.New(color.Bold)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-26s %2s %2s %2s %5s  %-8s  %s\n", "THREAT", "L", "V", "I", "RISK", "LEVEL", "RECOMMENDED")
	for _, s := range result.Scenarios {
		name := s.ThreatName
		if s.CriticalPriority {
			name += " !"
		}
		controls := make([]string, len(s.RecommendedControls))
		for i, c := range s.RecommendedControls {
			controls[i] = c.String()
		}
		fmt.Fprintf(&sb, "%-26s %2d %2d %2d %5d  %s  %s\n",
			name, s.Likelihood, s.Vulnerability, s.Impact, s.InherentRisk,
			colorLevel(s.RiskLevel, fmt.Sprintf("%-8s", s.RiskLevel)),
			strings.Join(controls, ", "),
		)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s %s (%d critical)\n", bold.Sprint("Overall:"),
		colorLevel(result.Summary.OverallRiskLevel, result.Summary.OverallRiskLevel.String()),
		result.Summary.CriticalCount)
	fmt.Fprintf(&sb, "%s %.1f (%s)\n", bold.Sprint("Posture:"), result.Posture.Score, result.Posture.Grade)
	if result.Summary.Narrative != "" {
		sb.WriteString(result.Summary.Narrative)
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return goerr.Wrap(err, "failed to write score table")
	}
	return nil
}
