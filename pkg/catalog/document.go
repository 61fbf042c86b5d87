package catalog

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// CatalogDocument is the file form of the threat and control catalogs
type CatalogDocument struct {
	Threats  []ThreatEntry  `toml:"threat" yaml:"threats"`
	Controls []ControlEntry `toml:"control" yaml:"controls"`
}

// ThreatEntry is one threat of a catalog file
type ThreatEntry struct {
	ID                 string `toml:"id" yaml:"id"`
	Name               string `toml:"name" yaml:"name"`
	Category           string `toml:"category" yaml:"category"`
	BaselineLikelihood int    `toml:"baseline_likelihood" yaml:"baseline_likelihood"`
	BaselineImpact     int    `toml:"baseline_impact" yaml:"baseline_impact"`
	Description        string `toml:"description" yaml:"description"`
}

// ControlEntry is one control of a catalog file
type ControlEntry struct {
	ID            string  `toml:"id" yaml:"id"`
	Name          string  `toml:"name" yaml:"name"`
	Category      string  `toml:"category" yaml:"category"`
	Effectiveness float64 `toml:"effectiveness" yaml:"effectiveness"`
	Description   string  `toml:"description" yaml:"description"`
}

// TemplateDocument is the file form of one facility questionnaire.
// Threats and controls are referenced by catalog ID or by name.
type TemplateDocument struct {
	ID              string          `toml:"id" yaml:"id"`
	Name            string          `toml:"name" yaml:"name"`
	Sections        []SectionEntry  `toml:"section" yaml:"sections"`
	Questions       []QuestionEntry `toml:"question" yaml:"questions"`
	LikelihoodRules []RuleEntry     `toml:"likelihood_rule" yaml:"likelihood_rules"`
	ImpactRules     []RuleEntry     `toml:"impact_rule" yaml:"impact_rules"`
	ImpactFloors    []FloorEntry    `toml:"impact_floor" yaml:"impact_floors"`
	Gates           []GateEntry     `toml:"gate" yaml:"gates"`
}

// SectionEntry is one questionnaire section
type SectionEntry struct {
	ID     string  `toml:"id" yaml:"id"`
	Name   string  `toml:"name" yaml:"name"`
	Weight float64 `toml:"weight" yaml:"weight"`
}

// QuestionEntry is one questionnaire item
type QuestionEntry struct {
	ID              string   `toml:"id" yaml:"id"`
	Section         string   `toml:"section" yaml:"section"`
	Text            string   `toml:"text" yaml:"text"`
	Finding         string   `toml:"finding" yaml:"finding"`
	Polarity        string   `toml:"polarity" yaml:"polarity"`
	Weight          int      `toml:"weight" yaml:"weight"`
	Threats         []string `toml:"threats" yaml:"threats"`
	Controls        []string `toml:"controls" yaml:"controls"`
	BadAnswers      []string `toml:"bad_answers" yaml:"bad_answers"`
	Match           string   `toml:"match" yaml:"match"`
	RatingThreshold float64  `toml:"rating_threshold" yaml:"rating_threshold"`
}

// ConditionEntry is a predicate over one answer
type ConditionEntry struct {
	Question  string   `toml:"question" yaml:"question"`
	Op        string   `toml:"op" yaml:"op"`
	Values    []string `toml:"values" yaml:"values"`
	Threshold float64  `toml:"threshold" yaml:"threshold"`
}

// RuleEntry is one likelihood or impact adjustment
type RuleEntry struct {
	ID      string         `toml:"id" yaml:"id"`
	Threats []string       `toml:"threats" yaml:"threats"`
	Group   string         `toml:"group" yaml:"group"`
	Delta   int            `toml:"delta" yaml:"delta"`
	When    ConditionEntry `toml:"when" yaml:"when"`
}

// FloorEntry is a minimum impact for one threat
type FloorEntry struct {
	Threat string `toml:"threat" yaml:"threat"`
	Min    int    `toml:"min" yaml:"min"`
}

// GateEntry restricts a threat to runs where the condition holds
type GateEntry struct {
	Threat string         `toml:"threat" yaml:"threat"`
	When   ConditionEntry `toml:"when" yaml:"when"`
}

// ToDomain converts the catalog entries to domain threats and controls
func (d *CatalogDocument) ToDomain() ([]model.Threat, []model.Control) {
	threats := make([]model.Threat, len(d.Threats))
	for i, t := range d.Threats {
		threats[i] = model.Threat{
			ID:                 types.ThreatID(t.ID),
			Name:               t.Name,
			Category:           t.Category,
			BaselineLikelihood: t.BaselineLikelihood,
			BaselineImpact:     t.BaselineImpact,
			Description:        t.Description,
		}
	}

	controls := make([]model.Control, len(d.Controls))
	for i, c := range d.Controls {
		controls[i] = model.Control{
			ID:            types.ControlID(c.ID),
			Name:          c.Name,
			Category:      c.Category,
			Effectiveness: c.Effectiveness,
			Description:   c.Description,
		}
	}

	return threats, controls
}

// ThreatReferences returns every threat name or ID the template mentions,
// excluding the wildcard
func (d *TemplateDocument) ThreatReferences() []string {
	var refs []string
	for _, q := range d.Questions {
		refs = append(refs, q.Threats...)
	}
	for _, rules := range [][]RuleEntry{d.LikelihoodRules, d.ImpactRules} {
		for _, r := range rules {
			for _, t := range r.Threats {
				if t != string(model.AllThreats) {
					refs = append(refs, t)
				}
			}
		}
	}
	for _, f := range d.ImpactFloors {
		refs = append(refs, f.Threat)
	}
	for _, g := range d.Gates {
		refs = append(refs, g.Threat)
	}
	return refs
}

// ControlReferences returns every control name or ID the template mentions
func (d *TemplateDocument) ControlReferences() []string {
	var refs []string
	for _, q := range d.Questions {
		refs = append(refs, q.Controls...)
	}
	return refs
}

// Unresolved returns the threat and control references that do not match
// the knowledge base
func (d *TemplateDocument) Unresolved(kb *model.KnowledgeBase) (threats, controls []string) {
	return kb.ResolveThreatNames(d.ThreatReferences()).Missing,
		kb.ResolveControlNames(d.ControlReferences()).Missing
}

// ToQuestionnaire resolves all catalog references against the knowledge
// base and converts the document to a questionnaire. Any unresolved name is
// a fatal error carrying the full list of missing names.
func (d *TemplateDocument) ToQuestionnaire(kb *model.KnowledgeBase) (*model.Questionnaire, error) {
	threatRefs := kb.ResolveThreatNames(d.ThreatReferences())
	if err := threatRefs.Err(); err != nil {
		return nil, goerr.Wrap(err, "unresolved threat references", goerr.V(model.TemplateIDKey, d.ID))
	}
	controlRefs := kb.ResolveControlNames(d.ControlReferences())
	if err := controlRefs.Err(); err != nil {
		return nil, goerr.Wrap(err, "unresolved control references", goerr.V(model.TemplateIDKey, d.ID))
	}

	threatIDs := func(names []string) []types.ThreatID {
		ids := make([]types.ThreatID, 0, len(names))
		for _, n := range names {
			if n == string(model.AllThreats) {
				ids = append(ids, model.AllThreats)
				continue
			}
			ids = append(ids, threatRefs.Found[n])
		}
		return ids
	}

	q := &model.Questionnaire{
		ID:   types.TemplateID(d.ID),
		Name: d.Name,
	}

	for _, s := range d.Sections {
		q.Sections = append(q.Sections, model.Section{
			ID:     types.SectionID(s.ID),
			Name:   s.Name,
			Weight: s.Weight,
		})
	}

	for _, e := range d.Questions {
		controls := make([]types.ControlID, 0, len(e.Controls))
		for _, c := range e.Controls {
			controls = append(controls, controlRefs.Found[c])
		}
		q.Questions = append(q.Questions, model.Question{
			ID:              types.QuestionID(e.ID),
			Section:         types.SectionID(e.Section),
			Text:            e.Text,
			Finding:         e.Finding,
			Polarity:        types.Polarity(e.Polarity),
			Weight:          e.Weight,
			Threats:         threatIDs(e.Threats),
			Controls:        controls,
			BadAnswers:      e.BadAnswers,
			Match:           types.MatchStrategy(e.Match),
			RatingThreshold: e.RatingThreshold,
		})
	}

	convertRules := func(entries []RuleEntry) []model.AdjustmentRule {
		rules := make([]model.AdjustmentRule, 0, len(entries))
		for _, r := range entries {
			rules = append(rules, model.AdjustmentRule{
				ID:      r.ID,
				Threats: threatIDs(r.Threats),
				Group:   r.Group,
				Delta:   r.Delta,
				When:    r.When.toDomain(),
			})
		}
		return rules
	}
	q.LikelihoodRules = convertRules(d.LikelihoodRules)
	q.ImpactRules = convertRules(d.ImpactRules)

	for _, f := range d.ImpactFloors {
		q.ImpactFloors = append(q.ImpactFloors, model.ImpactFloor{
			Threat: threatRefs.Found[f.Threat],
			Min:    f.Min,
		})
	}

	for _, g := range d.Gates {
		q.Gates = append(q.Gates, model.Gate{
			Threat: threatRefs.Found[g.Threat],
			When:   g.When.toDomain(),
		})
	}

	return q, nil
}

func (c ConditionEntry) toDomain() model.Condition {
	return model.Condition{
		Question:  types.QuestionID(c.Question),
		Op:        types.ConditionOp(c.Op),
		Values:    c.Values,
		Threshold: c.Threshold,
	}
}
