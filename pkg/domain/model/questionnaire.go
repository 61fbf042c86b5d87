package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Section groups questions of a questionnaire. Weight is used by the
// security posture score; zero means 1.
type Section struct {
	ID     types.SectionID
	Name   string
	Weight float64
}

// PostureWeight returns the effective category weight
func (s *Section) PostureWeight() float64 {
	if s.Weight > 0 {
		return s.Weight
	}
	return 1
}

// ThreatQuestionMapping lists the questions informing one threat, split into
// critical (weight >= 2) and general questions
type ThreatQuestionMapping struct {
	Threat   types.ThreatID
	Critical []types.QuestionID
	General  []types.QuestionID
}

// QuestionIDs returns all mapped questions, critical first
func (m *ThreatQuestionMapping) QuestionIDs() []types.QuestionID {
	ids := make([]types.QuestionID, 0, len(m.Critical)+len(m.General))
	ids = append(ids, m.Critical...)
	return append(ids, m.General...)
}

// IsCritical reports whether the question sits in the critical subset
func (m *ThreatQuestionMapping) IsCritical(id types.QuestionID) bool {
	for _, c := range m.Critical {
		if c == id {
			return true
		}
	}
	return false
}

// Questionnaire is the authored metadata of one facility template: its
// questions plus the likelihood/impact rule tables, impact floors and gates
type Questionnaire struct {
	ID              types.TemplateID
	Name            string
	Sections        []Section
	Questions       []Question
	LikelihoodRules []AdjustmentRule
	ImpactRules     []AdjustmentRule
	ImpactFloors    []ImpactFloor
	Gates           []Gate

	index    map[types.QuestionID]int
	mappings map[types.ThreatID]*ThreatQuestionMapping
}

// Build validates the questionnaire against the knowledge base and builds
// the question index and threat mappings. It must be called once before the
// questionnaire is used for scoring.
func (q *Questionnaire) Build(kb *KnowledgeBase) error {
	if err := q.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid template ID")
	}

	sections := make(map[types.SectionID]bool, len(q.Sections))
	for _, s := range q.Sections {
		if sections[s.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate section ID",
				goerr.V(TemplateIDKey, q.ID), goerr.V("section_id", s.ID))
		}
		sections[s.ID] = true
	}

	q.index = make(map[types.QuestionID]int, len(q.Questions))
	q.mappings = make(map[types.ThreatID]*ThreatQuestionMapping)

	for i := range q.Questions {
		question := &q.Questions[i]
		if err := question.Validate(); err != nil {
			return goerr.Wrap(err, "invalid question", goerr.V(TemplateIDKey, q.ID))
		}
		if _, exists := q.index[question.ID]; exists {
			return goerr.Wrap(ErrDuplicateID, "duplicate question ID",
				goerr.V(TemplateIDKey, q.ID), goerr.V(QuestionIDKey, question.ID))
		}
		q.index[question.ID] = i

		for _, cid := range question.Controls {
			if _, ok := kb.Control(cid); !ok {
				return goerr.Wrap(ErrUnknownReference, "question references unknown control",
					goerr.V(QuestionIDKey, question.ID), goerr.V(ControlIDKey, cid))
			}
		}

		for _, tid := range question.Threats {
			if _, ok := kb.Threat(tid); !ok {
				return goerr.Wrap(ErrUnknownReference, "question references unknown threat",
					goerr.V(QuestionIDKey, question.ID), goerr.V(ThreatIDKey, tid))
			}
			m, ok := q.mappings[tid]
			if !ok {
				m = &ThreatQuestionMapping{Threat: tid}
				q.mappings[tid] = m
			}
			if question.IsCritical() {
				m.Critical = append(m.Critical, question.ID)
			} else {
				m.General = append(m.General, question.ID)
			}
		}
	}

	for _, rules := range [][]AdjustmentRule{q.LikelihoodRules, q.ImpactRules} {
		for i := range rules {
			if err := rules[i].Validate(); err != nil {
				return goerr.Wrap(err, "invalid adjustment rule", goerr.V(TemplateIDKey, q.ID))
			}
			if err := q.checkThreatRefs(kb, rules[i].Threats); err != nil {
				return goerr.Wrap(err, "rule references unknown threat", goerr.V(RuleIDKey, rules[i].ID))
			}
		}
	}

	for _, f := range q.ImpactFloors {
		if f.Min < MinScore || f.Min > MaxScore {
			return goerr.Wrap(ErrScoreOutOfRange, "impact floor must be between 1 and 5",
				goerr.V(ThreatIDKey, f.Threat), goerr.V("min", f.Min))
		}
		if err := q.checkThreatRefs(kb, []types.ThreatID{f.Threat}); err != nil {
			return goerr.Wrap(err, "impact floor references unknown threat")
		}
	}

	for i := range q.Gates {
		if err := q.Gates[i].When.Validate(); err != nil {
			return goerr.Wrap(err, "invalid gate condition", goerr.V(ThreatIDKey, q.Gates[i].Threat))
		}
		if err := q.checkThreatRefs(kb, []types.ThreatID{q.Gates[i].Threat}); err != nil {
			return goerr.Wrap(err, "gate references unknown threat")
		}
	}

	return nil
}

func (q *Questionnaire) checkThreatRefs(kb *KnowledgeBase, ids []types.ThreatID) error {
	for _, id := range ids {
		if id == AllThreats {
			continue
		}
		if _, ok := kb.Threat(id); !ok {
			return goerr.Wrap(ErrUnknownReference, "unknown threat", goerr.V(ThreatIDKey, id))
		}
	}
	return nil
}

// Question looks up a question by ID
func (q *Questionnaire) Question(id types.QuestionID) (*Question, bool) {
	i, ok := q.index[id]
	if !ok {
		return nil, false
	}
	return &q.Questions[i], true
}

// Mapping returns the explicit question mapping of a threat. ok is false for
// threats no question informs.
func (q *Questionnaire) Mapping(id types.ThreatID) (*ThreatQuestionMapping, bool) {
	m, ok := q.mappings[id]
	return m, ok
}

// Section looks up a section by ID
func (q *Questionnaire) Section(id types.SectionID) (*Section, bool) {
	for i := range q.Sections {
		if q.Sections[i].ID == id {
			return &q.Sections[i], true
		}
	}
	return nil, false
}

// GatesFor returns the gates restricting a threat
func (q *Questionnaire) GatesFor(id types.ThreatID) []Gate {
	var gates []Gate
	for _, g := range q.Gates {
		if g.Threat == id {
			gates = append(gates, g)
		}
	}
	return gates
}

// ImpactFloor returns the highest configured impact floor for a threat, or 0
func (q *Questionnaire) ImpactFloor(id types.ThreatID) int {
	floor := 0
	for _, f := range q.ImpactFloors {
		if f.Threat == id && f.Min > floor {
			floor = f.Min
		}
	}
	return floor
}
