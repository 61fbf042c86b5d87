package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/usecase"
	"github.com/secmon-lab/bastion/pkg/utils/errutil"
	"github.com/secmon-lab/bastion/pkg/utils/safe"
)

// maxBodySize limits request bodies to 1 MiB
const maxBodySize = 1 << 20

type assessmentView struct {
	ID         types.AssessmentID `json:"id"`
	Name       string             `json:"name"`
	Facility   string             `json:"facility,omitempty"`
	TemplateID types.TemplateID   `json:"template"`
	Summary    *summaryView       `json:"summary,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type summaryView struct {
	GenerationID     types.GenerationID      `json:"generation_id"`
	OverallRiskLevel types.RiskLevel         `json:"overall_risk_level"`
	ScenarioCount    int                     `json:"scenario_count"`
	CriticalCount    int                     `json:"critical_count"`
	LevelCounts      map[types.RiskLevel]int `json:"level_counts"`
	TopThreats       []types.ThreatID        `json:"top_threats"`
	Narrative        string                  `json:"narrative"`
	ScoredAt         time.Time               `json:"scored_at"`
}

type scenarioView struct {
	ID                  types.ScenarioID   `json:"id"`
	GenerationID        types.GenerationID `json:"generation_id"`
	ThreatID            types.ThreatID     `json:"threat_id"`
	ThreatName          string             `json:"threat_name"`
	Likelihood          int                `json:"likelihood"`
	Vulnerability       int                `json:"vulnerability"`
	Impact              int                `json:"impact"`
	InherentRisk        int                `json:"inherent_risk"`
	RiskPercent         float64            `json:"risk_percent"`
	RiskLevel           types.RiskLevel    `json:"risk_level"`
	CriticalPriority    bool               `json:"critical_priority"`
	Narrative           string             `json:"narrative"`
	RecommendedControls []types.ControlID  `json:"recommended_controls"`
	ResidualRisk        int                `json:"residual_risk"`
	CreatedAt           time.Time          `json:"created_at"`
}

type responseView struct {
	QuestionID types.QuestionID `json:"question_id"`
	Answer     model.Answer     `json:"answer"`
	Notes      string           `json:"notes,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type postureView struct {
	Score      float64        `json:"score"`
	Grade      types.Grade    `json:"grade"`
	Categories []categoryView `json:"categories"`
}

type categoryView struct {
	Section types.SectionID `json:"section"`
	Name    string          `json:"name"`
	Weight  float64         `json:"weight"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
	Ratio   float64         `json:"ratio"`
}

type templateView struct {
	ID        types.TemplateID `json:"id"`
	Name      string           `json:"name"`
	Sections  []sectionView    `json:"sections"`
	Questions []questionView   `json:"questions"`
}

type sectionView struct {
	ID     types.SectionID `json:"id"`
	Name   string          `json:"name"`
	Weight float64         `json:"weight"`
}

type questionView struct {
	ID       types.QuestionID `json:"id"`
	Section  types.SectionID  `json:"section"`
	Text     string           `json:"text"`
	Polarity types.Polarity   `json:"polarity"`
	Weight   int              `json:"weight"`
	Threats  []types.ThreatID `json:"threats"`
}

func toAssessmentView(a *model.Assessment) assessmentView {
	v := assessmentView{
		ID:         a.ID,
		Name:       a.Name,
		Facility:   a.Facility,
		TemplateID: a.TemplateID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Summary != nil {
		s := toSummaryView(a.Summary)
		v.Summary = &s
	}
	return v
}

func toSummaryView(s *model.AssessmentSummary) summaryView {
	return summaryView{
		GenerationID:     s.GenerationID,
		OverallRiskLevel: s.OverallRiskLevel,
		ScenarioCount:    s.ScenarioCount,
		CriticalCount:    s.CriticalCount,
		LevelCounts:      s.LevelCounts,
		TopThreats:       s.TopThreats,
		Narrative:        s.Narrative,
		ScoredAt:         s.ScoredAt,
	}
}

func toScenarioViews(scenarios []*model.RiskScenario) []scenarioView {
	views := make([]scenarioView, len(scenarios))
	for i, s := range scenarios {
		controls := s.RecommendedControls
		if controls == nil {
			controls = []types.ControlID{}
		}
		views[i] = scenarioView{
			ID:                  s.ID,
			GenerationID:        s.GenerationID,
			ThreatID:            s.ThreatID,
			ThreatName:          s.ThreatName,
			Likelihood:          s.Likelihood,
			Vulnerability:       s.Vulnerability,
			Impact:              s.Impact,
			InherentRisk:        s.InherentRisk,
			RiskPercent:         s.RiskPercent(),
			RiskLevel:           s.RiskLevel,
			CriticalPriority:    s.CriticalPriority,
			Narrative:           s.Narrative,
			RecommendedControls: controls,
			ResidualRisk:        s.ResidualRisk,
			CreatedAt:           s.CreatedAt,
		}
	}
	return views
}

func toResponseViews(responses []*model.Response) []responseView {
	views := make([]responseView, len(responses))
	for i, r := range responses {
		views[i] = responseView{
			QuestionID: r.QuestionID,
			Answer:     r.Answer,
			Notes:      r.Notes,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return views
}

func toPostureView(p *model.PostureScore) postureView {
	v := postureView{
		Score:      p.Score,
		Grade:      p.Grade,
		Categories: make([]categoryView, len(p.Categories)),
	}
	for i := range p.Categories {
		c := &p.Categories[i]
		v.Categories[i] = categoryView{
			Section: c.Section,
			Name:    c.Name,
			Weight:  c.Weight,
			Passed:  c.Passed,
			Failed:  c.Failed,
			Ratio:   c.Ratio(),
		}
	}
	return v
}

func toTemplateView(q *model.Questionnaire) templateView {
	v := templateView{
		ID:        q.ID,
		Name:      q.Name,
		Sections:  make([]sectionView, len(q.Sections)),
		Questions: make([]questionView, len(q.Questions)),
	}
	for i, s := range q.Sections {
		v.Sections[i] = sectionView{ID: s.ID, Name: s.Name, Weight: s.PostureWeight()}
	}
	for i, question := range q.Questions {
		v.Questions[i] = questionView{
			ID:       question.ID,
			Section:  question.Section,
			Text:     question.Text,
			Polarity: question.Polarity,
			Weight:   question.Weight,
			Threats:  question.Threats,
		}
	}
	return v
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrAssessmentNotFound),
		errors.Is(err, usecase.ErrNotScored):
		return http.StatusNotFound
	case errors.Is(err, model.ErrTemplateNotFound),
		errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrUnknownQuestion),
		errors.Is(err, model.ErrMissingName):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrRegenerationConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrInvalidInput, "failed to decode request body", goerr.V("error", err.Error()))
	}
	return nil
}

func assessmentIDParam(r *http.Request) (types.AssessmentID, error) {
	id, err := types.ParseAssessmentID(chi.URLParam(r, "assessmentID"))
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrInvalidInput, "invalid assessment ID", goerr.V("error", err.Error()))
	}
	return id, nil
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.uc.Registry().List()
	views := make([]templateView, len(templates))
	for i, q := range templates {
		views[i] = toTemplateView(q)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"templates": views})
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string           `json:"name"`
		Facility string           `json:"facility"`
		Template types.TemplateID `json:"template"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	a, err := s.uc.Assessment.CreateAssessment(r.Context(), req.Name, req.Facility, req.Template)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toAssessmentView(a))
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	assessments, err := s.uc.Assessment.ListAssessments(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	views := make([]assessmentView, len(assessments))
	for i, a := range assessments {
		views[i] = toAssessmentView(a)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"assessments": views})
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	a, err := s.uc.Assessment.GetAssessment(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssessmentView(a))
}

func (s *Server) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Assessment.DeleteAssessment(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putResponses(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req map[types.QuestionID]struct {
		Answer model.Answer `json:"answer"`
		Notes  string       `json:"notes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	// Deterministic write order for the repository
	ids := make([]types.QuestionID, 0, len(req))
	for qid := range req {
		ids = append(ids, qid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	responses := make([]*model.Response, 0, len(req))
	for _, qid := range ids {
		responses = append(responses, &model.Response{
			QuestionID: qid,
			Answer:     req[qid].Answer,
			Notes:      req[qid].Notes,
		})
	}

	all, err := s.uc.Assessment.PutResponses(r.Context(), id, responses)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"responses": toResponseViews(all)})
}

func (s *Server) listResponses(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responses, err := s.uc.Assessment.ListResponses(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"responses": toResponseViews(responses)})
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	result, err := s.uc.Scenario.Regenerate(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"generation_id": result.GenerationID,
		"summary":       toSummaryView(result.Summary),
		"scenarios":     toScenarioViews(result.Scenarios),
		"superseded":    result.Superseded,
	})
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	scenarios, err := s.uc.Scenario.ListScenarios(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"scenarios": toScenarioViews(scenarios)})
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summary, err := s.uc.Scenario.Summary(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSummaryView(summary))
}

func (s *Server) getPosture(w http.ResponseWriter, r *http.Request) {
	id, err := assessmentIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	posture, err := s.uc.Assessment.Posture(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPostureView(posture))
}
