package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/repository/memory"
	"github.com/secmon-lab/bastion/pkg/usecase"
)

var errInjected = errors.New("injected failure")

func newRegistry(t *testing.T) *model.TemplateRegistry {
	t.Helper()
	registry, err := catalog.Load(catalog.Source{})
	gt.NoError(t, err).Required()
	return registry
}

// criticalAnswers makes cargo theft critical on the default warehouse template
func criticalAnswers() []*model.Response {
	return []*model.Response{
		{QuestionID: "wh.seals", Answer: model.TextAnswer("no")},
		{QuestionID: "wh.driver-id", Answer: model.BoolAnswer(false)},
		{QuestionID: "wh.cctv", Answer: model.TextAnswer("no")},
		{QuestionID: "wh.hv-cage", Answer: model.TextAnswer("no")},
		{QuestionID: "wh.theft-history", Answer: model.TextAnswer("yes, multiple incidents involving staff")},
		{QuestionID: "wh.asset-value", Answer: model.TextAnswer("high")},
	}
}

// faultyRepository wraps a repository and injects persistence failures
type faultyRepository struct {
	interfaces.Repository
	scenario   *faultyScenarioRepository
	assessment *faultyAssessmentRepository
}

func newFaultyRepository() *faultyRepository {
	base := memory.New()
	return &faultyRepository{
		Repository: base,
		scenario: &faultyScenarioRepository{
			ScenarioRepository: base.Scenario(),
			failCreateAt:       -1,
		},
		assessment: &faultyAssessmentRepository{AssessmentRepository: base.Assessment()},
	}
}

func (r *faultyRepository) Scenario() interfaces.ScenarioRepository     { return r.scenario }
func (r *faultyRepository) Assessment() interfaces.AssessmentRepository { return r.assessment }

type faultyScenarioRepository struct {
	interfaces.ScenarioRepository
	mu           sync.Mutex
	creates      int
	failCreateAt int
	failDelete   bool
	failList     bool
	// beforeCreate and beforeList run once, on the next matching call
	beforeCreate func()
	beforeList   func()
}

func (r *faultyScenarioRepository) takeHook(hook *func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn := *hook
	*hook = nil
	return fn
}

func (r *faultyScenarioRepository) Create(ctx context.Context, s *model.RiskScenario) error {
	if fn := r.takeHook(&r.beforeCreate); fn != nil {
		fn()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failCreateAt >= 0 && r.creates > r.failCreateAt {
		return errInjected
	}
	return r.ScenarioRepository.Create(ctx, s)
}

func (r *faultyScenarioRepository) Delete(ctx context.Context, assessmentID types.AssessmentID, id types.ScenarioID) error {
	r.mu.Lock()
	fail := r.failDelete
	r.mu.Unlock()
	if fail {
		return errInjected
	}
	return r.ScenarioRepository.Delete(ctx, assessmentID, id)
}

func (r *faultyScenarioRepository) ListByAssessment(ctx context.Context, id types.AssessmentID) ([]*model.RiskScenario, error) {
	if fn := r.takeHook(&r.beforeList); fn != nil {
		fn()
	}

	r.mu.Lock()
	fail := r.failList
	r.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	return r.ScenarioRepository.ListByAssessment(ctx, id)
}

// failCreatesAfter lets n more creates succeed, then fails
func (r *faultyScenarioRepository) failCreatesAfter(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates = 0
	r.failCreateAt = n
}

type faultyAssessmentRepository struct {
	interfaces.AssessmentRepository
	failUpdate bool
}

func (r *faultyAssessmentRepository) Update(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	if r.failUpdate {
		return nil, errInjected
	}
	return r.AssessmentRepository.Update(ctx, a)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

type notification struct {
	assessment *model.Assessment
	scenarios  []*model.RiskScenario
}

func (n *recordingNotifier) NotifyCritical(ctx context.Context, a *model.Assessment, scenarios []*model.RiskScenario) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{assessment: a, scenarios: scenarios})
	return nil
}

func (n *recordingNotifier) Calls() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

func setupAssessment(t *testing.T, uc *usecase.UseCases, responses []*model.Response) *model.Assessment {
	t.Helper()
	ctx := context.Background()
	a, err := uc.Assessment.CreateAssessment(ctx, "North DC", "Reno, NV", "warehouse")
	gt.NoError(t, err).Required()
	if len(responses) > 0 {
		_, err = uc.Assessment.PutResponses(ctx, a.ID, responses)
		gt.NoError(t, err).Required()
	}
	return a
}
