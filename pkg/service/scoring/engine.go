package scoring

import (
	"context"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Engine scores every catalog threat of one questionnaire against a response set
type Engine struct {
	kb          *model.KnowledgeBase
	q           *model.Questionnaire
	parallelism int
}

// Option is a functional option for Engine configuration
type Option func(*Engine)

// WithParallelism evaluates threats on up to n goroutines. n <= 1 keeps
// evaluation sequential; n < 0 uses the number of CPUs.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = runtime.NumCPU()
		}
		e.parallelism = n
	}
}

// New creates a scoring engine. The questionnaire must already be built
// against the same knowledge base.
func New(kb *model.KnowledgeBase, q *model.Questionnaire, opts ...Option) (*Engine, error) {
	if kb == nil {
		return nil, goerr.New("knowledge base is required")
	}
	if q == nil {
		return nil, goerr.New("questionnaire is required")
	}

	e := &Engine{kb: kb, q: q, parallelism: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Questionnaire returns the questionnaire the engine scores against
func (e *Engine) Questionnaire() *model.Questionnaire {
	return e.q
}

// Gated reports whether every gate of the threat holds. Threats without
// gates are always generated.
func (e *Engine) Gated(threat *model.Threat, responses model.Responses) bool {
	for _, g := range e.q.GatesFor(threat.ID) {
		if !g.When.Holds(responses) {
			return false
		}
	}
	return true
}

// Evaluate scores one threat. The detected control set is computed once per
// run by DetectControls and shared by every threat.
func (e *Engine) Evaluate(threat *model.Threat, responses model.Responses, detected ControlSet) *model.RiskScenario {
	l := Likelihood(e.q, threat, responses)
	v := Vulnerability(e.q, threat.ID, responses)
	i := Impact(e.q, threat, responses)
	return Compose(e.kb, threat, l, v, i, detected)
}

// EvaluateAll iterates the threat catalog and returns one scenario per
// threat whose gates hold, in catalog order. Scoring itself never fails;
// an error is returned only when ctx is cancelled.
func (e *Engine) EvaluateAll(ctx context.Context, responses model.Responses) ([]*model.RiskScenario, error) {
	detected := DetectControls(e.q, responses)
	threats := e.kb.Threats()
	results := make([]*model.RiskScenario, len(threats))

	eg, ctx := errgroup.WithContext(ctx)
	limit := e.parallelism
	if limit < 1 {
		limit = 1
	}
	eg.SetLimit(limit)

	for idx, threat := range threats {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return goerr.Wrap(err, "scoring cancelled")
			}
			if !e.Gated(threat, responses) {
				return nil
			}
			results[idx] = e.Evaluate(threat, responses, detected)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	scenarios := make([]*model.RiskScenario, 0, len(results))
	for _, s := range results {
		if s != nil {
			scenarios = append(scenarios, s)
		}
	}

	logging.From(ctx).Debug("scored threats",
		"template_id", e.q.ID,
		"threats", len(threats),
		"scenarios", len(scenarios),
		"detected_controls", detected.Len(),
	)

	return scenarios, nil
}
