package usecase

import (
	"time"

	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/utils/async"
)

// DefaultParallelism is the number of threats scored concurrently by default
const DefaultParallelism = 4

type UseCases struct {
	repo        interfaces.Repository
	registry    *model.TemplateRegistry
	notifier    interfaces.Notifier
	dispatcher  *async.Dispatcher
	parallelism int
	now         func() time.Time
	regenLocks  assessmentLocks

	Assessment *AssessmentUseCase
	Scenario   *ScenarioUseCase
}

type Option func(*UseCases)

// WithNotifier enables critical-assessment notifications
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithDispatcher sets the dispatcher used for notifications. The owner
// waits on it at shutdown.
func WithDispatcher(d *async.Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatcher = d
	}
}

// WithParallelism evaluates threats concurrently. n < 0 means one worker per CPU.
func WithParallelism(n int) Option {
	return func(uc *UseCases) {
		uc.parallelism = n
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, registry *model.TemplateRegistry, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:        repo,
		registry:    registry,
		parallelism: DefaultParallelism,
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.dispatcher == nil {
		uc.dispatcher = async.NewDispatcher()
	}

	uc.Assessment = &AssessmentUseCase{uc: uc}
	uc.Scenario = &ScenarioUseCase{uc: uc}

	return uc
}

// Registry returns the template registry the use cases score against
func (uc *UseCases) Registry() *model.TemplateRegistry {
	return uc.registry
}

// Wait blocks until in-flight notifications are done
func (uc *UseCases) Wait() {
	uc.dispatcher.Wait()
}
