package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// assessmentLocks is a keyed mutex. Entries are removed once no caller holds
// or waits for them. The zero value is ready to use.
type assessmentLocks struct {
	mu      sync.Mutex
	entries map[types.AssessmentID]*assessmentLock
}

type assessmentLock struct {
	sem  chan struct{}
	refs int
}

// lock blocks until the caller owns id or ctx is done
func (l *assessmentLocks) lock(ctx context.Context, id types.AssessmentID) (func(), error) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[types.AssessmentID]*assessmentLock)
	}
	e, ok := l.entries[id]
	if !ok {
		e = &assessmentLock{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.release(id, e)
		}, nil
	case <-ctx.Done():
		l.release(id, e)
		return nil, goerr.Wrap(ctx.Err(), "interrupted while waiting for regeneration", goerr.V(AssessmentIDKey, id))
	}
}

func (l *assessmentLocks) release(id types.AssessmentID, e *assessmentLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}
