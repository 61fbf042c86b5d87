package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestAssessmentLocks(t *testing.T) {
	ctx := context.Background()

	t.Run("same assessment is exclusive", func(t *testing.T) {
		var locks assessmentLocks
		var mu sync.Mutex
		active, peak := 0, 0

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locks.lock(ctx, 1)
				gt.NoError(t, err)
				mu.Lock()
				active++
				peak = max(peak, active)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()

		gt.Value(t, peak).Equal(1)
		gt.Value(t, len(locks.entries)).Equal(0)
	})

	t.Run("different assessments do not block", func(t *testing.T) {
		var locks assessmentLocks
		unlock1, err := locks.lock(ctx, 1)
		gt.NoError(t, err).Required()
		defer unlock1()

		unlock2, err := locks.lock(ctx, 2)
		gt.NoError(t, err).Required()
		unlock2()
	})

	t.Run("waiting honors cancellation", func(t *testing.T) {
		var locks assessmentLocks
		unlock, err := locks.lock(ctx, 1)
		gt.NoError(t, err).Required()

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = locks.lock(cctx, 1)
		gt.Bool(t, errors.Is(err, context.DeadlineExceeded)).True()

		unlock()
		gt.Value(t, len(locks.entries)).Equal(0)
	})
}
