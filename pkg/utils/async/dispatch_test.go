package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/utils/async"
)

func TestDispatcherWait(t *testing.T) {
	d := async.NewDispatcher()
	var count atomic.Int32

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}
	d.Dispatch(context.Background(), func(ctx context.Context) error {
		return errors.New("ignored")
	})
	d.Dispatch(context.Background(), func(ctx context.Context) error {
		panic("recovered")
	})

	d.Wait()
	gt.Value(t, count.Load()).Equal(int32(5))
}
