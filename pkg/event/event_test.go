package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/pkg/workerpool"
)

func TestDispatch_JoinsErrors(t *testing.T) {
	d := New(nil)
	var calls []string
	d.Listen("order.placed", func(_ context.Context, p any) error {
		calls = append(calls, "a:"+p.(string))
		return nil
	})
	d.Listen("order.placed", func(context.Context, any) error { return errors.New("mail down") })
	d.Listen("order.placed", func(context.Context, any) error { panic("bad listener") })

	err := d.Dispatch(context.Background(), "order.placed", "ORD-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail down")
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, []string{"a:ORD-1"}, calls)
}

func TestDispatch_NoListeners(t *testing.T) {
	d := New(nil)
	assert.False(t, d.Has("nothing"))
	assert.NoError(t, d.Dispatch(context.Background(), "nothing", nil))
}

func TestDispatchAsync_SurvivesCancelledRequest(t *testing.T) {
	pool := workerpool.New("events", 2)
	d := New(pool)

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var errs []error
	for i := 0; i < 2; i++ {
		d.Listen("stock.changed", func(ctx context.Context, _ any) error {
			defer wg.Done()
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.DispatchAsync(ctx, "stock.changed", 1)
	wg.Wait()
	pool.Shutdown()

	assert.Equal(t, []error{nil, nil}, errs)
}
