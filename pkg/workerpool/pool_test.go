package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type dropCounter struct {
	n atomic.Int32
}

func (d *dropCounter) CacheTaskDropped() { d.n.Add(1) }

func TestPool_SubmitRunsAllTasks(t *testing.T) {
	p := New(4, 16, logger.Nop{}, nil)

	var (
		wg    sync.WaitGroup
		count atomic.Int32
	)
	wg.Add(10)
	for i := 0; i < 10; i++ {
		require.True(t, p.Submit(func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		}))
	}

	wg.Wait()
	p.Close()
	assert.Equal(t, int32(10), count.Load())
}

func TestPool_DoReturnsResult(t *testing.T) {
	p := New(2, 0, logger.Nop{}, nil)
	defer p.Close()

	errTask := errors.New("task failed")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		return errTask
	})
	assert.ErrorIs(t, err, errTask)

	err = p.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestPool_DoHonorsContext(t *testing.T) {
	p := New(1, 0, logger.Nop{}, nil)
	defer p.Close()

	release := make(chan struct{})
	p.Submit(func(ctx context.Context) { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_SubmitDropsWhenFull(t *testing.T) {
	drops := &dropCounter{}
	p := New(1, 1, logger.Nop{}, drops)

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.True(t, p.Submit(func(ctx context.Context) {}))
	assert.False(t, p.Submit(func(ctx context.Context) {}))
	assert.Equal(t, int32(1), drops.n.Load())

	close(release)
	p.Close()
}

func TestPool_Closed(t *testing.T) {
	p := New(1, 1, logger.Nop{}, nil)
	p.Close()
	p.Close()

	assert.False(t, p.Submit(func(ctx context.Context) {}))
	assert.ErrorIs(t, p.Do(context.Background(), func(ctx context.Context) error { return nil }), ErrClosed)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(1, 0, logger.Nop{}, nil)
	defer p.Close()

	p.Submit(func(ctx context.Context) { panic("boom") })

	err := p.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}
