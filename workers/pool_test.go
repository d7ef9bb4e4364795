package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	p := NewWorkerPool(2)
	p.Start(context.Background())
	defer p.Stop()

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	assert.Equal(t, int32(10), n.Load())
}

func TestWorkerPoolReturnsTaskError(t *testing.T) {
	p := NewWorkerPool(1)
	p.Start(context.Background())
	defer p.Stop()

	boom := errors.New("boom")
	err := p.Submit(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	p := NewWorkerPool(2)
	p.Start(context.Background())
	defer p.Stop()

	var running, peak atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			_ = p.Submit(context.Background(), func(ctx context.Context) error {
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorkerPoolSubmitHonoursContext(t *testing.T) {
	p := NewWorkerPool(1)
	p.Start(context.Background())
	defer p.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = p.Submit(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestWorkerPoolStopped(t *testing.T) {
	p := NewWorkerPool(1)
	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)

	p.Start(context.Background())
	p.Stop()
	p.Stop()
	err = p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}
