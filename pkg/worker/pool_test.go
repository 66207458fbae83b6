package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsJobsAndStops(t *testing.T) {
	p := NewPool(context.Background(), 3)

	var done atomic.Int32
	for i := 0; i < 10; i++ {
		assert.True(t, p.Submit(func(context.Context) { done.Add(1) }))
	}
	p.Stop()

	assert.Equal(t, int32(10), done.Load())
	assert.False(t, p.Submit(func(context.Context) {}))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)

	var running, peak atomic.Int32
	for i := 0; i < 8; i++ {
		p.Submit(func(context.Context) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	p.Stop()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolSurvivesPanics(t *testing.T) {
	p := NewPool(context.Background(), 1)

	var ran atomic.Bool
	p.Submit(func(context.Context) { panic("boom") })
	p.Submit(func(context.Context) { ran.Store(true) })
	p.Stop()

	assert.True(t, ran.Load())
}

func TestPoolSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 1)

	block := make(chan struct{})
	p.Submit(func(context.Context) { <-block })
	p.Submit(func(context.Context) {})
	cancel()

	assert.False(t, p.Submit(func(context.Context) {}))
	close(block)
	p.Stop()
}
