package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/swift-payment-portal/internal/logging"
)

type countingCache struct {
	calls atomic.Int32
	err   error
}

func (c *countingCache) CleanExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestJanitor_SweepsUntilCancelled(t *testing.T) {
	cache := &countingCache{}
	j := NewJanitor(cache, logging.Discard(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cache.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestJanitor_SweepErrorIsNotFatal(t *testing.T) {
	cache := &countingCache{err: errors.New("db down")}
	j := NewJanitor(cache, logging.Discard(), time.Hour)

	j.sweep(context.Background())
	j.sweep(context.Background())
	assert.Equal(t, int32(2), cache.calls.Load())
}

func TestJanitor_ZeroIntervalReturnsImmediately(t *testing.T) {
	j := NewJanitor(&countingCache{}, logging.Discard(), 0)

	done := make(chan struct{})
	go func() {
		j.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled janitor should return")
	}
}
