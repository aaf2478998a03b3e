package sweeper_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Basit2121/OneSuite/internal/sweeper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePurger counts purge calls and can be told to fail.
type fakePurger struct {
	calls   atomic.Int64
	lastTTL time.Duration
	err     error
}

func (f *fakePurger) PurgeAllExpiredSignals(ttl time.Duration) (int64, error) {
	f.calls.Add(1)
	f.lastTTL = ttl
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestSweep_PurgesWithConfiguredTTL(t *testing.T) {
	purger := &fakePurger{}
	s := sweeper.New(purger, time.Hour, time.Minute)

	s.Sweep()

	assert.Equal(t, int64(1), purger.calls.Load())
	assert.Equal(t, time.Hour, purger.lastTTL)
}

func TestSweep_SurvivesStoreErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("database is locked")}
	s := sweeper.New(purger, time.Hour, time.Minute)

	require.NotPanics(t, func() {
		s.Sweep()
		s.Sweep()
	})
	assert.Equal(t, int64(2), purger.calls.Load())
}

// TestRun_SweepsOnTicksUntilCancelled verifies the loop fires repeatedly and
// stops when the context is cancelled.
func TestRun_SweepsOnTicksUntilCancelled(t *testing.T) {
	purger := &fakePurger{}
	s := sweeper.New(purger, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return purger.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
