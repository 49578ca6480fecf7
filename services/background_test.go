package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsakai/skillview/backend/events"
)

func TestTaskRunnerRunsSubmittedWork(t *testing.T) {
	runner := NewTaskRunner(events.NewBus())

	var ran atomic.Bool
	runner.Submit("evaluation", "s1", 0, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	runner.Wait()

	assert.True(t, ran.Load())
}

func TestTaskRunnerFailurePublishesErrorEvent(t *testing.T) {
	bus := events.NewBus()
	errCh, cancel := bus.SubscribeErrors()
	defer cancel()

	runner := NewTaskRunner(bus)
	runner.Submit("evaluation", "s1", 0, func(ctx context.Context) error {
		return errors.New("model exploded")
	})
	runner.Wait()

	select {
	case event := <-errCh:
		assert.Equal(t, "s1", event.SessionID)
		assert.Equal(t, "evaluation", event.Task)
		assert.Contains(t, event.Message, "model exploded")
	case <-time.After(time.Second):
		t.Fatal("no error event published")
	}
}

func TestTaskRunnerRecoversFromPanic(t *testing.T) {
	runner := NewTaskRunner(events.NewBus())

	require.NotPanics(t, func() {
		runner.Submit("evaluation", "s1", 0, func(ctx context.Context) error {
			panic("boom")
		})
		runner.Wait()
	})
}

func TestTaskRunnerHonorsDelay(t *testing.T) {
	runner := NewTaskRunner(events.NewBus())

	start := time.Now()
	runner.Submit("evaluation", "s1", 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	runner.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
