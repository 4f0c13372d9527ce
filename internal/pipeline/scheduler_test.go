package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankkom/inmet-bdmep-data/internal/pipeline"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := pipeline.NewScheduler("every day at three", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestScheduler_Next(t *testing.T) {
	s, err := pipeline.NewScheduler("0 0 3 * * *", discardLogger())
	require.NoError(t, err)

	from := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.April, 27, 3, 0, 0, 0, time.UTC), s.Next(from))

	fiveField, err := pipeline.NewScheduler("30 2 * * *", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 27, 2, 30, 0, 0, time.UTC), fiveField.Next(from))
}

func TestScheduler_RunInvokesJobUntilCanceled(t *testing.T) {
	s, err := pipeline.NewScheduler("* * * * * *", discardLogger())
	require.NoError(t, err)

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, func(context.Context) { calls.Add(1) })
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
