package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "noop"}))
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		done <- j
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "exam.autosubmit", Payload: 42}))
	select {
	case j := <-done:
		assert.NotEmpty(t, j.ID)
		assert.Equal(t, 42, j.Payload)
	case <-time.After(time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesThenDiscards(t *testing.T) {
	var attempts int32
	discarded := make(chan Job, 1)
	q := NewQueue("test", func(context.Context, Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, OnDiscard: func(j Job, _ error) { discarded <- j }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "x"}))
	select {
	case j := <-discarded:
		assert.Equal(t, 3, j.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never discarded")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRejectsDuplicateKeyWhilePending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 8)
	q := NewQueue("test", func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Key: "session-1"}))
	<-started
	assert.ErrorIs(t, q.Enqueue(Job{Key: "session-1"}), ErrDuplicate)
	require.NoError(t, q.Enqueue(Job{Key: "session-2"}))

	close(release)
	require.Eventually(t, func() bool {
		return q.Enqueue(Job{Key: "session-1"}) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestStopRunsBufferedJobs(t *testing.T) {
	var ran int32
	gate := make(chan struct{})
	q := NewQueue("test", func(_ context.Context, j Job) error {
		if j.Type == "first" {
			<-gate
		}
		atomic.AddInt32(&ran, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "first"}))
	require.NoError(t, q.Enqueue(Job{Type: "second"}))
	require.NoError(t, q.Enqueue(Job{Type: "third"}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gate)
	}()
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&ran))
	assert.Error(t, q.Enqueue(Job{Type: "late"}))
}
