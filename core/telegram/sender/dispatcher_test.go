package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRuns(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	var calls atomic.Int32
	for range 5 {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			calls.Add(1)
			return nil
		}))
	}
	d.Close()

	assert.EqualValues(t, 5, calls.Load())
	assert.EqualValues(t, 5, d.Stats().Sent)
	assert.ErrorIs(t, d.Enqueue(context.Background(), "send.text", "", func() error { return nil }), ErrQueueClosed)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "edit.text", "editMessageText", func() error {
		if calls.Add(1) == 1 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return nil
	}))
	d.Close()

	assert.EqualValues(t, 2, calls.Load())
	assert.Zero(t, d.Stats().Failed)
}

func TestDispatcherGivesUpOnClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "delete", "deleteMessage", func() error {
		calls.Add(1)
		return tele.NewError(400, "Bad Request: message to delete not found")
	}))
	d.Close()

	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, d.Stats().Failed)
}

// blockWorker occupies the single worker until the returned func is called.
func blockWorker(t *testing.T, d *Dispatcher) func() {
	t.Helper()
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	var once sync.Once
	return func() { once.Do(func() { close(release) }) }
}

func TestDispatcherCoalescesKeyedJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	release := blockWorker(t, d)

	var mu sync.Mutex
	var got []string
	edit := func(text string) func() error {
		return func() error {
			mu.Lock()
			got = append(got, text)
			mu.Unlock()
			return nil
		}
	}
	ctx := context.Background()
	require.NoError(t, d.EnqueueKeyed(ctx, "edit:5:10", "edit.text", "editMessageText", edit("3")))
	require.NoError(t, d.EnqueueKeyed(ctx, "edit:5:10", "edit.text", "editMessageText", edit("2")))
	require.NoError(t, d.EnqueueKeyed(ctx, "edit:5:11", "edit.text", "editMessageText", edit("other")))
	require.NoError(t, d.EnqueueKeyed(ctx, "edit:5:10", "edit.text", "editMessageText", edit("1")))

	release()
	d.Close()

	assert.Equal(t, []string{"1", "other"}, got)
	assert.EqualValues(t, 2, d.Stats().Coalesced)
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := blockWorker(t, d)
	defer func() {
		release()
		d.Close()
	}()

	noop := func() error { return nil }
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "", noop))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "send.text", "", noop), ErrQueueFull)
	assert.Equal(t, 1, d.Stats().Queued)
}

func TestDispatcherStopsAtDeadline(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "edit.text", "", func() error {
		calls.Add(1)
		return context.DeadlineExceeded
	}))
	d.Close()

	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, d.Stats().Failed)
}
