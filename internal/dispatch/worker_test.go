package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Dispatch(t *testing.T) {
	d := NewDispatcherWithSender(newTestStore(t), &webpush.Options{}, "/tasks/", newMockSender())
	wp := NewWorkerPool(1, d)

	ev := TaskEvent{UserID: "alice", Title: "Restock minibar", Urgent: false}
	wp.Dispatch(ev)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, ev, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_ProcessesJob(t *testing.T) {
	s := newTestStore(t)
	addSubscription(t, s, "alice", "https://push.example.com/ep-1")

	sender := newMockSender()
	d := NewDispatcherWithSender(s, &webpush.Options{}, "/tasks/", sender)
	wp := NewWorkerPool(2, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(TaskEvent{UserID: "alice", Title: "Fix shower in 7", Urgent: true})

	require.Eventually(t, func() bool {
		return sender.attempts() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
