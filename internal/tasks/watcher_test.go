package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge-push-backend/config"
	"lodge-push-backend/internal/dispatch"
)

// feedServer serves a mutable task feed.
type feedServer struct {
	mu    sync.Mutex
	items []FeedItem
	srv   *httptest.Server
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"items": fs.items})
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *feedServer) set(items ...FeedItem) {
	fs.mu.Lock()
	fs.items = items
	fs.mu.Unlock()
}

func newTestWatcher(t *testing.T, feedURL string) (*Watcher, *dispatch.WorkerPool) {
	t.Helper()
	cfg := &config.TasksConfig{
		Enabled:  true,
		Interval: time.Minute,
		FeedURL:  feedURL,
	}
	pool := dispatch.NewWorkerPool(8, nil) // never started; jobs inspected directly
	return NewWatcher(cfg, pool), pool
}

func TestWatcher_DispatchesNewAssignments(t *testing.T) {
	fs := newFeedServer(t)
	fs.set(FeedItem{ID: 1, AssigneeID: "maria", Title: "Room 2 turnover"})

	w, pool := newTestWatcher(t, fs.srv.URL)
	ctx := context.Background()

	// The priming poll records the backlog without notifying.
	require.NoError(t, w.poll(ctx, false))
	assert.Empty(t, pool.Jobs())

	fs.set(
		FeedItem{ID: 1, AssigneeID: "maria", Title: "Room 2 turnover"},
		FeedItem{ID: 2, AssigneeID: "joan", Title: "Broken lock", Note: "Cabin 5", Urgent: true},
	)
	require.NoError(t, w.poll(ctx, true))

	require.Len(t, pool.Jobs(), 1, "only the unseen task is dispatched")
	job := <-pool.Jobs()
	assert.Equal(t, dispatch.TaskEvent{UserID: "joan", Title: "Broken lock", Body: "Cabin 5", Urgent: true}, job)

	// Seen tasks are never replayed.
	require.NoError(t, w.poll(ctx, true))
	assert.Empty(t, pool.Jobs())
}

func TestWatcher_SkipsUnassignedTasks(t *testing.T) {
	fs := newFeedServer(t)
	w, pool := newTestWatcher(t, fs.srv.URL)
	ctx := context.Background()

	require.NoError(t, w.poll(ctx, false))
	fs.set(FeedItem{ID: 7, Title: "Unassigned chore"})
	require.NoError(t, w.poll(ctx, true))
	assert.Empty(t, pool.Jobs())
}

func TestWatcher_FeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	w, _ := newTestWatcher(t, srv.URL)
	assert.Error(t, w.poll(context.Background(), true))
}

func TestWatcher_DisabledRunReturns(t *testing.T) {
	cfg := &config.TasksConfig{Enabled: false, Interval: time.Minute}
	w := NewWatcher(cfg, dispatch.NewWorkerPool(1, nil))

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled watcher should return immediately")
	}
}
