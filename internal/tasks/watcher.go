// Package tasks bridges the dashboard's task feed to push delivery: newly
// assigned tasks become queued notification jobs. Delivery outcomes never
// flow back to the feed, so task creation cannot fail or block on push.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"lodge-push-backend/config"
	"lodge-push-backend/internal/dispatch"
)

// FeedItem is one task assignment from the dashboard's feed.
type FeedItem struct {
	ID         int64  `json:"id"`
	AssigneeID string `json:"assigneeId"`
	Title      string `json:"title"`
	Note       string `json:"note"`
	Urgent     bool   `json:"urgent"`
}

// feedResponse models the top-level structure of the feed endpoint.
type feedResponse struct {
	Items []FeedItem `json:"items"`
}

// Watcher polls the task feed on an interval and enqueues a dispatch job
// for every assignment it has not seen before.
type Watcher struct {
	cfg    *config.TasksConfig
	client *http.Client
	pool   *dispatch.WorkerPool
	seen   map[int64]bool
}

// NewWatcher creates a watcher feeding the given worker pool.
func NewWatcher(cfg *config.TasksConfig, pool *dispatch.WorkerPool) *Watcher {
	return &Watcher{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		pool:   pool,
		seen:   make(map[int64]bool),
	}
}

// Run polls until the context is cancelled. The first poll only primes the
// seen set, so a restart does not replay pushes for the whole backlog.
func (w *Watcher) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		log.Println("Task watcher is disabled")
		return
	}
	log.Printf("Task watcher started, polling every %s", w.cfg.Interval)

	if err := w.poll(ctx, false); err != nil {
		log.Printf("Initial task feed poll failed: %v", err)
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.poll(ctx, true); err != nil {
				log.Printf("Task feed poll failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Task watcher shutting down")
			return
		}
	}
}

func (w *Watcher) poll(ctx context.Context, notify bool) error {
	items, err := w.fetchFeed(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		if w.seen[item.ID] {
			continue
		}
		w.seen[item.ID] = true
		if !notify || item.AssigneeID == "" {
			continue
		}
		w.pool.Dispatch(dispatch.TaskEvent{
			UserID: item.AssigneeID,
			Title:  item.Title,
			Body:   item.Note,
			Urgent: item.Urgent,
		})
	}
	return nil
}

func (w *Watcher) fetchFeed(ctx context.Context) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.FeedURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("task feed returned %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode task feed: %w", err)
	}
	return feed.Items, nil
}
