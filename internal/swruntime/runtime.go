package swruntime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"lodge-push-backend/internal/dispatch"
	"lodge-push-backend/internal/routing"
)

// State is the lifecycle phase of one worker version.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotActivated is returned when an event arrives before the runtime has
// taken over. The platform will not route events to a version that has not
// activated, so hitting this indicates a wiring bug.
var ErrNotActivated = errors.New("worker runtime is not activated")

const cacheNamePrefix = "lodge-cache-"

// Config holds the cache and routing configuration for one worker version.
type Config struct {
	// CacheVersion tags this version's cache bucket. Activating a new
	// version purges every bucket carrying a different tag.
	CacheVersion string
	// CacheManifest lists the URLs preloaded on install, all-or-nothing.
	CacheManifest []string
	// TaskViewPrefix and IconPrefix bound the interception scope. Requests
	// outside both prefixes pass through untouched.
	TaskViewPrefix string
	IconPrefix     string
	// TargetURL is where a notification click lands when no task-view
	// window is already open.
	TargetURL string
}

// Runtime is the background worker for the task view: it owns the versioned
// offline cache, answers in-scope fetches cache-first, and turns push
// messages into OS notifications.
//
// It runs event-driven: the hosting platform delivers install, activate,
// fetch, push and notification-click events and may tear the runtime down
// whenever no event work is in flight, so every handler holds the in-flight
// counter for the duration of its asynchronous work.
type Runtime struct {
	cfg     Config
	caches  CacheStorage
	net     Fetcher
	notify  Notifier
	clients Clients

	mu     sync.Mutex
	state  State
	bucket CacheBucket

	inflight sync.WaitGroup
}

// New creates a runtime in the new (uninstalled) state.
func New(cfg Config, caches CacheStorage, net Fetcher, notify Notifier, clients Clients) *Runtime {
	return &Runtime{
		cfg:     cfg,
		caches:  caches,
		net:     net,
		notify:  notify,
		clients: clients,
		state:   StateNew,
	}
}

// State reports the current lifecycle phase.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wait blocks until all in-flight event work has completed. Used on
// teardown so a cache write or notification display is never cut short.
func (r *Runtime) Wait() {
	r.inflight.Wait()
}

// CacheName returns the bucket name for this version.
func (r *Runtime) CacheName() string {
	return cacheNamePrefix + r.cfg.CacheVersion
}

// Install opens the versioned cache bucket and preloads the manifest.
// Preloading is all-or-nothing: one failed manifest URL fails the install,
// leaving the runtime uninstalled. Better to fail fast than serve a
// partially-primed cache.
func (r *Runtime) Install(ctx context.Context) error {
	if err := r.transition(StateNew, StateInstalling); err != nil {
		return err
	}
	r.inflight.Add(1)
	defer r.inflight.Done()

	bucket, err := r.caches.Open(r.CacheName())
	if err != nil {
		r.setState(StateNew)
		return fmt.Errorf("failed to open cache bucket %s: %w", r.CacheName(), err)
	}

	for _, u := range r.cfg.CacheManifest {
		resp, err := r.net.Fetch(ctx, u)
		if err != nil {
			r.setState(StateNew)
			return fmt.Errorf("failed to preload %s: %w", u, err)
		}
		if resp.StatusCode != 200 || resp.Opaque {
			r.setState(StateNew)
			return fmt.Errorf("failed to preload %s: status %d", u, resp.StatusCode)
		}
		bucket.Put(u, resp)
	}

	r.mu.Lock()
	r.bucket = bucket
	r.state = StateInstalled
	r.mu.Unlock()
	log.Printf("Worker %s installed, %d URLs preloaded", r.cfg.CacheVersion, len(r.cfg.CacheManifest))
	return nil
}

// Activate deletes every cache bucket except this version's, then takes
// over event handling. Old cached assets must never outlive a deployed
// update, so the purge completes before any fetch is answered.
func (r *Runtime) Activate(ctx context.Context) error {
	if err := r.transition(StateInstalled, StateActivating); err != nil {
		return err
	}
	r.inflight.Add(1)
	defer r.inflight.Done()

	names, err := r.caches.Names()
	if err != nil {
		r.setState(StateInstalled)
		return fmt.Errorf("failed to enumerate cache buckets: %w", err)
	}
	for _, name := range names {
		if name == r.CacheName() {
			continue
		}
		if err := r.caches.Delete(name); err != nil {
			r.setState(StateInstalled)
			return fmt.Errorf("failed to purge stale cache bucket %s: %w", name, err)
		}
		log.Printf("Purged stale cache bucket %s", name)
	}

	r.setState(StateActivated)
	return nil
}

// HandleFetch applies the interception policy to one fetch event. Requests
// outside the task-view and icon prefixes go straight to the network and
// are never cached; in-scope requests are served cache-first, with
// successful same-origin responses copied into the current bucket on the
// way back. A network failure with no cache entry propagates as-is.
func (r *Runtime) HandleFetch(ctx context.Context, rawURL string) (*Response, error) {
	r.mu.Lock()
	state, bucket := r.state, r.bucket
	r.mu.Unlock()
	if state != StateActivated {
		return nil, ErrNotActivated
	}

	r.inflight.Add(1)
	defer r.inflight.Done()

	if !r.inScope(rawURL) {
		return r.net.Fetch(ctx, rawURL)
	}

	if resp, ok := bucket.Match(rawURL); ok {
		return resp, nil
	}

	resp, err := r.net.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 200 && !resp.Opaque {
		// Concurrent fetches for the same URL may both write; last write
		// wins and the copies are identical, so the race is benign.
		bucket.Put(rawURL, resp)
	}
	return resp, nil
}

// pushMessage is the wire form of a push payload. Fields mirror
// dispatch.Payload on the sending side.
type pushMessage struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
}

// HandlePush turns one push message into an OS notification. A missing or
// unparsable payload is ignored without surfacing an error; the handler
// returns only once display has finished.
func (r *Runtime) HandlePush(ctx context.Context, data []byte) error {
	if r.State() != StateActivated {
		return ErrNotActivated
	}
	r.inflight.Add(1)
	defer r.inflight.Done()

	if len(data) == 0 {
		return nil
	}
	var msg pushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Ignoring unparsable push payload: %v", err)
		return nil
	}
	if msg.Title == "" {
		msg.Title = dispatch.DefaultTitle
	}
	if msg.Body == "" {
		msg.Body = dispatch.DefaultBody
	}

	opts := routing.Options(msg.Urgent)
	return r.notify.ShowNotification(ctx, msg.Title, msg.Body, opts)
}

// HandleNotificationClick dismisses the notification first, unconditionally,
// then brings an already-open task-view window to the front or opens a new
// one at the default target. A focus or open failure never resurrects the
// dismissed notification.
func (r *Runtime) HandleNotificationClick(ctx context.Context, n Notification) error {
	if r.State() != StateActivated {
		return ErrNotActivated
	}
	r.inflight.Add(1)
	defer r.inflight.Done()

	n.Close()

	windows, err := r.clients.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}
	for _, w := range windows {
		if r.matchesTaskView(w.URL()) {
			return w.Focus(ctx)
		}
	}
	return r.clients.OpenWindow(ctx, r.cfg.TargetURL)
}

// inScope reports whether the worker may intercept a URL. The worker must
// not become a general proxy for the whole origin.
func (r *Runtime) inScope(rawURL string) bool {
	p := urlPath(rawURL)
	return strings.HasPrefix(p, r.cfg.TaskViewPrefix) || strings.HasPrefix(p, r.cfg.IconPrefix)
}

func (r *Runtime) matchesTaskView(rawURL string) bool {
	return strings.HasPrefix(urlPath(rawURL), r.cfg.TaskViewPrefix)
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func (r *Runtime) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runtime) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("invalid transition to %s: runtime is %s, want %s", to, r.state, from)
	}
	r.state = to
	return nil
}
