package swruntime

import (
	"context"
	"net/http"

	"lodge-push-backend/internal/routing"
)

// Response is a snapshot of an HTTP response as stored by (or served from)
// a cache bucket. Opaque marks cross-origin responses that must never be
// cached.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Opaque     bool
}

// CacheBucket is one named, versioned store of cached responses.
type CacheBucket interface {
	Match(url string) (*Response, bool)
	Put(url string, resp *Response)
}

// CacheStorage enumerates, opens and deletes cache buckets. Opening a
// bucket that does not exist creates it.
type CacheStorage interface {
	Open(name string) (CacheBucket, error)
	Names() ([]string, error)
	Delete(name string) error
}

// Fetcher performs a network GET on behalf of the runtime.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Notifier displays an OS-level notification. ShowNotification returns only
// once display has finished.
type Notifier interface {
	ShowNotification(ctx context.Context, title, body string, opts routing.DisplayOptions) error
}

// Notification is a displayed notification that can be dismissed.
type Notification interface {
	Close()
}

// WindowClient is one open application window.
type WindowClient interface {
	URL() string
	Focus(ctx context.Context) error
}

// Clients enumerates open application windows, including windows not yet
// controlled by this worker version, and opens new ones.
type Clients interface {
	List(ctx context.Context) ([]WindowClient, error)
	OpenWindow(ctx context.Context, url string) error
}
