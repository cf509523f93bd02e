// Package client implements the in-page subscription controller: it
// registers the worker script, obtains a push subscription from the
// platform, and hands it to the server.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"lodge-push-backend/internal/auth"
	"lodge-push-backend/internal/store"
)

// Registrar registers the worker script with the platform.
type Registrar interface {
	Register(ctx context.Context, scriptURL, scope string) error
}

// PushService is the platform's push interface: it reports an existing
// subscription, if any, and creates new ones for user-visible delivery.
type PushService interface {
	Existing(ctx context.Context) (*store.Subscription, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (*store.Subscription, error)
}

// Manager drives the subscribe flow for one logged-in page. All failures
// degrade silently: the page logs and stays in the "not subscribed" state
// so the user can retry, and the hosting page never crashes.
type Manager struct {
	client   *http.Client
	baseURL  string
	worker   Registrar
	push     PushService
	userID   string
	role     auth.Role
	scope    string
	register sync.Once
}

// New creates a manager for the given user. baseURL is the dashboard
// server; scope is the task-view path the worker is registered under.
func New(baseURL, scope, userID string, role auth.Role, worker Registrar, push PushService) *Manager {
	return &Manager{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		worker:  worker,
		push:    push,
		userID:  userID,
		role:    role,
		scope:   scope,
	}
}

// CanSubscribe reports whether the subscribe affordance is shown at all.
func (m *Manager) CanSubscribe() bool {
	return auth.CanReceiveTaskPush(m.role)
}

// EnsureWorker registers the worker script exactly once, scoped to the
// task view only.
func (m *Manager) EnsureWorker(ctx context.Context) {
	m.register.Do(func() {
		if err := m.worker.Register(ctx, m.scope+"sw.js", m.scope); err != nil {
			log.Printf("Service worker registration failed: %v", err)
		}
	})
}

// IsSubscribed reports whether the platform already holds a subscription.
// Re-invoking Subscribe when this is true is a no-op.
func (m *Manager) IsSubscribed(ctx context.Context) bool {
	sub, err := m.push.Existing(ctx)
	if err != nil {
		log.Printf("Failed to query existing subscription: %v", err)
		return false
	}
	return sub != nil
}

// Subscribe runs the full flow: fetch the server key, subscribe through the
// platform, and register the result with the server. It returns whether the
// page ended up subscribed; errors are logged, never surfaced to the UI.
func (m *Manager) Subscribe(ctx context.Context) bool {
	if !m.CanSubscribe() {
		return false
	}
	if m.IsSubscribed(ctx) {
		return true
	}

	key, err := m.fetchVAPIDKey(ctx)
	if err != nil {
		log.Printf("Failed to fetch VAPID key: %v", err)
		return false
	}

	sub, err := m.push.Subscribe(ctx, key)
	if err != nil {
		log.Printf("Platform subscribe failed: %v", err)
		return false
	}

	if err := m.postSubscription(ctx, sub); err != nil {
		log.Printf("Failed to register subscription: %v", err)
		return false
	}
	return true
}

// DecodeVAPIDKey converts a URL-safe base64 VAPID public key to the raw
// bytes the platform expects as the application server key.
func DecodeVAPIDKey(key string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
}

func (m *Manager) fetchVAPIDKey(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/push/vapid-key", nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vapid key request returned %d", resp.StatusCode)
	}

	var body struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return DecodeVAPIDKey(body.PublicKey)
}

func (m *Manager) postSubscription(ctx context.Context, sub *store.Subscription) error {
	payload, err := json.Marshal(map[string]any{
		"subscription": sub,
		"userId":       m.userID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/push/subscribe", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subscribe endpoint returned %d", resp.StatusCode)
	}
	return nil
}
