package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lodge-push-backend/config"
	"lodge-push-backend/internal/dispatch"
	"lodge-push-backend/internal/model"
	"lodge-push-backend/internal/store"
)

// stubSender answers every delivery with 201 and counts attempts.
type stubSender struct {
	mu       sync.Mutex
	attempts int
}

func (s *stubSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, store.Store, *stubSender) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))

	s := store.NewGormStore(db)
	options := &webpush.Options{VAPIDPublicKey: "test-public-key"}
	sender := &stubSender{}
	d := dispatch.NewDispatcherWithSender(s, options, "/tasks/", sender)

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	}
	return NewRouter(s, options, d, cfg), s, sender
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/push/vapid-key", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"publicKey":"test-public-key"}`, w.Body.String())
}

func TestGetVAPIDPublicKey_NotConfigured(t *testing.T) {
	r := gin.Default()
	handler := NewHandler(nil, nil, nil)
	r.GET("/push/vapid-key", handler.GetVAPIDPublicKey)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/push/vapid-key", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscribe(t *testing.T) {
	router, s, _ := setupRouter(t)

	body := `{
		"subscription": {
			"endpoint": "https://push.example.com/ep-1",
			"keys": {"p256dh": "key", "auth": "secret"}
		},
		"userId": "alice"
	}`
	w := doJSON(router, "POST", "/push/subscribe", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	subs, err := s.ListByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example.com/ep-1", subs[0].Endpoint)
}

func TestSubscribe_MissingFields(t *testing.T) {
	router, _, _ := setupRouter(t)

	for name, body := range map[string]string{
		"empty body":      `{}`,
		"no userId":       `{"subscription":{"endpoint":"https://push.example.com/ep"}}`,
		"no subscription": `{"userId":"alice"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(router, "POST", "/push/subscribe", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSend(t *testing.T) {
	router, _, sender := setupRouter(t)

	subscribe := `{
		"subscription": {
			"endpoint": "https://push.example.com/ep-1",
			"keys": {"p256dh": "key", "auth": "secret"}
		},
		"userId": "alice"
	}`
	require.Equal(t, http.StatusOK, doJSON(router, "POST", "/push/subscribe", subscribe).Code)

	w := doJSON(router, "POST", "/push/send", `{"userId":"alice","title":"Room 12 ready","urgent":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"count":1}`, w.Body.String())
	assert.Equal(t, 1, sender.attempts)
}

func TestSend_NoSubscriptions(t *testing.T) {
	router, _, sender := setupRouter(t)

	w := doJSON(router, "POST", "/push/send", `{"userId":"ghost-user","title":"T"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"no subscriptions"}`, w.Body.String())
	assert.Equal(t, 0, sender.attempts)
}

func TestSend_MissingFields(t *testing.T) {
	router, _, _ := setupRouter(t)

	for name, body := range map[string]string{
		"no userId": `{"title":"T"}`,
		"no title":  `{"userId":"alice"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(router, "POST", "/push/send", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
