package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"lodge-push-backend/internal/dispatch"
	"lodge-push-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	dispatcher *dispatch.Dispatcher
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, d *dispatch.Dispatcher) *Handler {
	return &Handler{
		store:      s,
		webpush:    webpushOptions,
		dispatcher: d,
	}
}
