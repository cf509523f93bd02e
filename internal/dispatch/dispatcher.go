package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"lodge-push-backend/internal/model"
	"lodge-push-backend/internal/store"
)

// ErrInvalidRequest is returned when a dispatch call is missing a required
// field. It maps to a 4xx at the HTTP layer.
var ErrInvalidRequest = errors.New("invalid dispatch request")

// TransportError reports a push-service response that was neither a success
// nor a permanent rejection. The delivery for that endpoint is abandoned;
// sibling deliveries are unaffected.
type TransportError struct {
	Endpoint   string
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push transport returned %d for %s", e.StatusCode, e.Endpoint)
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// Dispatcher fans a notification payload out to every registered device of
// a user. Deliveries are independent and best-effort: one attempt per
// endpoint, no retry, and a failure for one device never blocks the rest.
type Dispatcher struct {
	store     store.Store
	webpush   *webpush.Options
	sender    Sender
	targetURL string
}

// NewDispatcher creates a dispatcher backed by the real web push transport.
func NewDispatcher(s store.Store, webpushOptions *webpush.Options, targetURL string) *Dispatcher {
	return NewDispatcherWithSender(s, webpushOptions, targetURL, &WebPushSender{})
}

// NewDispatcherWithSender creates a dispatcher with a custom transport.
func NewDispatcherWithSender(s store.Store, webpushOptions *webpush.Options, targetURL string, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:     s,
		webpush:   webpushOptions,
		sender:    sender,
		targetURL: targetURL,
	}
}

// SendToUser delivers one notification to every subscription of the target
// user. It returns the number of subscriptions attempted; the transport
// only confirms receipt by the push service, not by the client, so a
// per-device success count would be meaningless.
//
// A user with zero subscriptions is not an error: desk-only staff simply
// have no registered devices.
func (d *Dispatcher) SendToUser(ctx context.Context, userID, title, body string, urgent bool) (int, error) {
	if userID == "" || title == "" {
		return 0, fmt.Errorf("%w: user id and title are required", ErrInvalidRequest)
	}

	subs, err := d.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}

	payload, err := NewPayload(title, body, urgent, d.targetURL).Marshal()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub model.PushSubscription) {
			defer wg.Done()
			d.deliver(ctx, sub, payload)
		}(sub)
	}
	wg.Wait()

	return len(subs), nil
}

// deliver attempts one push to one endpoint. A permanently-gone endpoint is
// removed from the store so the next dispatch does not try it again.
func (d *Dispatcher) deliver(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := d.sender.Send(ctx, payload, wpSub, d.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := d.store.Remove(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		terr := &TransportError{Endpoint: sub.Endpoint, StatusCode: resp.StatusCode}
		log.Printf("Delivery abandoned: %v", terr)
	}
}
