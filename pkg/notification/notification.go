// Package notification fans a notice out over several channels: email, an
// HTTP webhook and the live partner feed.
//
//	type OrderPlaced struct{ ... }
//
//	func (n OrderPlaced) Via() []string { return []string{notification.Mail, notification.Feed} }
//	func (n OrderPlaced) ToMail() *mail.Message { ... }
//	func (n OrderPlaced) ToFeed() []notification.FeedData { ... }
//
//	errs := notification.Send(ctx, OrderPlaced{...})
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/http"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
)

// Channel names.
const (
	Mail    = "mail"
	Webhook = "webhook"
	Feed    = "feed"
)

// Notification lists the channels it should go out on and implements the
// matching To* method for each.
type Notification interface {
	Via() []string
}

type Mailable interface {
	ToMail() *mail.Message
}

// WebhookData is POSTed as JSON to URL.
type WebhookData struct {
	URL     string
	Payload any
	Headers map[string]string
}

type Webhookable interface {
	ToWebhook() WebhookData
}

// FeedData is one live message for the subscribers of Key.
type FeedData struct {
	Key     uint
	Event   string
	Payload any
}

type Feedable interface {
	ToFeed() []FeedData
}

// Publisher delivers feed messages; *ws.Hub satisfies it.
type Publisher interface {
	Publish(key uint, data []byte) bool
}

var (
	mu   sync.RWMutex
	feed Publisher
)

// SetFeed installs the publisher used by the feed channel. With none
// installed feed notices are discarded.
func SetFeed(p Publisher) {
	mu.Lock()
	feed = p
	mu.Unlock()
}

// Send delivers n on every channel it names and returns one error per failed
// channel. Failures are also logged.
func Send(ctx context.Context, n Notification) []error {
	var errs []error
	for _, ch := range n.Via() {
		if err := dispatch(ctx, ch, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed", "channel", ch, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func dispatch(ctx context.Context, ch string, n Notification) error {
	switch ch {
	case Mail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T is not Mailable", n)
		}
		return mail.Send(ctx, m.ToMail())

	case Webhook:
		w, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T is not Webhookable", n)
		}
		return sendWebhook(ctx, w.ToWebhook())

	case Feed:
		f, ok := n.(Feedable)
		if !ok {
			return fmt.Errorf("notification: %T is not Feedable", n)
		}
		return publish(f.ToFeed())

	default:
		return fmt.Errorf("notification: unknown channel %q", ch)
	}
}

func sendWebhook(ctx context.Context, d WebhookData) error {
	if d.URL == "" {
		return nil
	}
	req := http.Post(d.URL).
		WithContext(ctx).
		Timeout(10*time.Second).
		Retry(2, time.Second).
		Header("Content-Type", "application/json").
		Body(d.Payload)
	for k, v := range d.Headers {
		req.Header(k, v)
	}
	resp, err := req.Send()
	if err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	return resp.Throw()
}

func publish(items []FeedData) error {
	mu.RLock()
	p := feed
	mu.RUnlock()
	if p == nil {
		return nil
	}
	for _, it := range items {
		data, err := json.Marshal(map[string]any{"event": it.Event, "data": it.Payload})
		if err != nil {
			return fmt.Errorf("notification: feed marshal: %w", err)
		}
		p.Publish(it.Key, data)
	}
	return nil
}
