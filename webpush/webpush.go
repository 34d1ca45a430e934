// Package webpush is the desktop-notification sink boundary. Delivery
// is best effort and never required for correctness.
package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/neighborhq/neighbor/types"
)

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
}

type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether VAPID keys were configured. Without them the
// sink is a no-op and only in-app notifications are created.
func (s *Sender) Enabled() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// Payload is what the service worker displays: sender name as title,
// truncated content as body, and a deep link to the conversation.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	Link  string `json:"link"`
}

// Send pushes the payload to one subscription. A 404/410 response
// means the subscription is gone and the caller should drop it.
func (s *Sender) Send(ctx context.Context, sub types.PushSubscription, payload Payload) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrSubscriptionGone
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("web push rejected: %s", resp.Status)
	}

	return nil
}

var ErrSubscriptionGone = fmt.Errorf("push subscription gone")
