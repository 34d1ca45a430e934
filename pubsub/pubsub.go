// Package pubsub is the real-time propagation channel. Row-level
// change events fan out over NATS, scoped by conversation or user.
// Delivery is at-least-once and unordered; subscribers treat events as
// hints to re-fetch, never as the source of truth for ordering.
package pubsub

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/neighborhq/neighbor/types"
	"github.com/vmihailenco/msgpack/v5"
)

type Broker struct {
	conn *nats.Conn
	errs chan error
}

func New(conn *nats.Conn) *Broker {
	return &Broker{
		conn: conn,
		errs: make(chan error, 1),
	}
}

// Errs reports decode failures from subscription callbacks. Buffered
// with drop-on-full, as these are diagnostics, not control flow.
func (b *Broker) Errs() <-chan error {
	return b.errs
}

func conversationSubject(conversationID string) string {
	return "neighbor.conversations." + conversationID
}

func userSubject(userID string) string {
	return "neighbor.users." + userID
}

func (b *Broker) PublishConversation(conversationID string, ev types.ChangeEvent) error {
	return b.publish(conversationSubject(conversationID), ev)
}

func (b *Broker) PublishUser(userID string, ev types.ChangeEvent) error {
	return b.publish(userSubject(userID), ev)
}

func (b *Broker) publish(subject string, ev types.ChangeEvent) error {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		return fmt.Errorf("msgpack marshal change event: %w", err)
	}

	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	eventsPublished.WithLabelValues(ev.Table, string(ev.Event)).Inc()

	return nil
}

// SubscribeConversation delivers change events scoped to one
// conversation. The returned handle must be released on teardown.
func (b *Broker) SubscribeConversation(conversationID string, fn func(types.ChangeEvent)) (Subscription, error) {
	return b.subscribe(conversationSubject(conversationID), fn)
}

// SubscribeUser delivers change events scoped to one user: their
// participant and notification rows, and presence transitions.
func (b *Broker) SubscribeUser(userID string, fn func(types.ChangeEvent)) (Subscription, error) {
	return b.subscribe(userSubject(userID), fn)
}

func (b *Broker) subscribe(subject string, fn func(types.ChangeEvent)) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev types.ChangeEvent
		if err := msgpack.Unmarshal(msg.Data, &ev); err != nil {
			select {
			case b.errs <- fmt.Errorf("msgpack unmarshal change event on %s: %w", subject, err):
			default:
			}
			return
		}

		eventsDelivered.WithLabelValues(ev.Table, string(ev.Event)).Inc()

		fn(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	return &subscription{sub: sub}, nil
}

// Subscription is a disposable handle for one subscription. Release it
// on every exit path; a dropped handle leaks the callback for the
// lifetime of the connection.
type Subscription interface {
	Unsubscribe() error
}

type subscription struct {
	sub *nats.Subscription
}

func (s *subscription) Unsubscribe() error {
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe: %w", err)
	}
	return nil
}
