// Package service is the messaging orchestrator. It owns its
// persistence and propagation handles explicitly; consumers get a
// constructed *Service, never a package-level singleton.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/presence"
	"github.com/neighborhq/neighbor/pubsub"
	"github.com/neighborhq/neighbor/types"
	"github.com/neighborhq/neighbor/webpush"
)

// Store is the persistence-layer contract. Implemented by
// cockroach.Cockroach.
type Store interface {
	UpsertUser(ctx context.Context, in types.User) error
	User(ctx context.Context, userID string) (types.User, error)

	Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error)
	Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error)
	DirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error)
	CreateDirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error)
	CreateGroupConversation(ctx context.Context, in types.CreateGroupConversation) (types.Conversation, error)
	AddParticipant(ctx context.Context, in types.AddParticipant) error
	LeaveConversation(ctx context.Context, in types.DeleteConversation) (bool, error)
	Participants(ctx context.Context, conversationID string) ([]types.Participant, error)
	UpdateParticipantSettings(ctx context.Context, in types.UpdateParticipantSettings) (types.Participant, error)

	CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error)
	Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error)

	CreateBlock(ctx context.Context, in types.BlockUser) error
	DeleteBlock(ctx context.Context, in types.UnblockUser) error
	BlockedEither(ctx context.Context, userID, otherUserID string) (bool, error)

	CreateNotification(ctx context.Context, in types.CreateNotification) (types.Notification, error)
	Notifications(ctx context.Context, in types.ListNotifications) (types.Page[types.Notification], error)
	ReadNotification(ctx context.Context, in types.ReadNotification) error
	ReadAllNotifications(ctx context.Context, userID string) error

	SavePushSubscription(ctx context.Context, in types.SavePushSubscription) error
	PushSubscriptions(ctx context.Context, userID string) ([]types.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, userID, endpoint string) error
}

// Broker is the propagation-channel contract. Implemented by
// pubsub.Broker.
type Broker interface {
	PublishConversation(conversationID string, ev types.ChangeEvent) error
	PublishUser(userID string, ev types.ChangeEvent) error
	SubscribeConversation(conversationID string, fn func(types.ChangeEvent)) (pubsub.Subscription, error)
	SubscribeUser(userID string, fn func(types.ChangeEvent)) (pubsub.Subscription, error)
}

// BlobStore is the attachment-store contract. Implemented by
// minio.Minio.
type BlobStore interface {
	UploadMany(ctx context.Context, files []*types.UploadAttachment) ([]types.Attachment, func(), error)
}

// PushSink is the desktop-notification contract. Implemented by
// webpush.Sender.
type PushSink interface {
	Enabled() bool
	Send(ctx context.Context, sub types.PushSubscription, payload webpush.Payload) error
}

type Config struct {
	Store    Store
	Broker   Broker
	Blobs    BlobStore
	Push     PushSink
	Presence *presence.Tracker
	Logger   *slog.Logger

	// AppBaseURL prefixes conversation deep links in push payloads.
	AppBaseURL        string
	BaseCtx           context.Context
	BackgroundTimeout time.Duration
}

type Service struct {
	Store    Store
	Broker   Broker
	Blobs    BlobStore
	Push     PushSink
	Presence *presence.Tracker
	Logger   *slog.Logger

	appBaseURL        string
	baseCtx           context.Context
	backgroundTimeout time.Duration
	wg                sync.WaitGroup
	errs              chan error
}

func New(cfg *Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BaseCtx == nil {
		cfg.BaseCtx = context.Background()
	}
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = 15 * time.Second
	}
	return &Service{
		Store:    cfg.Store,
		Broker:   cfg.Broker,
		Blobs:    cfg.Blobs,
		Push:     cfg.Push,
		Presence: cfg.Presence,
		Logger:   cfg.Logger,

		appBaseURL:        cfg.AppBaseURL,
		baseCtx:           cfg.BaseCtx,
		backgroundTimeout: cfg.BackgroundTimeout,
		errs:              make(chan error, 1),
	}
}

func (svc *Service) Errs() <-chan error {
	return svc.errs
}

func (svc *Service) Close() error {
	svc.wg.Wait()
	close(svc.errs)
	return nil
}

func (svc *Service) background(fn func(ctx context.Context) error) {
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		defer func() {
			if rcv := recover(); rcv != nil {
				select {
				case svc.errs <- fmt.Errorf("service background panic: %v", rcv):
				default:
				}
			}
		}()

		ctx, cancel := context.WithTimeout(svc.baseCtx, svc.backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			select {
			case svc.errs <- fmt.Errorf("service background error: %w", err):
			default:
			}
		}
	}()
}

// withRetry retries fn exactly once on a transient store failure.
// Terminal kinds surface verbatim.
func (svc *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !isTransient(err) {
		return err
	}

	svc.Logger.Warn("retrying transient store failure", "error", err)
	return fn(ctx)
}

func isTransient(err error) bool {
	if errs.IsUnavailable(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
