package service

import (
	"context"
	"sync"

	"github.com/neighborhq/neighbor/pubsub"
	"github.com/neighborhq/neighbor/types"
)

// fakeStore implements Store with overridable function fields. Calling
// a method whose field is unset panics, which makes unexpected store
// access fail loudly in tests.
type fakeStore struct {
	mu sync.Mutex

	UpsertUserFunc               func(ctx context.Context, in types.User) error
	UserFunc                     func(ctx context.Context, userID string) (types.User, error)
	ConversationsFunc            func(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error)
	ConversationFunc             func(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error)
	DirectConversationFunc       func(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error)
	CreateDirectConversationFunc func(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error)
	CreateGroupConversationFunc  func(ctx context.Context, in types.CreateGroupConversation) (types.Conversation, error)
	AddParticipantFunc           func(ctx context.Context, in types.AddParticipant) error
	LeaveConversationFunc        func(ctx context.Context, in types.DeleteConversation) (bool, error)
	ParticipantsFunc             func(ctx context.Context, conversationID string) ([]types.Participant, error)
	UpdateParticipantSettingsFn  func(ctx context.Context, in types.UpdateParticipantSettings) (types.Participant, error)
	CreateMessageFunc            func(ctx context.Context, in types.CreateMessage) (types.Message, error)
	MessagesFunc                 func(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error)
	CreateBlockFunc              func(ctx context.Context, in types.BlockUser) error
	DeleteBlockFunc              func(ctx context.Context, in types.UnblockUser) error
	BlockedEitherFunc            func(ctx context.Context, userID, otherUserID string) (bool, error)
	CreateNotificationFunc       func(ctx context.Context, in types.CreateNotification) (types.Notification, error)
	NotificationsFunc            func(ctx context.Context, in types.ListNotifications) (types.Page[types.Notification], error)
	ReadNotificationFunc         func(ctx context.Context, in types.ReadNotification) error
	ReadAllNotificationsFunc     func(ctx context.Context, userID string) error
	SavePushSubscriptionFunc     func(ctx context.Context, in types.SavePushSubscription) error
	PushSubscriptionsFunc        func(ctx context.Context, userID string) ([]types.PushSubscription, error)
	DeletePushSubscriptionFunc   func(ctx context.Context, userID, endpoint string) error

	createDirectCalls  []types.RetrieveDirectConversation
	notificationsMade  []types.CreateNotification
	deletedPushSubs    []string
}

func (s *fakeStore) UpsertUser(ctx context.Context, in types.User) error {
	return s.UpsertUserFunc(ctx, in)
}

func (s *fakeStore) User(ctx context.Context, userID string) (types.User, error) {
	return s.UserFunc(ctx, userID)
}

func (s *fakeStore) Conversations(ctx context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	return s.ConversationsFunc(ctx, in)
}

func (s *fakeStore) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	return s.ConversationFunc(ctx, in)
}

func (s *fakeStore) DirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error) {
	return s.DirectConversationFunc(ctx, in)
}

func (s *fakeStore) CreateDirectConversation(ctx context.Context, in types.RetrieveDirectConversation) (types.Conversation, error) {
	s.mu.Lock()
	s.createDirectCalls = append(s.createDirectCalls, in)
	s.mu.Unlock()
	return s.CreateDirectConversationFunc(ctx, in)
}

func (s *fakeStore) CreateGroupConversation(ctx context.Context, in types.CreateGroupConversation) (types.Conversation, error) {
	return s.CreateGroupConversationFunc(ctx, in)
}

func (s *fakeStore) AddParticipant(ctx context.Context, in types.AddParticipant) error {
	return s.AddParticipantFunc(ctx, in)
}

func (s *fakeStore) LeaveConversation(ctx context.Context, in types.DeleteConversation) (bool, error) {
	return s.LeaveConversationFunc(ctx, in)
}

func (s *fakeStore) Participants(ctx context.Context, conversationID string) ([]types.Participant, error) {
	return s.ParticipantsFunc(ctx, conversationID)
}

func (s *fakeStore) UpdateParticipantSettings(ctx context.Context, in types.UpdateParticipantSettings) (types.Participant, error) {
	return s.UpdateParticipantSettingsFn(ctx, in)
}

func (s *fakeStore) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	return s.CreateMessageFunc(ctx, in)
}

func (s *fakeStore) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	return s.MessagesFunc(ctx, in)
}

func (s *fakeStore) CreateBlock(ctx context.Context, in types.BlockUser) error {
	return s.CreateBlockFunc(ctx, in)
}

func (s *fakeStore) DeleteBlock(ctx context.Context, in types.UnblockUser) error {
	return s.DeleteBlockFunc(ctx, in)
}

func (s *fakeStore) BlockedEither(ctx context.Context, userID, otherUserID string) (bool, error) {
	return s.BlockedEitherFunc(ctx, userID, otherUserID)
}

func (s *fakeStore) CreateNotification(ctx context.Context, in types.CreateNotification) (types.Notification, error) {
	s.mu.Lock()
	s.notificationsMade = append(s.notificationsMade, in)
	s.mu.Unlock()
	if s.CreateNotificationFunc != nil {
		return s.CreateNotificationFunc(ctx, in)
	}
	return types.Notification{
		ID:             "notif",
		UserID:         in.UserID,
		Kind:           in.Kind,
		Title:          in.Title,
		Message:        in.Message,
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
	}, nil
}

func (s *fakeStore) Notifications(ctx context.Context, in types.ListNotifications) (types.Page[types.Notification], error) {
	return s.NotificationsFunc(ctx, in)
}

func (s *fakeStore) ReadNotification(ctx context.Context, in types.ReadNotification) error {
	return s.ReadNotificationFunc(ctx, in)
}

func (s *fakeStore) ReadAllNotifications(ctx context.Context, userID string) error {
	return s.ReadAllNotificationsFunc(ctx, userID)
}

func (s *fakeStore) SavePushSubscription(ctx context.Context, in types.SavePushSubscription) error {
	return s.SavePushSubscriptionFunc(ctx, in)
}

func (s *fakeStore) PushSubscriptions(ctx context.Context, userID string) ([]types.PushSubscription, error) {
	if s.PushSubscriptionsFunc != nil {
		return s.PushSubscriptionsFunc(ctx, userID)
	}
	return nil, nil
}

func (s *fakeStore) DeletePushSubscription(ctx context.Context, userID, endpoint string) error {
	s.mu.Lock()
	s.deletedPushSubs = append(s.deletedPushSubs, endpoint)
	s.mu.Unlock()
	if s.DeletePushSubscriptionFunc != nil {
		return s.DeletePushSubscriptionFunc(ctx, userID, endpoint)
	}
	return nil
}

func (s *fakeStore) createdNotifications() []types.CreateNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CreateNotification(nil), s.notificationsMade...)
}

func (s *fakeStore) deletedPushEndpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletedPushSubs...)
}

// fakeBroker records published events in order.
type fakeBroker struct {
	mu     sync.Mutex
	events []publishedEvent
	subs   map[string][]func(types.ChangeEvent)
}

type publishedEvent struct {
	Scope string // "conversation" or "user"
	ID    string
	Event types.ChangeEvent
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string][]func(types.ChangeEvent))}
}

func (b *fakeBroker) PublishConversation(conversationID string, ev types.ChangeEvent) error {
	return b.publish("conversation", conversationID, ev)
}

func (b *fakeBroker) PublishUser(userID string, ev types.ChangeEvent) error {
	return b.publish("user", userID, ev)
}

func (b *fakeBroker) publish(scope, id string, ev types.ChangeEvent) error {
	b.mu.Lock()
	b.events = append(b.events, publishedEvent{Scope: scope, ID: id, Event: ev})
	fns := append(([]func(types.ChangeEvent))(nil), b.subs[scope+":"+id]...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

func (b *fakeBroker) SubscribeConversation(conversationID string, fn func(types.ChangeEvent)) (pubsub.Subscription, error) {
	return b.subscribe("conversation:"+conversationID, fn)
}

func (b *fakeBroker) SubscribeUser(userID string, fn func(types.ChangeEvent)) (pubsub.Subscription, error) {
	return b.subscribe("user:"+userID, fn)
}

func (b *fakeBroker) subscribe(key string, fn func(types.ChangeEvent)) (pubsub.Subscription, error) {
	b.mu.Lock()
	b.subs[key] = append(b.subs[key], fn)
	b.mu.Unlock()
	return fakeSubscription{}, nil
}

func (b *fakeBroker) published() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.events...)
}

type fakeSubscription struct{}

func (fakeSubscription) Unsubscribe() error { return nil }
