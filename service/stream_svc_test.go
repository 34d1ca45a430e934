package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
)

func TestService_ConversationStream_DeliversAndClosesOnCancel(t *testing.T) {
	store := &fakeStore{
		ConversationFunc: func(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
			return types.Conversation{ID: in.ConversationID, Type: types.ConversationTypeGroup}, nil
		},
	}
	broker := newFakeBroker()
	svc := newTestService(store, broker)

	ctx, cancel := context.WithCancel(asUser(aliceID, "alice"))
	defer cancel()

	evs, err := svc.ConversationStream(ctx, convID)
	require.NoError(t, err)

	go broker.publish("conversation", convID, types.ChangeEvent{
		Event: types.EventInsert,
		Table: types.TableMessages,
	})

	select {
	case ev := <-evs:
		require.Equal(t, types.TableMessages, ev.Table)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()

	select {
	case _, open := <-evs:
		require.False(t, open, "stream channel must close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream teardown")
	}
}

func TestService_ConversationStream_NonParticipant(t *testing.T) {
	store := &fakeStore{
		ConversationFunc: func(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
			return types.Conversation{}, errs.NewNotFoundError("conversation not found")
		},
	}
	svc := newTestService(store, newFakeBroker())

	_, err := svc.ConversationStream(asUser(aliceID, "alice"), convID)
	require.True(t, errs.IsNotFound(err))
}

func TestService_UserStream_Unauthenticated(t *testing.T) {
	svc := newTestService(&fakeStore{}, newFakeBroker())

	_, err := svc.UserStream(context.Background())
	require.ErrorIs(t, err, errs.Unauthenticated)
}
