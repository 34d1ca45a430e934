package service

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"

	"github.com/neighborhq/neighbor/cockroach"
	"github.com/neighborhq/neighbor/cockroach/migrator"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/ptr"
	"github.com/neighborhq/neighbor/types"
)

var (
	testDB        *pgxpool.Pool
	testCockroach *cockroach.Cockroach
)

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	var skipIntegration bool
	flag.BoolVar(&skipIntegration, "skip-integration", false, "Skip integration tests docker setup")
	flag.Parse()

	if skipIntegration || testing.Short() {
		return m.Run()
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Printf("could not create docker pool: %v\n", err)
		return 1
	}

	var cleanup func() error
	testDB, cleanup, err = setupTestDB(pool)
	if err != nil {
		fmt.Printf("could not setup test db: %v\n", err)
		return 1
	}
	testCockroach = cockroach.New(testDB)

	if err := migrator.Migrate(context.Background(), testDB, cockroach.MigrationsFS); err != nil {
		fmt.Printf("could not migrate schema: %v\n", err)
		return 1
	}

	defer func() {
		if err := cleanup(); err != nil {
			fmt.Printf("could not cleanup cockroach container: %v\n", err)
		}
	}()

	return m.Run()
}

func setupTestDB(pool *dockertest.Pool) (*pgxpool.Pool, func() error, error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "cockroachdb/cockroach",
		Tag:        "latest",
		Cmd:        []string{"start-single-node", "--insecure"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create cockroach resource: %w", err)
	}

	var db *pgxpool.Pool
	err = pool.Retry(func() (err error) {
		hostPort := resource.GetHostPort("26257/tcp")
		db, err = pgxpool.New(context.Background(), "postgresql://root@"+hostPort+"/neighbor?sslmode=disable")
		if err != nil {
			return fmt.Errorf("could not open db: %w", err)
		}

		// do not close db

		if err = db.Ping(context.Background()); err != nil {
			return fmt.Errorf("could not ping db: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return db, func() error {
		return pool.Purge(resource)
	}, nil
}

func skipIfNoDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("integration test db not available")
	}
}

func newIntegrationService(t *testing.T) (*Service, *fakeBroker) {
	t.Helper()

	broker := newFakeBroker()
	svc := New(&Config{
		Store:  testCockroach,
		Broker: broker,
		Logger: slog.New(slog.DiscardHandler),
	})
	t.Cleanup(func() {
		_ = svc.Close()
	})
	return svc, broker
}

func newIntegrationUser(t *testing.T, svc *Service, name string) types.User {
	t.Helper()

	user := types.User{ID: id.Generate(), Name: name}
	require.NoError(t, svc.EnsureUser(context.Background(), user))
	return user
}

func asIntegrationUser(user types.User) context.Context {
	return asUser(user.ID, user.Name)
}

func TestIntegration_DirectConversationIdempotent(t *testing.T) {
	skipIfNoDB(t)

	svc, _ := newIntegrationService(t)
	alice := newIntegrationUser(t, svc, "alice")
	bob := newIntegrationUser(t, svc, "bob")

	first, err := svc.DirectConversation(asIntegrationUser(alice), types.RetrieveDirectConversation{OtherUserID: bob.ID})
	require.NoError(t, err)
	require.Equal(t, types.ConversationTypeDirect, first.Type)

	// Repeat from either side lands on the same conversation.
	again, err := svc.DirectConversation(asIntegrationUser(alice), types.RetrieveDirectConversation{OtherUserID: bob.ID})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	fromBob, err := svc.DirectConversation(asIntegrationUser(bob), types.RetrieveDirectConversation{OtherUserID: alice.ID})
	require.NoError(t, err)
	require.Equal(t, first.ID, fromBob.ID)
}

func TestIntegration_UnreadAndReceipts(t *testing.T) {
	skipIfNoDB(t)

	svc, _ := newIntegrationService(t)
	alice := newIntegrationUser(t, svc, "alice")
	bob := newIntegrationUser(t, svc, "bob")

	conv, err := svc.DirectConversation(asIntegrationUser(alice), types.RetrieveDirectConversation{OtherUserID: bob.ID})
	require.NoError(t, err)

	for _, content := range []string{"hello", "anyone there?"} {
		_, err = svc.CreateMessage(asIntegrationUser(alice), types.CreateMessage{
			ConversationID: conv.ID,
			Content:        content,
		})
		require.NoError(t, err)
	}

	// Bob sees two unread; alice, none: her own sends never count.
	bobConvs, err := svc.Conversations(asIntegrationUser(bob), types.ListConversations{})
	require.NoError(t, err)
	require.Len(t, bobConvs.Items, 1)
	require.NotNil(t, bobConvs.Items[0].Participation)
	require.EqualValues(t, 2, bobConvs.Items[0].Participation.UnreadCount)

	aliceConvs, err := svc.Conversations(asIntegrationUser(alice), types.ListConversations{})
	require.NoError(t, err)
	require.EqualValues(t, 0, aliceConvs.Items[0].Participation.UnreadCount)

	// Listing is the read sweep.
	msgs, err := svc.Messages(asIntegrationUser(bob), types.ListMessages{ConversationID: conv.ID})
	require.NoError(t, err)
	require.Len(t, msgs.Items, 2)
	require.Equal(t, "hello", msgs.Items[0].Content, "messages come out oldest first")

	bobConvs, err = svc.Conversations(asIntegrationUser(bob), types.ListConversations{})
	require.NoError(t, err)
	require.EqualValues(t, 0, bobConvs.Items[0].Participation.UnreadCount)

	// Reading twice is a no-op, not an error.
	_, err = svc.Messages(asIntegrationUser(bob), types.ListMessages{ConversationID: conv.ID})
	require.NoError(t, err)
}

func TestIntegration_ConversationsPaginateAroundPinned(t *testing.T) {
	skipIfNoDB(t)

	svc, _ := newIntegrationService(t)
	alice := newIntegrationUser(t, svc, "alice")

	var convIDs []string
	for _, name := range []string{"bob", "carol", "dave", "erin"} {
		other := newIntegrationUser(t, svc, name)
		conv, err := svc.DirectConversation(asIntegrationUser(alice), types.RetrieveDirectConversation{OtherUserID: other.ID})
		require.NoError(t, err)
		convIDs = append(convIDs, conv.ID)
	}

	// More pinned conversations than the page size.
	for _, conversationID := range convIDs[:2] {
		_, err := svc.UpdateMetadata(asIntegrationUser(alice), types.UpdateParticipantSettings{
			ConversationID: conversationID,
			Pinned:         ptr.From(true),
		})
		require.NoError(t, err)
	}

	page, err := svc.Conversations(asIntegrationUser(alice), types.ListConversations{
		PageArgs: types.PageArgs{First: ptr.From(uint(1))},
	})
	require.NoError(t, err)

	// Every pinned conversation rides along with the first page; the
	// cursor only walks the unpinned tail.
	require.Len(t, page.Items, 3)
	require.True(t, page.Items[0].Participation.Pinned)
	require.True(t, page.Items[1].Participation.Pinned)
	require.False(t, page.Items[2].Participation.Pinned)

	var seen []string
	for _, conv := range page.Items {
		seen = append(seen, conv.ID)
	}

	for page.PageInfo.HasNextPage {
		page, err = svc.Conversations(asIntegrationUser(alice), types.ListConversations{
			PageArgs: types.PageArgs{First: ptr.From(uint(1)), After: page.PageInfo.EndCursor},
		})
		require.NoError(t, err)
		for _, conv := range page.Items {
			seen = append(seen, conv.ID)
		}
	}

	require.ElementsMatch(t, convIDs, seen, "pagination must not drop or repeat conversations")
}

func TestIntegration_BlockStopsMessaging(t *testing.T) {
	skipIfNoDB(t)

	svc, _ := newIntegrationService(t)
	alice := newIntegrationUser(t, svc, "alice")
	bob := newIntegrationUser(t, svc, "bob")

	conv, err := svc.DirectConversation(asIntegrationUser(alice), types.RetrieveDirectConversation{OtherUserID: bob.ID})
	require.NoError(t, err)

	_, err = svc.CreateMessage(asIntegrationUser(alice), types.CreateMessage{ConversationID: conv.ID, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.BlockUser(asIntegrationUser(bob), types.BlockUser{TargetUserID: alice.ID}))

	// The block cuts both directions of sending.
	_, err = svc.CreateMessage(asIntegrationUser(alice), types.CreateMessage{ConversationID: conv.ID, Content: "hello?"})
	require.True(t, errs.IsBlocked(err))

	_, err = svc.CreateMessage(asIntegrationUser(bob), types.CreateMessage{ConversationID: conv.ID, Content: "go away"})
	require.True(t, errs.IsBlocked(err))

	// History stays readable.
	msgs, err := svc.Messages(asIntegrationUser(bob), types.ListMessages{ConversationID: conv.ID})
	require.NoError(t, err)
	require.Len(t, msgs.Items, 1)

	// Unblocking restores messaging.
	require.NoError(t, svc.UnblockUser(asIntegrationUser(bob), types.UnblockUser{TargetUserID: alice.ID}))

	_, err = svc.CreateMessage(asIntegrationUser(alice), types.CreateMessage{ConversationID: conv.ID, Content: "we good?"})
	require.NoError(t, err)
}

func TestIntegration_GroupLifecycle(t *testing.T) {
	skipIfNoDB(t)

	svc, _ := newIntegrationService(t)
	alice := newIntegrationUser(t, svc, "alice")
	bob := newIntegrationUser(t, svc, "bob")
	carol := newIntegrationUser(t, svc, "carol")

	group, err := svc.CreateGroupConversation(asIntegrationUser(alice), types.CreateGroupConversation{
		Name:      "book club",
		MemberIDs: []string{bob.ID},
	})
	require.NoError(t, err)
	require.Equal(t, types.ConversationTypeGroup, group.Type)

	// Group creation leaves a system message behind.
	msgs, err := svc.Messages(asIntegrationUser(bob), types.ListMessages{ConversationID: group.ID})
	require.NoError(t, err)
	require.Len(t, msgs.Items, 1)
	require.Equal(t, types.MessageTypeSystem, msgs.Items[0].Type)

	// Outsiders cannot read or post until added.
	_, err = svc.Messages(asIntegrationUser(carol), types.ListMessages{ConversationID: group.ID})
	require.Error(t, err)

	require.NoError(t, svc.AddParticipant(asIntegrationUser(alice), types.AddParticipant{
		ConversationID: group.ID,
		NewMemberID:    carol.ID,
	}))

	// Re-adding an existing member is a no-op and must not announce a
	// second join.
	require.NoError(t, svc.AddParticipant(asIntegrationUser(alice), types.AddParticipant{
		ConversationID: group.ID,
		NewMemberID:    carol.ID,
	}))

	msgs, err = svc.Messages(asIntegrationUser(alice), types.ListMessages{ConversationID: group.ID})
	require.NoError(t, err)
	require.Len(t, msgs.Items, 2, "creation and a single join announcement")

	_, err = svc.CreateMessage(asIntegrationUser(carol), types.CreateMessage{ConversationID: group.ID, Content: "hi all"})
	require.NoError(t, err)

	// Per-user settings stay per-user.
	_, err = svc.UpdateMetadata(asIntegrationUser(alice), types.UpdateParticipantSettings{
		ConversationID: group.ID,
		Pinned:         ptr.From(true),
	})
	require.NoError(t, err)

	bobConvs, err := svc.Conversations(asIntegrationUser(bob), types.ListConversations{})
	require.NoError(t, err)
	for _, c := range bobConvs.Items {
		if c.ID == group.ID {
			require.False(t, c.Participation.Pinned, "one participant's pin must not leak to another")
		}
	}

	// Leaving removes the member; the last one out purges the whole
	// conversation.
	require.NoError(t, svc.DeleteConversation(asIntegrationUser(carol), types.DeleteConversation{ConversationID: group.ID}))
	require.NoError(t, svc.DeleteConversation(asIntegrationUser(bob), types.DeleteConversation{ConversationID: group.ID}))
	require.NoError(t, svc.DeleteConversation(asIntegrationUser(alice), types.DeleteConversation{ConversationID: group.ID}))

	_, err = svc.Conversation(asIntegrationUser(alice), types.RetrieveConversation{ConversationID: group.ID})
	require.True(t, errs.IsNotFound(err))
}
