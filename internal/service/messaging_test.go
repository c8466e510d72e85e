package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temitope-ola/ProdTalent-sub003/internal/contact"
	"github.com/temitope-ola/ProdTalent-sub003/internal/conversation"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/notify"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []model.Notification
}

func (s *recordingSender) Send(ctx context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

type testEnv struct {
	svc        *MessagingService
	store      *store.Store
	dispatcher *notify.Dispatcher
	sender     *recordingSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()

	st, err := store.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sender := &recordingSender{}
	resolver := contact.NewResolver(st, log)
	tracker := conversation.NewTracker(st, log)
	dispatcher := notify.NewDispatcher(resolver, sender, log)
	svc := NewMessagingService(st, resolver, tracker, dispatcher, log)

	return &testEnv{svc: svc, store: st, dispatcher: dispatcher, sender: sender}
}

func (e *testEnv) putContact(t *testing.T, p store.Partition, id, name, email string) {
	t.Helper()
	require.NoError(t, e.store.PutContact(context.Background(), p, model.Contact{
		ID:          id,
		DisplayName: name,
		Email:       email,
	}))
}

var (
	alice = Session{UserID: "alice", Email: "alice@example.com", Role: model.RoleRecruiter}
	bob   = Session{UserID: "bob", Email: "bob@example.com", Role: model.RoleTalent}
)

func Test_Send_Rejects_Invalid_Requests(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob", Body: "   "})
	req.True(errors.Is(err, ErrValidation))

	_, err = env.svc.Send(ctx, alice, &model.SendMessageRequest{Body: "hello"})
	req.True(errors.Is(err, ErrValidation))
}

func Test_Send_Rejects_Colon_In_Ids(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	// a ':' in the recipient id would alias another user's store index
	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob:shadow", Body: "not for bob"})
	req.True(errors.Is(err, ErrValidation))

	forged := Session{UserID: "alice:shadow", Email: "alice@example.com", Role: model.RoleRecruiter}
	_, err = env.svc.Send(ctx, forged, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.True(errors.Is(err, ErrValidation))

	convs, err := env.svc.Conversations(ctx, "bob")
	req.NoError(err)
	req.Empty(convs)
}

func Test_TwoWay_Thread(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	env.putContact(t, store.PartitionRecruiter, "alice", "Alice", "alice@example.com")
	env.putContact(t, store.PartitionTalent, "bob", "Bob", "bob@example.com")

	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.NoError(err)
	_, err = env.svc.Send(ctx, bob, &model.SendMessageRequest{RecipientID: "alice", Body: "hi back"})
	req.NoError(err)

	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Len(convs, 1)

	conv := convs[0]
	req.Equal("bob", conv.CounterpartyID)
	req.Equal("Bob", conv.Counterparty.DisplayName)
	req.Len(conv.Messages, 2)
	req.Equal("hello", conv.Messages[0].Body)
	req.Equal("hi back", conv.Messages[1].Body)
	req.Equal(1, conv.UnreadCount) // bob's reply is unread
	req.Equal("hi back", conv.LastMessage.Body)
}

func Test_Send_Succeeds_When_Notification_Sender_Fails(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.sender.err = fmt.Errorf("smtp relay down")
	env.putContact(t, store.PartitionTalent, "bob", "Bob", "bob@example.com")

	msg, err := env.svc.Send(context.Background(), alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	env.dispatcher.Wait()

	req.NoError(err)
	req.NotNil(msg)
	req.NotEmpty(msg.ID)
}

func Test_Send_Dispatches_Recipient_And_Confirmation(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.putContact(t, store.PartitionRecruiter, "alice", "Alice", "alice@example.com")
	env.putContact(t, store.PartitionTalent, "bob", "Bob", "bob@example.com")

	_, err := env.svc.Send(context.Background(), alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.NoError(err)
	env.dispatcher.Wait()

	env.sender.mu.Lock()
	defer env.sender.mu.Unlock()
	req.Len(env.sender.sent, 2)
}

func Test_Placeholder_For_Unknown_Recipient(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	// recipient exists in no identity partition
	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "ghost", Body: "anyone home?"})
	req.NoError(err)

	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Len(convs, 1)
	req.Equal("ghost", convs[0].CounterpartyID)
	req.Equal(model.PlaceholderDisplayName, convs[0].Counterparty.DisplayName)
}

func Test_Cache_Patch_Resolves_New_Counterparty(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	env.putContact(t, store.PartitionTalent, "bob", "Bob", "bob@example.com")

	// load first so the send below patches a live cached list
	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Empty(convs)

	_, err = env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.NoError(err)

	// served from the patched cache, before any rebuild
	conv, err := env.svc.Thread(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal("Bob", conv.Counterparty.DisplayName)
	req.Len(conv.Messages, 1)
}

func Test_Seed_Then_Send_Yields_Single_Conversation(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	env.putContact(t, store.PartitionCoach, "dora", "Dora", "dora@example.com")

	// fresh seeds are prepended
	conv, err := env.svc.Seed(ctx, "alice", "dora")
	req.NoError(err)
	req.Equal("Dora", conv.Counterparty.DisplayName)
	req.Empty(conv.Messages)

	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Len(convs, 1)
	req.Equal("dora", convs[0].CounterpartyID)

	_, err = env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "dora", Body: "bonjour"})
	req.NoError(err)

	// after reload, exactly one conversation with dora exists
	convs, err = env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Len(convs, 1)
	req.Equal("dora", convs[0].CounterpartyID)
	req.Len(convs[0].Messages, 1)
}

func Test_Seed_Existing_Thread_Does_Not_Duplicate(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.NoError(err)
	_, err = env.svc.Conversations(ctx, "alice")
	req.NoError(err)

	conv, err := env.svc.Seed(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(conv.Messages, 1)

	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Len(convs, 1)
}

func Test_MarkConversationRead_Idempotent_And_Persistent(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Send(ctx, bob, &model.SendMessageRequest{RecipientID: "alice", Body: "un"})
	req.NoError(err)
	_, err = env.svc.Send(ctx, bob, &model.SendMessageRequest{RecipientID: "alice", Body: "deux"})
	req.NoError(err)

	convs, err := env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Equal(2, convs[0].UnreadCount)

	conv, err := env.svc.MarkConversationRead(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(0, conv.UnreadCount)

	conv, err = env.svc.MarkConversationRead(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(0, conv.UnreadCount)

	// a full reload reflects the persisted read state
	convs, err = env.svc.Conversations(ctx, "alice")
	req.NoError(err)
	req.Equal(0, convs[0].UnreadCount)
	for _, m := range convs[0].Messages {
		req.True(m.Read)
	}
}

func Test_MarkConversationRead_Unknown_Counterparty(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	_, err := env.svc.MarkConversationRead(context.Background(), "alice", "nobody")
	req.True(errors.Is(err, store.ErrNotFound))
}

func Test_Thread_Returns_Single_Conversation(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Send(ctx, alice, &model.SendMessageRequest{RecipientID: "bob", Body: "hello"})
	req.NoError(err)

	conv, err := env.svc.Thread(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(conv.Messages, 1)

	_, err = env.svc.Thread(ctx, "alice", "nobody")
	req.True(errors.Is(err, store.ErrNotFound))
}
