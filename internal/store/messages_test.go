package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_Append_Assigns_Identity_And_Unread(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	stored, err := s.Append(context.Background(), model.Message{
		SenderID:    "alice",
		RecipientID: "bob",
		Body:        "bonjour",
		Read:        true, // must be ignored: a new message always starts unread
	})
	req.NoError(err)
	req.NotEmpty(stored.ID)
	req.False(stored.SentAt.IsZero())
	req.False(stored.Read)
}

func Test_ListForRecipient_Chronological(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	bodies := []string{"first", "second", "third"}
	// append out of chronological order; the index key restores it
	for _, i := range []int{2, 0, 1} {
		_, err := s.Append(ctx, model.Message{
			SenderID:    "alice",
			RecipientID: "bob",
			Body:        bodies[i],
			SentAt:      at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}

	messages, err := s.ListForRecipient(ctx, "bob")
	req.NoError(err)
	req.Len(messages, 3)
	for i, m := range messages {
		req.Equal(bodies[i], m.Body)
	}

	none, err := s.ListForRecipient(ctx, "alice")
	req.NoError(err)
	req.Empty(none)
}

func Test_ListForSender_Direct_Query(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	// alice has written to bob, bob never replied; the sent index must
	// still surface the message without any received-side scan
	_, err := s.Append(ctx, model.Message{
		SenderID:    "alice",
		RecipientID: "bob",
		Body:        "are you there?",
	})
	req.NoError(err)

	sent, err := s.ListForSender(ctx, "alice")
	req.NoError(err)
	req.Len(sent, 1)
	req.Equal("bob", sent[0].RecipientID)
}

func Test_Append_Rejects_Separator_In_Ids(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	// "bob:shadow" would land inside bob's index prefix and surface in
	// bob's received list
	_, err := s.Append(ctx, model.Message{
		SenderID:    "alice",
		RecipientID: "bob:shadow",
		Body:        "not for bob",
	})
	req.Error(err)
	req.True(errors.Is(err, ErrInvalidID))

	_, err = s.Append(ctx, model.Message{
		SenderID:    "alice:shadow",
		RecipientID: "bob",
		Body:        "not from alice",
	})
	req.Error(err)
	req.True(errors.Is(err, ErrInvalidID))

	received, err := s.ListForRecipient(ctx, "bob")
	req.NoError(err)
	req.Empty(received)

	sent, err := s.ListForSender(ctx, "alice")
	req.NoError(err)
	req.Empty(sent)
}

func Test_MarkRead_Idempotent_And_Monotonic(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, model.Message{
		SenderID:    "alice",
		RecipientID: "bob",
		Body:        "lis-moi",
	})
	req.NoError(err)

	req.NoError(s.MarkRead(ctx, stored.ID))
	req.NoError(s.MarkRead(ctx, stored.ID)) // second mark is a no-op success

	messages, err := s.ListForRecipient(ctx, "bob")
	req.NoError(err)
	req.Len(messages, 1)
	req.True(messages[0].Read)
}

func Test_MarkRead_Unknown_Message(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	err := s.MarkRead(context.Background(), "no-such-id")
	req.Error(err)
	req.True(errors.Is(err, ErrNotFound))
}
