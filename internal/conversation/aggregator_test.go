package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
)

type fakeLookup struct {
	contacts map[string]model.Contact
}

func (f fakeLookup) Resolve(ctx context.Context, id string) (model.Contact, bool) {
	c, ok := f.contacts[id]
	return c, ok
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func received(id, from string, at time.Time, read bool) model.Message {
	return model.Message{
		ID:          id,
		SenderID:    from,
		RecipientID: "me",
		Sender:      model.SenderSnapshot{DisplayName: "Sender " + from, Email: from + "@example.com"},
		Body:        "from " + from,
		SentAt:      at,
		Read:        read,
	}
}

func sent(id, to string, at time.Time) model.Message {
	return model.Message{
		ID:          id,
		SenderID:    "me",
		RecipientID: to,
		Sender:      model.SenderSnapshot{DisplayName: "Me", Email: "me@example.com"},
		Body:        "to " + to,
		SentAt:      at,
	}
}

func Test_Build_Groups_By_Counterparty(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		[]model.Message{
			received("m1", "bea", t0, false),
			received("m2", "carl", t0.Add(time.Minute), false),
		},
		[]model.Message{
			sent("m3", "bea", t0.Add(2*time.Minute)),
		},
		fakeLookup{},
	)

	req.Len(convs, 2)
	byID := map[string]model.Conversation{}
	for _, c := range convs {
		byID[c.CounterpartyID] = c
	}
	req.Len(byID["bea"].Messages, 2)
	req.Len(byID["carl"].Messages, 1)
}

func Test_Build_Orders_Messages_Ascending(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		[]model.Message{
			received("m2", "bea", t0.Add(time.Hour), false),
			received("m1", "bea", t0, false),
		},
		[]model.Message{
			sent("m3", "bea", t0.Add(30*time.Minute)),
		},
		fakeLookup{},
	)

	req.Len(convs, 1)
	msgs := convs[0].Messages
	for i := 1; i < len(msgs); i++ {
		req.False(msgs[i].SentAt.Before(msgs[i-1].SentAt))
	}
	req.Equal("m2", convs[0].LastMessage.ID)
}

func Test_Build_Orders_Conversations_By_Recency(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		[]model.Message{
			received("old", "bea", t0, false),
			received("new", "carl", t0.Add(time.Hour), false),
		},
		nil,
		fakeLookup{},
	)

	req.Len(convs, 2)
	req.Equal("carl", convs[0].CounterpartyID)
	req.Equal("bea", convs[1].CounterpartyID)
}

func Test_Build_Counts_Unread_Received_Only(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		[]model.Message{
			received("m1", "bea", t0, true),
			received("m2", "bea", t0.Add(time.Minute), false),
			received("m3", "bea", t0.Add(2*time.Minute), false),
		},
		[]model.Message{
			// own unread sent message must not count
			sent("m4", "bea", t0.Add(3*time.Minute)),
		},
		fakeLookup{},
	)

	req.Len(convs, 1)
	req.Equal(2, convs[0].UnreadCount)
}

func Test_Build_Takes_Contact_From_Received_Snapshot(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		[]model.Message{received("m1", "bea", t0, false)},
		nil,
		fakeLookup{},
	)

	req.Equal("Sender bea", convs[0].Counterparty.DisplayName)
	req.Equal("bea@example.com", convs[0].Counterparty.Email)
}

func Test_Build_Resolves_Sent_Only_Counterparty(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		nil,
		[]model.Message{sent("m1", "dora", t0)},
		fakeLookup{contacts: map[string]model.Contact{
			"dora": {ID: "dora", DisplayName: "Dora", Role: model.RoleCoach},
		}},
	)

	req.Len(convs, 1)
	req.Equal("Dora", convs[0].Counterparty.DisplayName)
}

func Test_Build_Keeps_Unresolvable_Counterparty_With_Placeholder(t *testing.T) {
	req := require.New(t)

	convs := Build(context.Background(), "me",
		nil,
		[]model.Message{sent("m1", "ghost", t0)},
		fakeLookup{},
	)

	// the thread is shown, not silently dropped
	req.Len(convs, 1)
	req.Equal(model.PlaceholderDisplayName, convs[0].Counterparty.DisplayName)
}

func Test_Build_Equal_SentAt_Keeps_Input_Order(t *testing.T) {
	req := require.New(t)

	// same timestamp: the sort is stable, so received messages come before
	// sent ones; beyond that, tie order is unspecified
	convs := Build(context.Background(), "me",
		[]model.Message{received("r1", "bea", t0, false)},
		[]model.Message{sent("s1", "bea", t0)},
		fakeLookup{},
	)

	req.Len(convs, 1)
	req.Equal("r1", convs[0].Messages[0].ID)
	req.Equal("s1", convs[0].Messages[1].ID)
}

func Test_Build_Empty_Inputs(t *testing.T) {
	req := require.New(t)
	convs := Build(context.Background(), "me", nil, nil, fakeLookup{})
	req.Empty(convs)
}
