// Package conversation derives per-counterparty threads from the flat
// message log and tracks their read state.
package conversation

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
)

// Lookup resolves counterparty contacts during one build pass. Implemented
// by contact.Pass.
type Lookup interface {
	Resolve(ctx context.Context, id string) (model.Contact, bool)
}

type group struct {
	conv        model.Conversation
	haveContact bool
}

// Build derives the conversation list for currentUserID from its received
// and sent messages.
//
// Received messages carry the counterparty profile inline in their sender
// snapshot. Counterparties known only from the sent side are resolved
// through contacts; when that fails too, the thread still appears under the
// placeholder contact rather than being dropped.
//
// Messages within a thread are sorted ascending by SentAt and threads are
// sorted descending by their last message. Both sorts are stable: messages
// sharing a SentAt keep their input order (received before sent, each in
// store scan order), which makes ties deterministic within one load but
// otherwise unspecified.
func Build(ctx context.Context, currentUserID string, received, sent []model.Message, contacts Lookup) []model.Conversation {
	groups := make(map[string]*group)
	var order []string

	byCounterparty := func(id string) *group {
		g, ok := groups[id]
		if !ok {
			g = &group{conv: model.Conversation{
				CounterpartyID: id,
				Counterparty:   model.PlaceholderContact(id),
			}}
			groups[id] = g
			order = append(order, id)
		}
		return g
	}

	for _, m := range received {
		g := byCounterparty(m.SenderID)
		g.conv.Messages = append(g.conv.Messages, m)
		if !g.haveContact {
			g.conv.Counterparty = m.Sender.Contact(m.SenderID)
			g.haveContact = true
		}
	}
	for _, m := range sent {
		g := byCounterparty(m.RecipientID)
		g.conv.Messages = append(g.conv.Messages, m)
	}

	// Sent-only counterparties have no snapshot to borrow; probe the
	// identity partitions once per id.
	for _, id := range order {
		g := groups[id]
		if g.haveContact {
			continue
		}
		if c, ok := contacts.Resolve(ctx, id); ok {
			g.conv.Counterparty = c
			g.haveContact = true
		}
	}

	conversations := lo.Map(order, func(id string, _ int) model.Conversation {
		conv := groups[id].conv
		sort.SliceStable(conv.Messages, func(i, j int) bool {
			return conv.Messages[i].SentAt.Before(conv.Messages[j].SentAt)
		})
		conv.LastMessage = &conv.Messages[len(conv.Messages)-1]
		conv.UnreadCount = unreadCount(currentUserID, conv.Messages)
		return conv
	})

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.SentAt.After(conversations[j].LastMessage.SentAt)
	})
	return conversations
}

func unreadCount(userID string, messages []model.Message) int {
	return lo.CountBy(messages, func(m model.Message) bool {
		return m.RecipientID == userID && !m.Read
	})
}

// Seeded returns an empty, ephemeral conversation for a counterparty with no
// message history. It only exists in memory and is discarded on reload
// unless a message is actually sent into it.
func Seeded(counterpartyID string, counterparty model.Contact) model.Conversation {
	return model.Conversation{
		CounterpartyID: counterpartyID,
		Counterparty:   counterparty,
	}
}
