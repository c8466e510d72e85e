package conversation

import (
	"context"

	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/metrics"
)

// Marker marks individual messages read in the store.
type Marker interface {
	MarkRead(ctx context.Context, messageID string) error
}

// Tracker reconciles a conversation's unread state with the store.
type Tracker struct {
	store  Marker
	logger *logger.Logger
}

// NewTracker creates a read-state tracker over the given store.
func NewTracker(store Marker, log *logger.Logger) *Tracker {
	return &Tracker{store: store, logger: log}
}

// MarkConversationRead marks every unread message addressed to userID in
// conv as read. A failed store write is logged and does not stop the
// remaining marks. The local flags and UnreadCount are forced regardless of
// per-message outcomes, so the caller's view is optimistically consistent;
// the next full reload reconciles against actual store state.
//
// Read transitions are monotonic: the tracker never sets a flag back to
// false, and re-marking an already-read conversation is a no-op.
func (t *Tracker) MarkConversationRead(ctx context.Context, userID string, conv *model.Conversation) {
	marked := 0
	for i := range conv.Messages {
		m := &conv.Messages[i]
		if m.RecipientID != userID || m.Read {
			continue
		}
		if err := t.store.MarkRead(ctx, m.ID); err != nil {
			t.logger.Warn("mark read failed",
				zap.String("message_id", m.ID),
				zap.String("counterparty_id", conv.CounterpartyID),
				zap.Error(err),
			)
		}
		m.Read = true
		marked++
	}
	conv.UnreadCount = 0
	if conv.LastMessage != nil && conv.LastMessage.RecipientID == userID {
		conv.LastMessage.Read = true
	}
	if marked > 0 {
		metrics.MessagesMarkedRead.Add(float64(marked))
	}
}
