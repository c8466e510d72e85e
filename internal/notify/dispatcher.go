package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/contact"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/metrics"
)

// previewLimit caps the message preview embedded in notifications.
const previewLimit = 100

// Preview truncates body to previewLimit characters, appending an ellipsis
// marker when content was cut.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLimit {
		return body
	}
	return string(runes[:previewLimit]) + "…"
}

// Dispatcher fires outbound notifications after a message has been appended.
// It is not part of the send transaction: every failure in here is logged
// and contained, never reported back to the sender of the message.
type Dispatcher struct {
	resolver *contact.Resolver
	sender   Sender
	logger   *logger.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(resolver *contact.Resolver, sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{resolver: resolver, sender: sender, logger: log}
}

// Dispatch resolves the recipient and sends the recipient notification plus
// the sender confirmation on a detached goroutine. The request context is
// deliberately not carried over: a caller navigating away abandons interest
// in the result, it does not cancel delivery.
func (d *Dispatcher) Dispatch(msg model.Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification dispatch panicked",
					zap.String("message_id", msg.ID),
					zap.Any("panic", r),
				)
			}
		}()
		d.dispatch(context.Background(), msg)
	}()
}

// Wait blocks until all in-flight dispatches have finished. Called on
// shutdown so queued notifications are not lost to process exit.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, msg model.Message) {
	preview := Preview(msg.Body)

	// Recipient notification.
	recipient, err := d.resolver.Resolve(ctx, msg.RecipientID)
	switch {
	case err != nil:
		d.logger.Warn("recipient not notified: resolution failed",
			zap.String("message_id", msg.ID),
			zap.String("recipient_id", msg.RecipientID),
			zap.Error(err),
		)
		metrics.RecordNotification(string(model.NotificationMessage), "skipped")
	case recipient.Email == "":
		d.logger.Warn("recipient not notified: contact has no email",
			zap.String("message_id", msg.ID),
			zap.String("recipient_id", msg.RecipientID),
		)
		metrics.RecordNotification(string(model.NotificationMessage), "skipped")
	default:
		d.send(ctx, msg.ID, model.Notification{
			Kind:           model.NotificationMessage,
			RecipientEmail: recipient.Email,
			RecipientName:  recipient.DisplayName,
			SenderName:     msg.Sender.DisplayName,
			SenderRole:     msg.Sender.Role,
			MessagePreview: preview,
		})
	}

	// Sender confirmation, independent of the recipient outcome.
	if msg.Sender.Email == "" {
		d.logger.Warn("send confirmation skipped: sender snapshot has no email",
			zap.String("message_id", msg.ID),
		)
		metrics.RecordNotification(string(model.NotificationConfirmation), "skipped")
		return
	}
	d.send(ctx, msg.ID, model.Notification{
		Kind:           model.NotificationConfirmation,
		RecipientEmail: msg.Sender.Email,
		RecipientName:  msg.Sender.DisplayName,
		SenderName:     msg.Sender.DisplayName,
		SenderRole:     msg.Sender.Role,
		MessagePreview: preview,
	})
}

func (d *Dispatcher) send(ctx context.Context, messageID string, n model.Notification) {
	if err := d.sender.Send(ctx, n); err != nil {
		d.logger.Warn("notification send failed",
			zap.String("message_id", messageID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
		metrics.RecordNotification(string(n.Kind), "failed")
		return
	}
	metrics.RecordNotification(string(n.Kind), "sent")
}
