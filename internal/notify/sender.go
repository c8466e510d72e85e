package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
)

// Sender delivers one notification payload. The concrete delivery mechanism
// (email provider, retries) lives behind this interface, out of scope for
// the messaging core.
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

const (
	// StreamName is the JetStream stream consumed by the delivery worker.
	StreamName = "NOTIFICATIONS"

	// SubjectPrefix is the prefix for all notification subjects.
	SubjectPrefix = "notify"
)

// Subject returns the publish subject for a notification kind.
func Subject(kind model.NotificationKind) string {
	return fmt.Sprintf("%s.email.%s", SubjectPrefix, kind)
}

// NATSSender publishes notification payloads to JetStream, where the
// downstream email worker picks them up.
type NATSSender struct {
	client *Client
}

// NewNATSSender creates a sender over the given client.
func NewNATSSender(client *Client) *NATSSender {
	return &NATSSender{client: client}
}

// EnsureStream ensures the notifications stream exists.
func (s *NATSSender) EnsureStream(ctx context.Context) error {
	js := s.client.js

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Outbound messaging notifications awaiting delivery",
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Send publishes the payload. Delivery beyond the stream is the worker's
// concern.
func (s *NATSSender) Send(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if _, err := s.client.js.Publish(ctx, Subject(n.Kind), data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
