package model

// NotificationKind distinguishes the outbound notification variants.
type NotificationKind string

const (
	// NotificationMessage tells a recipient they have a new message.
	NotificationMessage NotificationKind = "message"
	// NotificationConfirmation confirms to the sender that their message
	// went out.
	NotificationConfirmation NotificationKind = "confirmation"
)

// Notification is the payload handed to the external notification sender.
// Delivery mechanics and retry policy belong to that sender, not to the
// messaging core.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	RecipientEmail string           `json:"recipient_email"`
	RecipientName  string           `json:"recipient_name"`
	SenderName     string           `json:"sender_name"`
	SenderRole     Role             `json:"sender_role"`
	MessagePreview string           `json:"message_preview"`
}
