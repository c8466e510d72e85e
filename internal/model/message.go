// Package model defines data structures for the messaging subsystem.
package model

import (
	"time"
)

// Role identifies which side of the platform an identity belongs to.
type Role string

const (
	RoleTalent    Role = "talent"
	RoleRecruiter Role = "recruiter"
	RoleCoach     Role = "coach"
)

// SenderSnapshot is the denormalized copy of the sender's profile captured
// at send time. It is never re-resolved, so later profile edits do not
// change how already-sent messages display.
type SenderSnapshot struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// Message represents one directed, point-to-point message. A message is
// immutable once created, except for the Read flag, which only ever moves
// from false to true.
type Message struct {
	ID          string         `json:"id"`
	SenderID    string         `json:"sender_id"`
	RecipientID string         `json:"recipient_id"`
	Sender      SenderSnapshot `json:"sender"`
	Body        string         `json:"body"`
	SentAt      time.Time      `json:"sent_at"`
	Read        bool           `json:"read"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}
