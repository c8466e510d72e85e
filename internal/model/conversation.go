package model

// Conversation is the derived thread between the current user and one
// counterparty. It is never persisted: the list is recomputed from the flat
// message log on every load.
type Conversation struct {
	CounterpartyID string    `json:"counterparty_id"`
	Counterparty   Contact   `json:"counterparty"`
	Messages       []Message `json:"messages"`
	LastMessage    *Message  `json:"last_message,omitempty"`
	UnreadCount    int       `json:"unread_count"`
}

// SeedConversationRequest is the request to pre-seed an empty, ephemeral
// conversation with a counterparty that has no message history yet.
type SeedConversationRequest struct {
	CounterpartyID string `json:"counterparty_id" validate:"required"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
