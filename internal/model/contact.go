package model

// PlaceholderDisplayName is shown for counterparties that resolve against
// none of the identity partitions. The thread is still rendered rather than
// silently dropped.
const PlaceholderDisplayName = "Destinataire"

// Contact is the normalized view over one of the three identity partitions
// (talent, recruiter, coach), keyed by the same identifier space as message
// sender and recipient ids.
type Contact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// PlaceholderContact returns the degraded contact used when an identifier
// cannot be resolved.
func PlaceholderContact(id string) Contact {
	return Contact{
		ID:          id,
		DisplayName: PlaceholderDisplayName,
	}
}

// Contact converts a sender snapshot back into a contact view for the given
// sender id.
func (s SenderSnapshot) Contact(id string) Contact {
	return Contact{
		ID:          id,
		DisplayName: s.DisplayName,
		Email:       s.Email,
		Role:        s.Role,
		AvatarRef:   s.AvatarRef,
	}
}

// UpsertContactRequest is the request to write a profile into an identity
// partition.
type UpsertContactRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}
