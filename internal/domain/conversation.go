package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents conversation metadata between matched members
// Maps to CockroachDB conversations table
type Conversation struct {
	ConversationID     uuid.UUID  `json:"conversation_id" db:"conversation_id"`
	CreatedBy          uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty" db:"last_message_preview"`
}

// ConversationParticipant represents a user in a conversation
// Maps to CockroachDB conversation_participants table
type ConversationParticipant struct {
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}
