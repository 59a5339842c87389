package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message types
const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

// Message represents a chat message entity
// Maps to Cassandra messages table, bucketed by month for scalability.
// Messages are immutable once written.
type Message struct {
	ConversationID uuid.UUID `json:"conversation_id" cql:"conversation_id"`
	Bucket         int       `json:"-" cql:"bucket"`
	MessageID      uuid.UUID `json:"message_id" cql:"message_id"`
	SenderID       uuid.UUID `json:"sender_id" cql:"sender_id"`
	Content        string    `json:"content,omitempty" cql:"content"`
	FileRef        string    `json:"file_ref,omitempty" cql:"file_ref"` // object key in the attachment store
	MessageType    string    `json:"message_type" cql:"message_type"`   // text, file
	SentAt         time.Time `json:"sent_at" cql:"sent_at"`
}

// CalculateBucket returns the month bucket for a timestamp (YYYYMM)
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
