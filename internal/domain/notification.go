package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationTypeMessage    = "message"
	NotificationTypeMissedCall = "missed_call"
	NotificationTypeInterest   = "interest"
	NotificationTypeSystem     = "system"
)

// Notification represents a user notification
// Maps to CockroachDB notifications table. Created whenever an event targets
// a possibly-offline user; mutated only to flip is_read.
type Notification struct {
	NotificationID uuid.UUID              `json:"notification_id" db:"notification_id"`
	UserID         uuid.UUID              `json:"user_id" db:"user_id"`
	Type           string                 `json:"type" db:"type"`
	Title          string                 `json:"title" db:"title"`
	Body           string                 `json:"body" db:"body"`
	Data           map[string]interface{} `json:"data,omitempty" db:"data"` // related entity reference
	IsRead         bool                   `json:"is_read" db:"is_read"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	ReadAt         *time.Time             `json:"read_at,omitempty" db:"read_at"`
}

// NotificationCreate represents data needed to create a notification
type NotificationCreate struct {
	UserID uuid.UUID
	Type   string
	Title  string
	Body   string
	Data   map[string]interface{}
}

// NotificationListResponse represents paginated notification list
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	TotalCount    int            `json:"total_count"`
	HasMore       bool           `json:"has_more"`
}
