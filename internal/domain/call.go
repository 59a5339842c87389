package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call statuses. Transitions are monotonic:
// initiated -> {ringing, answered} -> {rejected, missed, completed}.
const (
	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusRejected  = "rejected"
	CallStatusMissed    = "missed"
	CallStatusCompleted = "completed"
)

// Call types
const (
	CallTypeVoice = "voice"
	CallTypeVideo = "video"
)

// Call represents a voice/video call record
// Maps to CockroachDB calls table
type Call struct {
	CallID          uuid.UUID  `json:"call_id" db:"call_id"`
	CallerID        uuid.UUID  `json:"caller_id" db:"caller_id"`
	ReceiverID      uuid.UUID  `json:"receiver_id" db:"receiver_id"`
	CallType        string     `json:"call_type" db:"call_type"` // voice, video
	RoomID          string     `json:"room_id" db:"room_id"`     // globally unique, stable for the call's lifetime
	Status          string     `json:"status" db:"status"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty" db:"answered_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
}

// IsTerminal reports whether the status is absorbing
func IsTerminalCallStatus(status string) bool {
	switch status {
	case CallStatusRejected, CallStatusMissed, CallStatusCompleted:
		return true
	}
	return false
}

// ValidCallType reports whether t is a supported call type
func ValidCallType(t string) bool {
	return t == CallTypeVoice || t == CallTypeVideo
}
