package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

// Client -> server event types
const (
	EventRegister          = "register" // compat shim; identity comes from the JWT at connect
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventStopTyping        = "stop_typing"
	EventCallInitiate      = "call_initiate"
	EventCallRing          = "call_ring"
	EventCallAnswer        = "call_answer"
	EventCallReject        = "call_reject"
	EventCallEnd           = "call_end"
	EventSignal            = "signal"
	EventHeartbeat         = "heartbeat"
)

// Server -> client event types
const (
	EventOnlineRoster        = "online_roster"
	EventPresenceChanged     = "presence_changed"
	EventNewMessage          = "new_message"
	EventNotification        = "notification"
	EventIncomingCall        = "incoming_call"
	EventCallInitiated       = "call_initiated"
	EventCallRinging         = "call_ringing"
	EventCallAnswered        = "call_answered"
	EventCallRejected        = "call_rejected"
	EventCallEnded           = "call_ended"
	EventUserBusy            = "user_busy"
	EventUserUnavailable     = "user_unavailable"
	EventError               = "error"
)

// Signal types relayed between call parties
const (
	SignalTypeOffer        = "offer"
	SignalTypeAnswer       = "answer"
	SignalTypeIceCandidate = "ice_candidate"
	SignalTypeHangup       = "hangup"
)

// Event is the JSON envelope for every frame on the WebSocket
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an envelope with a marshaled payload
func NewEvent(event string, payload interface{}) Event {
	if payload == nil {
		return Event{Event: event}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Event: event}
	}
	return Event{Event: event, Payload: data}
}

// Client -> server payloads

type JoinConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content,omitempty"`
	FileRef        string    `json:"file_ref,omitempty"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id,omitempty"`
}

type CallInitiatePayload struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	CallType string    `json:"call_type"`
}

type CallActionPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason,omitempty"`
}

// SignalPayload carries one WebRTC signaling frame between the two call
// parties. The server validates shape but never inspects or stores the SDP.
type SignalPayload struct {
	RoomID     string          `json:"room_id"`
	SignalType string          `json:"signal_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	From       uuid.UUID       `json:"from,omitempty"`
}

type sdpBody struct {
	SDP string `json:"sdp"`
}

type candidateBody struct {
	Candidate string `json:"candidate"`
}

// Validate checks the signal shape at the boundary. Nothing is mutated on
// failure, so a malformed frame is always safe to reject.
func (s *SignalPayload) Validate() error {
	if s.RoomID == "" {
		return apperrors.InvalidSignalError("room_id is required")
	}

	switch s.SignalType {
	case SignalTypeOffer, SignalTypeAnswer:
		var body sdpBody
		if err := json.Unmarshal(s.Payload, &body); err != nil {
			return apperrors.InvalidSignalError("malformed SDP payload")
		}
		if !strings.Contains(body.SDP, "v=") || !strings.Contains(body.SDP, "m=") {
			return apperrors.InvalidSignalError("SDP is missing required header lines")
		}
	case SignalTypeIceCandidate:
		var body candidateBody
		if err := json.Unmarshal(s.Payload, &body); err != nil {
			return apperrors.InvalidSignalError("malformed candidate payload")
		}
		if body.Candidate == "" {
			return apperrors.InvalidSignalError("candidate must not be empty")
		}
	case SignalTypeHangup:
		// No payload required
	default:
		return apperrors.InvalidSignalError("unknown signal type: " + s.SignalType)
	}

	return nil
}

// Server -> client payloads

type OnlineRosterPayload struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

type PresenceChangedPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

type IncomingCallPayload struct {
	RoomID     string    `json:"room_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	CallType   string    `json:"call_type"`
}

type CallAnsweredPayload struct {
	RoomID string `json:"room_id"`
}

type CallRejectedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason,omitempty"`
}

type CallEndedPayload struct {
	RoomID          string    `json:"room_id"`
	EndedBy         uuid.UUID `json:"ended_by,omitempty"`
	Status          string    `json:"status"`
	DurationSeconds int       `json:"duration_seconds"`
}

type UserBusyPayload struct {
	Peer uuid.UUID `json:"peer"`
}

type NewMessagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content,omitempty"`
	FileRef        string    `json:"file_ref,omitempty"`
	MessageType    string    `json:"message_type"`
	SentAt         time.Time `json:"sent_at"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorEvent converts an error to a typed error event for the client
func NewErrorEvent(err error) Event {
	appErr := apperrors.GetAppError(err)
	return NewEvent(EventError, ErrorPayload{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
