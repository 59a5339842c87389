package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

func TestSignalValidate_Offer(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeOffer,
		Payload:    json.RawMessage(validSDP),
	}
	assert.NoError(t, signal.Validate())
}

func TestSignalValidate_OfferMissingHeaders(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeOffer,
		Payload:    json.RawMessage(`{"sdp":"hello world"}`),
	}

	err := signal.Validate()
	assert.Equal(t, apperrors.ErrCodeInvalidSignal, apperrors.GetAppError(err).Code)
}

func TestSignalValidate_AnswerMalformedJSON(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeAnswer,
		Payload:    json.RawMessage(`not json`),
	}
	assert.Error(t, signal.Validate())
}

func TestSignalValidate_IceCandidate(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeIceCandidate,
		Payload:    json.RawMessage(`{"candidate":"candidate:1 1 UDP 2122252543 192.0.2.1 54321 typ host"}`),
	}
	assert.NoError(t, signal.Validate())
}

func TestSignalValidate_EmptyCandidate(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeIceCandidate,
		Payload:    json.RawMessage(`{"candidate":""}`),
	}
	assert.Error(t, signal.Validate())
}

func TestSignalValidate_Hangup(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: SignalTypeHangup,
	}
	assert.NoError(t, signal.Validate())
}

func TestSignalValidate_UnknownType(t *testing.T) {
	signal := &SignalPayload{
		RoomID:     "room-1",
		SignalType: "renegotiate",
	}
	assert.Error(t, signal.Validate())
}

func TestSignalValidate_MissingRoom(t *testing.T) {
	signal := &SignalPayload{
		SignalType: SignalTypeHangup,
	}
	assert.Error(t, signal.Validate())
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventCallAnswered, CallAnsweredPayload{RoomID: "room-1"})

	assert.Equal(t, EventCallAnswered, event.Event)

	var payload CallAnsweredPayload
	assert.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "room-1", payload.RoomID)
}

func TestNewEvent_NilPayload(t *testing.T) {
	event := NewEvent(EventHeartbeat, nil)

	assert.Equal(t, EventHeartbeat, event.Event)
	assert.Nil(t, event.Payload)
}

func TestNewErrorEvent(t *testing.T) {
	event := NewErrorEvent(apperrors.UserBusyError())

	assert.Equal(t, EventError, event.Event)

	var payload ErrorPayload
	assert.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, string(apperrors.ErrCodeUserBusy), payload.Code)
	assert.NotEmpty(t, payload.Message)
}

func TestNewErrorEvent_WrapsPlainErrors(t *testing.T) {
	event := NewErrorEvent(assert.AnError)

	var payload ErrorPayload
	assert.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, string(apperrors.ErrCodeInternal), payload.Code)
}
