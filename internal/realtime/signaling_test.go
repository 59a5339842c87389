package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

const validSDP = `{"sdp":"v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111"}`

// relayFixture wires a call between two connected users
type relayFixture struct {
	relay    *SignalingRelay
	manager  *CallManager
	caller   *fakeHandle
	receiver *fakeHandle
	roomID   string
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	mockStore := new(MockCallStore)
	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil)
	mockStore.On("Finish", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	registry := NewRegistry()
	manager := NewCallManager(mockStore, newStubAvailability(), 45*time.Second)

	caller := newFakeHandle(uuid.New())
	receiver := newFakeHandle(uuid.New())
	registry.Register(caller)
	registry.Register(receiver)

	call, err := manager.Initiate(context.Background(), caller.UserID(), receiver.UserID(), domain.CallTypeVideo)
	assert.NoError(t, err)

	return &relayFixture{
		relay:    NewSignalingRelay(manager, registry),
		manager:  manager,
		caller:   caller,
		receiver: receiver,
		roomID:   call.RoomID,
	}
}

func TestRelay_ForwardsToPeer(t *testing.T) {
	f := newRelayFixture(t)

	signal := &SignalPayload{
		RoomID:     f.roomID,
		SignalType: SignalTypeOffer,
		Payload:    json.RawMessage(validSDP),
	}

	err := f.relay.Relay(context.Background(), f.caller.UserID(), signal)

	assert.NoError(t, err)
	events := f.receiver.received()
	assert.Len(t, events, 1)
	assert.Equal(t, EventSignal, events[0].Event)

	var forwarded SignalPayload
	assert.NoError(t, json.Unmarshal(events[0].Payload, &forwarded))
	assert.Equal(t, f.caller.UserID(), forwarded.From)
	assert.Equal(t, SignalTypeOffer, forwarded.SignalType)

	// The sender never gets an echo
	assert.Empty(t, f.caller.received())
}

func TestRelay_AnswerFlowsBack(t *testing.T) {
	f := newRelayFixture(t)

	signal := &SignalPayload{
		RoomID:     f.roomID,
		SignalType: SignalTypeAnswer,
		Payload:    json.RawMessage(validSDP),
	}

	err := f.relay.Relay(context.Background(), f.receiver.UserID(), signal)

	assert.NoError(t, err)
	assert.Len(t, f.caller.received(), 1)
}

func TestRelay_InvalidSignal(t *testing.T) {
	f := newRelayFixture(t)

	signal := &SignalPayload{
		RoomID:     f.roomID,
		SignalType: SignalTypeOffer,
		Payload:    json.RawMessage(`{"sdp":"not real sdp"}`),
	}

	err := f.relay.Relay(context.Background(), f.caller.UserID(), signal)

	assert.Equal(t, apperrors.ErrCodeInvalidSignal, apperrors.GetAppError(err).Code)
	assert.Empty(t, f.receiver.received())
}

func TestRelay_UnknownRoom(t *testing.T) {
	f := newRelayFixture(t)

	signal := &SignalPayload{
		RoomID:     uuid.NewString(),
		SignalType: SignalTypeHangup,
	}

	err := f.relay.Relay(context.Background(), f.caller.UserID(), signal)

	assert.Equal(t, apperrors.ErrCodeCallNotFound, apperrors.GetAppError(err).Code)
}

func TestRelay_NonPartyNeverForwarded(t *testing.T) {
	f := newRelayFixture(t)

	signal := &SignalPayload{
		RoomID:     f.roomID,
		SignalType: SignalTypeIceCandidate,
		Payload:    json.RawMessage(`{"candidate":"candidate:1 1 UDP 2122252543 192.0.2.1 54321 typ host"}`),
	}

	err := f.relay.Relay(context.Background(), uuid.New(), signal)

	assert.Equal(t, apperrors.ErrCodeNotCallParty, apperrors.GetAppError(err).Code)
	assert.Empty(t, f.caller.received())
	assert.Empty(t, f.receiver.received())
}

func TestRelay_PeerGoneTerminatesCall(t *testing.T) {
	mockStore := new(MockCallStore)
	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil)
	mockStore.On("Finish", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.CallStatusMissed, mock.AnythingOfType("time.Time")).Return(nil)

	registry := NewRegistry()
	manager := NewCallManager(mockStore, newStubAvailability(), 45*time.Second)
	relay := NewSignalingRelay(manager, registry)

	caller := newFakeHandle(uuid.New())
	receiverID := uuid.New()
	registry.Register(caller)

	// Receiver was reachable at initiate time but dropped before signaling
	call, err := manager.Initiate(context.Background(), caller.UserID(), receiverID, domain.CallTypeVoice)
	assert.NoError(t, err)

	signal := &SignalPayload{
		RoomID:     call.RoomID,
		SignalType: SignalTypeOffer,
		Payload:    json.RawMessage(validSDP),
	}

	err = relay.Relay(context.Background(), caller.UserID(), signal)

	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodePeerUnavailable, appErr.Code)
	// The half-dead room is torn down, not left to linger
	assert.Equal(t, 0, manager.ActiveCount())

	// The error carries the terminal outcome actually written, so the
	// sender is never told a status that contradicts the durable record
	ended, ok := appErr.Details.(CallEndedPayload)
	assert.True(t, ok)
	assert.Equal(t, call.RoomID, ended.RoomID)
	assert.Equal(t, domain.CallStatusMissed, ended.Status)

	mockStore.AssertExpectations(t)
}
