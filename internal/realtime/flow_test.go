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

// Exercises the components wired together the way the service runs them:
// the presence tracker backs the call manager's availability check and the
// relay resolves peers through the shared registry.
func TestVideoCallLifecycle(t *testing.T) {
	mockStore := new(MockCallStore)
	mirror := new(MockPresenceMirror)

	registry := NewRegistry()
	presence := NewPresenceTracker(registry, mirror)
	manager := NewCallManager(mockStore, presence, 45*time.Second)
	relay := NewSignalingRelay(manager, registry)

	caller := newFakeHandle(uuid.New())
	receiver := newFakeHandle(uuid.New())
	registry.Register(caller)
	registry.Register(receiver)

	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil)
	mockStore.On("MarkAnswered", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)
	mockStore.On("Finish", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.CallStatusCompleted, mock.AnythingOfType("time.Time")).Return(nil)

	ctx := context.Background()

	call, err := manager.Initiate(ctx, caller.UserID(), receiver.UserID(), domain.CallTypeVideo)
	assert.NoError(t, err)

	offer := &SignalPayload{RoomID: call.RoomID, SignalType: SignalTypeOffer, Payload: json.RawMessage(validSDP)}
	assert.NoError(t, relay.Relay(ctx, caller.UserID(), offer))

	_, err = manager.Answer(ctx, call.RoomID, receiver.UserID())
	assert.NoError(t, err)

	answer := &SignalPayload{RoomID: call.RoomID, SignalType: SignalTypeAnswer, Payload: json.RawMessage(validSDP)}
	assert.NoError(t, relay.Relay(ctx, receiver.UserID(), answer))

	ended, err := manager.End(ctx, call.RoomID, caller.UserID())
	assert.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, ended.Status)

	// Each party saw exactly the peer's signal
	assert.Equal(t, []string{EventSignal}, caller.receivedTypes())
	assert.Equal(t, []string{EventSignal}, receiver.receivedTypes())
	mockStore.AssertExpectations(t)
}

// A receiver who never connected is rejected before any durable write.
func TestCallToOfflineUser(t *testing.T) {
	mockStore := new(MockCallStore)
	mirror := new(MockPresenceMirror)

	registry := NewRegistry()
	presence := NewPresenceTracker(registry, mirror)
	manager := NewCallManager(mockStore, presence, 45*time.Second)

	caller := newFakeHandle(uuid.New())
	registry.Register(caller)

	_, err := manager.Initiate(context.Background(), caller.UserID(), uuid.New(), domain.CallTypeVoice)

	assert.Equal(t, apperrors.ErrCodeUserUnavailable, apperrors.GetAppError(err).Code)
	mockStore.AssertNotCalled(t, "Create")
	assert.Equal(t, 0, manager.ActiveCount())
}

// An answered call survives its receiver's disconnect as completed and the
// caller's peer lookup afterwards finds nobody.
func TestDisconnectDuringAnsweredCall(t *testing.T) {
	mockStore := new(MockCallStore)
	mirror := new(MockPresenceMirror)

	registry := NewRegistry()
	presence := NewPresenceTracker(registry, mirror)
	manager := NewCallManager(mockStore, presence, 45*time.Second)

	caller := newFakeHandle(uuid.New())
	receiver := newFakeHandle(uuid.New())
	registry.Register(caller)
	registry.Register(receiver)

	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil)
	mockStore.On("MarkAnswered", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)
	mockStore.On("Finish", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.CallStatusCompleted, mock.AnythingOfType("time.Time")).Return(nil)

	ctx := context.Background()

	call, err := manager.Initiate(ctx, caller.UserID(), receiver.UserID(), domain.CallTypeVideo)
	assert.NoError(t, err)
	_, err = manager.Answer(ctx, call.RoomID, receiver.UserID())
	assert.NoError(t, err)

	// Receiver's socket drops
	registry.Unregister(receiver)
	terminated := manager.ForceTerminateForUser(ctx, receiver.UserID())

	assert.Len(t, terminated, 1)
	assert.Equal(t, domain.CallStatusCompleted, terminated[0].Status)
	assert.NotNil(t, terminated[0].EndedAt)
	assert.Equal(t, 0, manager.ActiveCount())
	mockStore.AssertExpectations(t)
}
