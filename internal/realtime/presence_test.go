package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestIsAvailable(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)

	userID := uuid.New()
	assert.False(t, tracker.IsAvailable(userID))

	registry.Register(newFakeHandle(userID))
	assert.True(t, tracker.IsAvailable(userID))
}

func TestHandleOnline(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)

	alice := newFakeHandle(uuid.New())
	bob := newFakeHandle(uuid.New())
	registry.Register(alice)
	registry.Register(bob)

	mirror.On("SetUserOnline", mock.Anything, bob.UserID()).Return(nil)

	tracker.HandleOnline(context.Background(), bob.UserID())

	mirror.AssertExpectations(t)

	// Every connected client gets the transition plus a fresh roster
	for _, h := range []*fakeHandle{alice, bob} {
		types := h.receivedTypes()
		assert.Contains(t, types, EventPresenceChanged)
		assert.Contains(t, types, EventOnlineRoster)
	}
}

func TestHandleOnline_MirrorFailureTolerated(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)

	alice := newFakeHandle(uuid.New())
	registry.Register(alice)

	mirror.On("SetUserOnline", mock.Anything, alice.UserID()).Return(errors.New("redis degraded"))

	// The in-process transition and broadcast proceed regardless
	tracker.HandleOnline(context.Background(), alice.UserID())

	assert.Contains(t, alice.receivedTypes(), EventPresenceChanged)
}

func TestHandleOffline(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)

	alice := newFakeHandle(uuid.New())
	departed := uuid.New()
	registry.Register(alice)

	mirror.On("SetUserOffline", mock.Anything, departed).Return(nil)

	tracker.HandleOffline(context.Background(), departed)

	mirror.AssertExpectations(t)
	types := alice.receivedTypes()
	assert.Contains(t, types, EventPresenceChanged)
	assert.Contains(t, types, EventOnlineRoster)
}

func TestHeartbeat(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)
	userID := uuid.New()

	mirror.On("RefreshPresence", mock.Anything, userID).Return(nil)

	tracker.Heartbeat(context.Background(), userID)

	mirror.AssertExpectations(t)
}

func TestSendRoster(t *testing.T) {
	registry := NewRegistry()
	mirror := new(MockPresenceMirror)
	tracker := NewPresenceTracker(registry, mirror)

	alice := newFakeHandle(uuid.New())
	bob := newFakeHandle(uuid.New())
	registry.Register(alice)
	registry.Register(bob)

	tracker.SendRoster(alice)

	events := alice.received()
	assert.Len(t, events, 1)
	assert.Equal(t, EventOnlineRoster, events[0].Event)
}
