package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegisterFirstConnection(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	h := newFakeHandle(userID)

	replaced, online := registry.Register(h)

	assert.Nil(t, replaced)
	assert.True(t, online)
	assert.Equal(t, 1, registry.Count())

	current, ok := registry.Lookup(userID)
	assert.True(t, ok)
	assert.Same(t, h, current.(*fakeHandle))
}

func TestRegisterReplacesExisting(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	first := newFakeHandle(userID)
	second := newFakeHandle(userID)

	registry.Register(first)
	replaced, online := registry.Register(second)

	// The user stayed online throughout, so no presence transition
	assert.Same(t, first, replaced.(*fakeHandle))
	assert.False(t, online)
	assert.Equal(t, 1, registry.Count())

	current, _ := registry.Lookup(userID)
	assert.Same(t, second, current.(*fakeHandle))
}

func TestUnregister(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	h := newFakeHandle(userID)

	registry.Register(h)
	offline := registry.Unregister(h)

	assert.True(t, offline)
	assert.Equal(t, 0, registry.Count())

	_, ok := registry.Lookup(userID)
	assert.False(t, ok)
}

func TestUnregisterStaleHandle(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	old := newFakeHandle(userID)
	replacement := newFakeHandle(userID)

	registry.Register(old)
	registry.Register(replacement)

	// The stale disconnect from the replaced connection must not tear
	// down the new session
	offline := registry.Unregister(old)
	assert.False(t, offline)

	current, ok := registry.Lookup(userID)
	assert.True(t, ok)
	assert.Same(t, replacement, current.(*fakeHandle))
}

func TestUnregisterUnknownUser(t *testing.T) {
	registry := NewRegistry()
	h := newFakeHandle(uuid.New())

	assert.False(t, registry.Unregister(h))
}

func TestListOnline(t *testing.T) {
	registry := NewRegistry()
	alice := newFakeHandle(uuid.New())
	bob := newFakeHandle(uuid.New())

	registry.Register(alice)
	registry.Register(bob)

	online := registry.ListOnline()
	assert.Len(t, online, 2)
	assert.ElementsMatch(t, []uuid.UUID{alice.UserID(), bob.UserID()}, online)
}

func TestHandlesSnapshot(t *testing.T) {
	registry := NewRegistry()
	alice := newFakeHandle(uuid.New())
	bob := newFakeHandle(uuid.New())

	registry.Register(alice)
	registry.Register(bob)

	handles := registry.Handles()
	assert.Len(t, handles, 2)

	// Mutating the registry afterwards must not affect the snapshot
	registry.Unregister(alice)
	assert.Len(t, handles, 2)
	assert.Equal(t, 1, registry.Count())
}
