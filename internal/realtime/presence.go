package realtime

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

// PresenceMirror publishes presence transitions to shared storage so other
// processes can read them. It is advisory: a mirror failure never blocks the
// in-process transition.
type PresenceMirror interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
	RefreshPresence(ctx context.Context, userID uuid.UUID) error
}

// PresenceTracker derives presence from registry transitions. The member
// base is small enough that every transition rebroadcasts the full roster
// instead of diffs; clients just replace their view.
type PresenceTracker struct {
	registry *Registry
	mirror   PresenceMirror
}

// NewPresenceTracker creates a presence tracker
func NewPresenceTracker(registry *Registry, mirror PresenceMirror) *PresenceTracker {
	return &PresenceTracker{
		registry: registry,
		mirror:   mirror,
	}
}

// IsAvailable reports whether a user can receive a call or message right
// now. Backed by the registry today; the seam exists so do-not-disturb can
// hook in without touching callers.
func (t *PresenceTracker) IsAvailable(userID uuid.UUID) bool {
	_, ok := t.registry.Lookup(userID)
	return ok
}

// HandleOnline runs the online side effects after an offline-to-online
// registry transition
func (t *PresenceTracker) HandleOnline(ctx context.Context, userID uuid.UUID) {
	metrics.RealtimePresenceTransitionsTotal.WithLabelValues("online").Inc()

	if err := t.mirror.SetUserOnline(ctx, userID); err != nil {
		logger.Warn("Failed to mirror online presence",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	t.broadcastTransition(userID, true)
}

// HandleOffline runs the offline side effects after an online-to-offline
// registry transition
func (t *PresenceTracker) HandleOffline(ctx context.Context, userID uuid.UUID) {
	metrics.RealtimePresenceTransitionsTotal.WithLabelValues("offline").Inc()

	if err := t.mirror.SetUserOffline(ctx, userID); err != nil {
		logger.Warn("Failed to mirror offline presence",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	t.broadcastTransition(userID, false)
}

// Heartbeat refreshes the presence TTL in the mirror
func (t *PresenceTracker) Heartbeat(ctx context.Context, userID uuid.UUID) {
	if err := t.mirror.RefreshPresence(ctx, userID); err != nil {
		logger.Debug("Failed to refresh presence TTL",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// SendRoster pushes the current online roster to a single handle, used to
// sync a client right after connect
func (t *PresenceTracker) SendRoster(h Handle) {
	h.Send(NewEvent(EventOnlineRoster, OnlineRosterPayload{UserIDs: t.registry.ListOnline()}))
}

// broadcastTransition sends the per-user change plus a full roster snapshot
// to every connected client
func (t *PresenceTracker) broadcastTransition(userID uuid.UUID, online bool) {
	changed := NewEvent(EventPresenceChanged, PresenceChangedPayload{UserID: userID, Online: online})
	roster := NewEvent(EventOnlineRoster, OnlineRosterPayload{UserIDs: t.registry.ListOnline()})

	for _, h := range t.registry.Handles() {
		h.Send(changed)
		h.Send(roster)
	}
}
