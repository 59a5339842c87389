package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

// CallStore is the durable side of the call lifecycle
type CallStore interface {
	Create(ctx context.Context, call *domain.Call) error
	UpdateStatus(ctx context.Context, callID uuid.UUID, status string) error
	MarkAnswered(ctx context.Context, callID uuid.UUID, answeredAt time.Time) error
	Finish(ctx context.Context, callID uuid.UUID, status string, endedAt time.Time) error
	GetByRoomID(ctx context.Context, roomID string) (*domain.Call, error)
}

// AvailabilityChecker answers whether a user can receive a call right now
type AvailabilityChecker interface {
	IsAvailable(userID uuid.UUID) bool
}

// CallManager owns the in-memory overlay of non-terminal calls and is the
// single authority for state transitions. Transitions for one room are
// linearized under the manager lock; durable writes happen after the
// in-memory transition is decided, never under the lock. Because exactly one
// goroutine wins each terminal transition, exactly one durable end write
// happens per call.
type CallManager struct {
	mu     sync.Mutex
	rooms  map[string]*domain.Call
	byUser map[uuid.UUID]string // user -> roomID of their non-terminal call

	store        CallStore
	availability AvailabilityChecker
	ringTimeout  time.Duration

	// onExpired is invoked outside the lock for every call the sweeper
	// moves to missed, so the hub can notify both parties
	onExpired func(call *domain.Call)
}

// NewCallManager creates a call manager
func NewCallManager(store CallStore, availability AvailabilityChecker, ringTimeout time.Duration) *CallManager {
	return &CallManager{
		rooms:        make(map[string]*domain.Call),
		byUser:       make(map[uuid.UUID]string),
		store:        store,
		availability: availability,
		ringTimeout:  ringTimeout,
	}
}

// SetOnExpired registers the sweeper notification hook
func (m *CallManager) SetOnExpired(fn func(call *domain.Call)) {
	m.onExpired = fn
}

// Initiate starts a call from caller to receiver. The receiver must be
// connected and neither party may already be in a non-terminal call. The
// overlay entry is reserved before the durable write so a concurrent
// initiate cannot double-book either party; a failed durable write releases
// the reservation.
func (m *CallManager) Initiate(ctx context.Context, callerID, receiverID uuid.UUID, callType string) (*domain.Call, error) {
	if !domain.ValidCallType(callType) {
		return nil, apperrors.ValidationError("call_type must be voice or video")
	}
	if callerID == receiverID {
		return nil, apperrors.ValidationError("cannot call yourself")
	}

	// Availability is checked before any durable write so an offline
	// receiver never produces a phantom call row
	if !m.availability.IsAvailable(receiverID) {
		return nil, apperrors.UserUnavailableError()
	}

	now := time.Now()
	call := &domain.Call{
		CallID:     uuid.New(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		CallType:   callType,
		RoomID:     uuid.NewString(),
		Status:     domain.CallStatusInitiated,
		StartedAt:  now,
	}

	m.mu.Lock()
	if roomID, busy := m.byUser[receiverID]; busy {
		peer := m.rooms[roomID]
		m.mu.Unlock()
		err := apperrors.UserBusyError()
		if peer != nil {
			err = err.WithDetails(UserBusyPayload{Peer: otherParty(peer, receiverID)})
		}
		return nil, err
	}
	if _, busy := m.byUser[callerID]; busy {
		m.mu.Unlock()
		return nil, apperrors.UserBusyError()
	}
	m.rooms[call.RoomID] = call
	m.byUser[callerID] = call.RoomID
	m.byUser[receiverID] = call.RoomID
	m.mu.Unlock()

	if err := m.store.Create(ctx, call); err != nil {
		m.release(call)
		return nil, apperrors.PersistFailureError(err)
	}

	metrics.RealtimeCallsActive.Inc()
	logger.Info("Call initiated",
		zap.String("room_id", call.RoomID),
		zap.String("caller_id", callerID.String()),
		zap.String("receiver_id", receiverID.String()),
		zap.String("call_type", callType),
	)

	return call, nil
}

// Ring records the receiver's acknowledgment that the call UI is ringing
func (m *CallManager) Ring(ctx context.Context, roomID string, userID uuid.UUID) (*domain.Call, error) {
	m.mu.Lock()
	call, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.CallNotFoundError()
	}
	if call.ReceiverID != userID {
		m.mu.Unlock()
		return nil, apperrors.NotCallPartyError()
	}
	if call.Status != domain.CallStatusInitiated {
		from := call.Status
		m.mu.Unlock()
		return nil, apperrors.InvalidTransitionError(from, domain.CallStatusRinging)
	}
	call.Status = domain.CallStatusRinging
	snapshot := *call
	m.mu.Unlock()

	// Non-terminal durable update is best-effort; the overlay remains
	// authoritative for ringing calls
	if err := m.store.UpdateStatus(ctx, snapshot.CallID, domain.CallStatusRinging); err != nil {
		logger.Warn("Failed to persist ringing status",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}

	return &snapshot, nil
}

// Answer moves the call to answered. Only the receiver may answer, and only
// from initiated or ringing.
func (m *CallManager) Answer(ctx context.Context, roomID string, userID uuid.UUID) (*domain.Call, error) {
	now := time.Now()

	m.mu.Lock()
	call, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.CallNotFoundError()
	}
	if call.ReceiverID != userID {
		m.mu.Unlock()
		return nil, apperrors.NotCallPartyError()
	}
	if call.Status != domain.CallStatusInitiated && call.Status != domain.CallStatusRinging {
		from := call.Status
		m.mu.Unlock()
		return nil, apperrors.InvalidTransitionError(from, domain.CallStatusAnswered)
	}
	call.Status = domain.CallStatusAnswered
	call.AnsweredAt = &now
	snapshot := *call
	m.mu.Unlock()

	if err := m.store.MarkAnswered(ctx, snapshot.CallID, now); err != nil {
		logger.Error("Failed to persist answered status",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}

	logger.Info("Call answered", zap.String("room_id", roomID))
	return &snapshot, nil
}

// Reject terminates a not-yet-answered call. Receiver only.
func (m *CallManager) Reject(ctx context.Context, roomID string, userID uuid.UUID, reason string) (*domain.Call, error) {
	m.mu.Lock()
	call, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.CallNotFoundError()
	}
	if call.ReceiverID != userID {
		m.mu.Unlock()
		return nil, apperrors.NotCallPartyError()
	}
	if call.Status != domain.CallStatusInitiated && call.Status != domain.CallStatusRinging {
		from := call.Status
		m.mu.Unlock()
		return nil, apperrors.InvalidTransitionError(from, domain.CallStatusRejected)
	}
	m.finalizeLocked(call, domain.CallStatusRejected)
	snapshot := *call
	m.mu.Unlock()

	m.persistEnd(ctx, &snapshot)
	logger.Info("Call rejected",
		zap.String("room_id", roomID),
		zap.String("reason", reason),
	)
	return &snapshot, nil
}

// End terminates a call from any non-terminal state. Either party may end.
// Idempotent: ending an already-terminal call returns the durable record
// without a second end write.
func (m *CallManager) End(ctx context.Context, roomID string, userID uuid.UUID) (*domain.Call, error) {
	m.mu.Lock()
	call, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		// Already terminal (or never existed); the durable record settles it
		existing, err := m.store.GetByRoomID(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if existing.CallerID != userID && existing.ReceiverID != userID {
			return nil, apperrors.NotCallPartyError()
		}
		if !domain.IsTerminalCallStatus(existing.Status) {
			// Restart lost the overlay; repair by finishing durably
			m.finishOrphan(ctx, existing, userID)
		}
		return existing, nil
	}
	if call.CallerID != userID && call.ReceiverID != userID {
		m.mu.Unlock()
		return nil, apperrors.NotCallPartyError()
	}

	outcome := domain.CallStatusMissed
	if call.Status == domain.CallStatusAnswered {
		outcome = domain.CallStatusCompleted
	}
	m.finalizeLocked(call, outcome)
	snapshot := *call
	m.mu.Unlock()

	m.persistEnd(ctx, &snapshot)
	logger.Info("Call ended",
		zap.String("room_id", roomID),
		zap.String("ended_by", userID.String()),
		zap.String("outcome", outcome),
	)
	return &snapshot, nil
}

// ForceTerminateForUser ends whatever non-terminal call the user is in,
// using the same transitions as a normal end. Called on disconnect. Returns
// the terminated calls so the hub can notify surviving peers.
func (m *CallManager) ForceTerminateForUser(ctx context.Context, userID uuid.UUID) []*domain.Call {
	m.mu.Lock()
	roomID, ok := m.byUser[userID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	call := m.rooms[roomID]
	outcome := domain.CallStatusMissed
	if call.Status == domain.CallStatusAnswered {
		outcome = domain.CallStatusCompleted
	}
	m.finalizeLocked(call, outcome)
	snapshot := *call
	m.mu.Unlock()

	m.persistEnd(ctx, &snapshot)
	logger.Info("Call force-terminated on disconnect",
		zap.String("room_id", roomID),
		zap.String("user_id", userID.String()),
	)
	return []*domain.Call{&snapshot}
}

// GetActive returns the overlay entry for a room
func (m *CallManager) GetActive(roomID string) (*domain.Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	snapshot := *call
	return &snapshot, true
}

// ActiveCount returns the number of non-terminal calls
func (m *CallManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// StartSweeper runs the background loop that expires calls stuck in
// initiated or ringing past the ring timeout
func (m *CallManager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

func (m *CallManager) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.ringTimeout)

	m.mu.Lock()
	var expired []*domain.Call
	for _, call := range m.rooms {
		if call.Status != domain.CallStatusInitiated && call.Status != domain.CallStatusRinging {
			continue
		}
		if call.StartedAt.After(cutoff) {
			continue
		}
		m.finalizeLocked(call, domain.CallStatusMissed)
		snapshot := *call
		expired = append(expired, &snapshot)
	}
	m.mu.Unlock()

	for _, call := range expired {
		m.persistEnd(ctx, call)
		metrics.RealtimeCallExpiredTotal.Inc()
		logger.Info("Unanswered call expired to missed", zap.String("room_id", call.RoomID))
		if m.onExpired != nil {
			m.onExpired(call)
		}
	}
}

// finalizeLocked applies a terminal transition in memory and removes the
// overlay entries. Caller holds the lock.
func (m *CallManager) finalizeLocked(call *domain.Call, status string) {
	now := time.Now()
	call.Status = status
	call.EndedAt = &now
	if call.AnsweredAt != nil {
		call.DurationSeconds = int(now.Sub(*call.AnsweredAt).Seconds())
	}
	delete(m.rooms, call.RoomID)
	delete(m.byUser, call.CallerID)
	delete(m.byUser, call.ReceiverID)
}

// persistEnd writes the terminal outcome decided in memory
func (m *CallManager) persistEnd(ctx context.Context, call *domain.Call) {
	metrics.RealtimeCallsActive.Dec()
	metrics.RealtimeCallsTotal.WithLabelValues(call.Status).Inc()

	if err := m.store.Finish(ctx, call.CallID, call.Status, *call.EndedAt); err != nil {
		logger.Error("Failed to persist call end",
			zap.String("room_id", call.RoomID),
			zap.String("status", call.Status),
			zap.Error(err),
		)
	}
}

// finishOrphan settles a durable row whose overlay entry was lost
func (m *CallManager) finishOrphan(ctx context.Context, call *domain.Call, userID uuid.UUID) {
	status := domain.CallStatusMissed
	if call.Status == domain.CallStatusAnswered {
		status = domain.CallStatusCompleted
	}
	now := time.Now()
	call.Status = status
	call.EndedAt = &now
	if err := m.store.Finish(ctx, call.CallID, status, now); err != nil {
		logger.Error("Failed to settle orphaned call",
			zap.String("room_id", call.RoomID),
			zap.Error(err),
		)
	}
}

// release undoes an overlay reservation after a failed durable create
func (m *CallManager) release(call *domain.Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, call.RoomID)
	delete(m.byUser, call.CallerID)
	delete(m.byUser, call.ReceiverID)
}

// otherParty returns the peer of userID in a call
func otherParty(call *domain.Call, userID uuid.UUID) uuid.UUID {
	if call.CallerID == userID {
		return call.ReceiverID
	}
	return call.CallerID
}
