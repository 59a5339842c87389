package realtime

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

// SignalingRelay forwards WebRTC signaling frames between the two parties of
// an active call. The payload is opaque: validated for shape, never stored,
// never inspected beyond the required header lines. No buffering or replay;
// ordering is whatever the per-connection FIFO provides.
type SignalingRelay struct {
	calls    *CallManager
	registry *Registry
}

// NewSignalingRelay creates a signaling relay
func NewSignalingRelay(calls *CallManager, registry *Registry) *SignalingRelay {
	return &SignalingRelay{
		calls:    calls,
		registry: registry,
	}
}

// Relay validates and forwards one signaling frame to the sender's peer.
// A vanished peer terminates the call through the normal disconnect path
// so the room never lingers half-dead.
func (r *SignalingRelay) Relay(ctx context.Context, fromUserID uuid.UUID, signal *SignalPayload) error {
	if err := signal.Validate(); err != nil {
		metrics.RealtimeSignalsRelayedTotal.WithLabelValues(signal.SignalType, "invalid").Inc()
		return err
	}

	call, ok := r.calls.GetActive(signal.RoomID)
	if !ok {
		metrics.RealtimeSignalsRelayedTotal.WithLabelValues(signal.SignalType, "not_found").Inc()
		return apperrors.CallNotFoundError()
	}

	if call.CallerID != fromUserID && call.ReceiverID != fromUserID {
		metrics.RealtimeSignalsRelayedTotal.WithLabelValues(signal.SignalType, "unauthorized").Inc()
		logger.Warn("Signal from non-party rejected",
			zap.String("room_id", signal.RoomID),
			zap.String("from_user_id", fromUserID.String()),
		)
		return apperrors.NotCallPartyError()
	}

	peerID := otherParty(call, fromUserID)
	peer, ok := r.registry.Lookup(peerID)
	if !ok {
		metrics.RealtimeSignalsRelayedTotal.WithLabelValues(signal.SignalType, "peer_gone").Inc()
		err := apperrors.PeerUnavailableError()
		// Surface the terminal outcome so the transport can tell the
		// sender how the call actually ended
		if terminated := r.calls.ForceTerminateForUser(ctx, peerID); len(terminated) > 0 {
			err = err.WithDetails(CallEndedPayload{
				RoomID:          terminated[0].RoomID,
				Status:          terminated[0].Status,
				DurationSeconds: terminated[0].DurationSeconds,
			})
		}
		return err
	}

	signal.From = fromUserID
	peer.Send(NewEvent(EventSignal, signal))
	metrics.RealtimeSignalsRelayedTotal.WithLabelValues(signal.SignalType, "ok").Inc()

	return nil
}
