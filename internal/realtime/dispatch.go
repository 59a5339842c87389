package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev, restrict in production
	},
}

// Hub wires the transport to the realtime components. It owns connection
// lifecycle and event routing; all business rules live in the components.
type Hub struct {
	registry *Registry
	presence *PresenceTracker
	calls    *CallManager
	relay    *SignalingRelay
	fanout   *Fanout

	// conversation rooms for typing relay; membership is transient and
	// re-established by clients after reconnect
	roomsMu sync.RWMutex
	rooms   map[uuid.UUID]map[*Client]bool

	conversations ConversationStore
}

// NewHub creates the hub and registers the call-expiry notification hook
func NewHub(registry *Registry, presence *PresenceTracker, calls *CallManager, relay *SignalingRelay, fanout *Fanout, conversations ConversationStore) *Hub {
	h := &Hub{
		registry:      registry,
		presence:      presence,
		calls:         calls,
		relay:         relay,
		fanout:        fanout,
		rooms:         make(map[uuid.UUID]map[*Client]bool),
		conversations: conversations,
	}

	calls.SetOnExpired(h.notifyCallEnded)

	return h
}

// ServeWS upgrades an authenticated HTTP request to a WebSocket connection
// and registers it. Identity comes from the auth middleware; there is no
// in-band register handshake.
func (h *Hub) ServeWS(c *gin.Context) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h, conn, userID)
	h.connect(client)
}

// connect installs the client and runs its pumps
func (h *Hub) connect(client *Client) {
	replaced, online := h.registry.Register(client)
	if replaced != nil {
		replaced.Close()
	}

	if online {
		h.presence.HandleOnline(context.Background(), client.UserID())
	}

	client.Run()
	h.presence.SendRoster(client)

	logger.Info("Client connected",
		zap.String("user_id", client.UserID().String()),
		zap.Int("online_count", h.registry.Count()),
	)
}

// disconnect tears down a client: leave rooms, unregister, announce
// offline, and terminate any call the user was in
func (h *Hub) disconnect(client *Client) {
	h.leaveAllRooms(client)

	if !h.registry.Unregister(client) {
		// A reconnect already replaced this handle; nothing else to do
		return
	}

	ctx := context.Background()
	userID := client.UserID()

	h.presence.HandleOffline(ctx, userID)

	for _, call := range h.calls.ForceTerminateForUser(ctx, userID) {
		h.notifyCallEnded(call)
	}

	logger.Info("Client disconnected",
		zap.String("user_id", userID.String()),
		zap.Int("online_count", h.registry.Count()),
	)
}

// dispatch routes one inbound event. Errors go back to the sender as typed
// error events and never crash the connection.
func (h *Hub) dispatch(client *Client, event Event) {
	ctx := context.Background()

	var err error
	switch event.Event {
	case EventRegister:
		// Identity is established at connect; resend the roster so older
		// clients that wait for a register ack still sync
		h.presence.SendRoster(client)

	case EventHeartbeat:
		h.presence.Heartbeat(ctx, client.UserID())

	case EventJoinConversation:
		err = h.handleJoinConversation(ctx, client, event.Payload)

	case EventLeaveConversation:
		err = h.handleLeaveConversation(client, event.Payload)

	case EventSendMessage:
		err = h.handleSendMessage(ctx, client, event.Payload)

	case EventTyping, EventStopTyping:
		err = h.handleTyping(client, event.Event, event.Payload)

	case EventCallInitiate:
		err = h.handleCallInitiate(ctx, client, event.Payload)

	case EventCallRing:
		err = h.handleCallRing(ctx, client, event.Payload)

	case EventCallAnswer:
		err = h.handleCallAnswer(ctx, client, event.Payload)

	case EventCallReject:
		err = h.handleCallReject(ctx, client, event.Payload)

	case EventCallEnd:
		err = h.handleCallEnd(ctx, client, event.Payload)

	case EventSignal:
		err = h.handleSignal(ctx, client, event.Payload)

	default:
		err = apperrors.InvalidInputError("unknown event type: " + event.Event)
	}

	if err != nil {
		client.Send(NewErrorEvent(err))
	}
}

func (h *Hub) handleCallInitiate(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req CallInitiatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed call_initiate payload")
	}

	call, err := h.calls.Initiate(ctx, client.UserID(), req.ToUserID, req.CallType)
	if err != nil {
		appErr := apperrors.GetAppError(err)
		switch appErr.Code {
		case apperrors.ErrCodeUserUnavailable:
			client.Send(NewEvent(EventUserUnavailable, gin.H{"user_id": req.ToUserID}))
		case apperrors.ErrCodeUserBusy:
			client.Send(NewEvent(EventUserBusy, appErr.Details))
			h.notifyMissedAttempt(ctx, client.UserID(), req.ToUserID)
		}
		return err
	}

	// Caller learns the room; receiver gets the invitation
	client.Send(NewEvent(EventCallInitiated, IncomingCallPayload{
		RoomID:     call.RoomID,
		FromUserID: call.CallerID,
		CallType:   call.CallType,
	}))

	if receiver, ok := h.registry.Lookup(call.ReceiverID); ok {
		receiver.Send(NewEvent(EventIncomingCall, IncomingCallPayload{
			RoomID:     call.RoomID,
			FromUserID: call.CallerID,
			CallType:   call.CallType,
		}))
	}

	return nil
}

func (h *Hub) handleCallRing(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req CallActionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed call_ring payload")
	}

	call, err := h.calls.Ring(ctx, req.RoomID, client.UserID())
	if err != nil {
		return err
	}

	if caller, ok := h.registry.Lookup(call.CallerID); ok {
		caller.Send(NewEvent(EventCallRinging, CallAnsweredPayload{RoomID: call.RoomID}))
	}

	return nil
}

func (h *Hub) handleCallAnswer(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req CallActionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed call_answer payload")
	}

	call, err := h.calls.Answer(ctx, req.RoomID, client.UserID())
	if err != nil {
		return err
	}

	answered := NewEvent(EventCallAnswered, CallAnsweredPayload{RoomID: call.RoomID})
	client.Send(answered)
	if caller, ok := h.registry.Lookup(call.CallerID); ok {
		caller.Send(answered)
	}

	return nil
}

func (h *Hub) handleCallReject(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req CallActionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed call_reject payload")
	}

	call, err := h.calls.Reject(ctx, req.RoomID, client.UserID(), req.Reason)
	if err != nil {
		return err
	}

	rejected := NewEvent(EventCallRejected, CallRejectedPayload{RoomID: call.RoomID, Reason: req.Reason})
	client.Send(rejected)
	if caller, ok := h.registry.Lookup(call.CallerID); ok {
		caller.Send(rejected)
	}

	return nil
}

func (h *Hub) handleCallEnd(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req CallActionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed call_end payload")
	}

	call, err := h.calls.End(ctx, req.RoomID, client.UserID())
	if err != nil {
		return err
	}

	ended := NewEvent(EventCallEnded, CallEndedPayload{
		RoomID:          call.RoomID,
		EndedBy:         client.UserID(),
		Status:          call.Status,
		DurationSeconds: call.DurationSeconds,
	})
	client.Send(ended)
	if peer, ok := h.registry.Lookup(otherParty(call, client.UserID())); ok {
		peer.Send(ended)
	}

	return nil
}

func (h *Hub) handleSignal(ctx context.Context, client *Client, payload json.RawMessage) error {
	var signal SignalPayload
	if err := json.Unmarshal(payload, &signal); err != nil {
		return apperrors.InvalidInputError("malformed signal payload")
	}

	err := h.relay.Relay(ctx, client.UserID(), &signal)
	if err != nil {
		appErr := apperrors.GetAppError(err)
		if appErr.Code == apperrors.ErrCodePeerUnavailable {
			// The room was torn down; tell the sender how the call ended
			if ended, ok := appErr.Details.(CallEndedPayload); ok {
				client.Send(NewEvent(EventCallEnded, ended))
			}
		}
	}
	return err
}

func (h *Hub) handleSendMessage(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed send_message payload")
	}

	message, err := h.fanout.DeliverMessage(ctx, req.ConversationID, client.UserID(), req.Content, req.FileRef)
	if err != nil {
		return err
	}

	// Echo back so the sender learns the assigned message ID
	client.Send(NewEvent(EventNewMessage, NewMessagePayload{
		ConversationID: message.ConversationID,
		MessageID:      message.MessageID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		FileRef:        message.FileRef,
		MessageType:    message.MessageType,
		SentAt:         message.SentAt,
	}))

	return nil
}

func (h *Hub) handleJoinConversation(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req JoinConversationPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed join_conversation payload")
	}

	ok, err := h.conversations.IsParticipant(ctx, req.ConversationID, client.UserID())
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if !ok {
		return apperrors.ForbiddenError("You are not a participant of this conversation")
	}

	h.roomsMu.Lock()
	if h.rooms[req.ConversationID] == nil {
		h.rooms[req.ConversationID] = make(map[*Client]bool)
	}
	h.rooms[req.ConversationID][client] = true
	h.roomsMu.Unlock()

	return nil
}

func (h *Hub) handleLeaveConversation(client *Client, payload json.RawMessage) error {
	var req JoinConversationPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed leave_conversation payload")
	}

	h.roomsMu.Lock()
	if clients, ok := h.rooms[req.ConversationID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, req.ConversationID)
		}
	}
	h.roomsMu.Unlock()

	return nil
}

// handleTyping relays typing indicators to everyone else in the room.
// Ephemeral by design: never persisted, dropped for absent members.
func (h *Hub) handleTyping(client *Client, eventType string, payload json.RawMessage) error {
	var req TypingPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.InvalidInputError("malformed typing payload")
	}
	req.UserID = client.UserID()

	event := NewEvent(eventType, req)

	h.roomsMu.RLock()
	for member := range h.rooms[req.ConversationID] {
		if member == client {
			continue
		}
		member.Send(event)
	}
	h.roomsMu.RUnlock()

	return nil
}

func (h *Hub) leaveAllRooms(client *Client) {
	h.roomsMu.Lock()
	for conversationID, clients := range h.rooms {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	h.roomsMu.Unlock()
}

// notifyCallEnded tells both parties a call reached a terminal state
// outside their own request path (sweeper expiry, peer disconnect)
func (h *Hub) notifyCallEnded(call *domain.Call) {
	ended := NewEvent(EventCallEnded, CallEndedPayload{
		RoomID:          call.RoomID,
		Status:          call.Status,
		DurationSeconds: call.DurationSeconds,
	})

	if caller, ok := h.registry.Lookup(call.CallerID); ok {
		caller.Send(ended)
	}
	if receiver, ok := h.registry.Lookup(call.ReceiverID); ok {
		receiver.Send(ended)
	}
}

// notifyMissedAttempt leaves a low-priority notification for a busy
// receiver so the attempted call is not silently lost
func (h *Hub) notifyMissedAttempt(ctx context.Context, callerID, receiverID uuid.UUID) {
	err := h.fanout.DeliverNotification(ctx, []uuid.UUID{receiverID}, &domain.NotificationCreate{
		Type:  domain.NotificationTypeMissedCall,
		Title: "Missed call",
		Body:  "You received a call while you were busy",
		Data: map[string]interface{}{
			"caller_id": callerID.String(),
		},
	})
	if err != nil {
		logger.Warn("Failed to record missed call attempt",
			zap.String("receiver_id", receiverID.String()),
			zap.Error(err),
		)
	}
}
