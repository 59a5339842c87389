package realtime

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

// MessageStore persists chat messages
type MessageStore interface {
	Save(ctx context.Context, message *domain.Message) error
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.NotificationCreate) (*domain.Notification, error)
}

// ConversationStore resolves conversation membership
type ConversationStore interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	UpdateLastMessage(ctx context.Context, conversationID uuid.UUID, preview string, sentAt time.Time) error
}

// messagePreviewLimit caps the stored last-message preview
const messagePreviewLimit = 120

// Fanout delivers messages and notifications with a durability-first
// contract: every record is persisted before any live push, so an offline
// recipient finds it on next login no matter what. A failed push is logged
// and swallowed; a failed persist aborts the whole delivery.
type Fanout struct {
	registry      *Registry
	messages      MessageStore
	notifications NotificationStore
	conversations ConversationStore
}

// NewFanout creates a fan-out pipeline
func NewFanout(registry *Registry, messages MessageStore, notifications NotificationStore, conversations ConversationStore) *Fanout {
	return &Fanout{
		registry:      registry,
		messages:      messages,
		notifications: notifications,
		conversations: conversations,
	}
}

// DeliverMessage persists a message and fans it out to the conversation's
// participants. The sender must be a participant.
func (f *Fanout) DeliverMessage(ctx context.Context, conversationID, senderID uuid.UUID, content, fileRef string) (*domain.Message, error) {
	ok, err := f.conversations.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !ok {
		return nil, apperrors.ForbiddenError("You are not a participant of this conversation")
	}

	messageType := domain.MessageTypeText
	if fileRef != "" {
		messageType = domain.MessageTypeFile
	}
	if content == "" && fileRef == "" {
		return nil, apperrors.ValidationError("message must have content or a file reference")
	}

	message := &domain.Message{
		ConversationID: conversationID,
		MessageID:      uuid.New(),
		SenderID:       senderID,
		Content:        content,
		FileRef:        fileRef,
		MessageType:    messageType,
		SentAt:         time.Now(),
	}
	message.Bucket = domain.CalculateBucket(message.SentAt)

	participants, err := f.conversations.GetParticipants(ctx, conversationID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	// Durability first: the message row and each recipient's notification
	// row must exist before anyone sees a live push
	if err := f.messages.Save(ctx, message); err != nil {
		metrics.RealtimeFanoutPersistedTotal.WithLabelValues("message", "error").Inc()
		return nil, apperrors.PersistFailureError(err)
	}
	metrics.RealtimeFanoutPersistedTotal.WithLabelValues("message", "ok").Inc()

	saved := make(map[uuid.UUID]*domain.Notification, len(participants))
	for _, recipientID := range participants {
		if recipientID == senderID {
			continue
		}
		notification, err := f.notifications.Create(ctx, &domain.NotificationCreate{
			UserID: recipientID,
			Type:   domain.NotificationTypeMessage,
			Title:  "New message",
			Body:   previewOf(message),
			Data: map[string]interface{}{
				"conversation_id": conversationID.String(),
				"message_id":      message.MessageID.String(),
			},
		})
		if err != nil {
			metrics.RealtimeFanoutPersistedTotal.WithLabelValues("notification", "error").Inc()
			return nil, apperrors.PersistFailureError(err)
		}
		metrics.RealtimeFanoutPersistedTotal.WithLabelValues("notification", "ok").Inc()
		saved[recipientID] = notification
	}

	// Best-effort pointer update; rare staleness here is tolerated over
	// holding a lock across two stores
	if err := f.conversations.UpdateLastMessage(ctx, conversationID, previewOf(message), message.SentAt); err != nil {
		logger.Warn("Failed to update last-message pointer",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
	}

	event := NewEvent(EventNewMessage, NewMessagePayload{
		ConversationID: message.ConversationID,
		MessageID:      message.MessageID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		FileRef:        message.FileRef,
		MessageType:    message.MessageType,
		SentAt:         message.SentAt,
	})

	for _, recipientID := range participants {
		if recipientID == senderID {
			continue
		}
		f.push(recipientID, event, "message")
		if notification, ok := saved[recipientID]; ok {
			f.push(recipientID, NewEvent(EventNotification, notification), "notification")
		}
	}

	return message, nil
}

// DeliverNotification persists a notification per recipient and then pushes
// it to whoever is connected. Same durability contract as messages.
func (f *Fanout) DeliverNotification(ctx context.Context, recipients []uuid.UUID, create *domain.NotificationCreate) error {
	for _, recipientID := range recipients {
		record := *create
		record.UserID = recipientID

		saved, err := f.notifications.Create(ctx, &record)
		if err != nil {
			metrics.RealtimeFanoutPersistedTotal.WithLabelValues("notification", "error").Inc()
			return apperrors.PersistFailureError(err)
		}
		metrics.RealtimeFanoutPersistedTotal.WithLabelValues("notification", "ok").Inc()

		f.push(recipientID, NewEvent(EventNotification, saved), "notification")
	}

	return nil
}

// push delivers to a connected recipient; offline recipients rely on the
// already-persisted record
func (f *Fanout) push(recipientID uuid.UUID, event Event, kind string) {
	h, ok := f.registry.Lookup(recipientID)
	if !ok {
		metrics.RealtimeFanoutDeliveredTotal.WithLabelValues(kind, "offline").Inc()
		return
	}

	if !h.Send(event) {
		logger.Warn("Live push failed, recipient will catch up from storage",
			zap.String("recipient_id", recipientID.String()),
			zap.String("kind", kind),
		)
		return
	}
	metrics.RealtimeFanoutDeliveredTotal.WithLabelValues(kind, "live").Inc()
}

func previewOf(message *domain.Message) string {
	if message.MessageType == domain.MessageTypeFile {
		return "Sent an attachment"
	}
	if len(message.Content) <= messagePreviewLimit {
		return message.Content
	}
	// Back up to a rune boundary so the stored preview stays valid UTF-8
	cut := messagePreviewLimit
	for cut > 0 && !utf8.RuneStart(message.Content[cut]) {
		cut--
	}
	return message.Content[:cut]
}
