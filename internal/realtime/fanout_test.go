package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

type fanoutFixture struct {
	fanout        *Fanout
	registry      *Registry
	messages      *MockMessageStore
	notifications *MockNotificationStore
	conversations *MockConversationStore
}

func newFanoutFixture() *fanoutFixture {
	registry := NewRegistry()
	messages := new(MockMessageStore)
	notifications := new(MockNotificationStore)
	conversations := new(MockConversationStore)

	return &fanoutFixture{
		fanout:        NewFanout(registry, messages, notifications, conversations),
		registry:      registry,
		messages:      messages,
		notifications: notifications,
		conversations: conversations,
	}
}

func TestDeliverMessage(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	recipientID := uuid.New()

	sender := newFakeHandle(senderID)
	recipient := newFakeHandle(recipientID)
	f.registry.Register(sender)
	f.registry.Register(recipient)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID, recipientID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, "hello there", mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.AnythingOfType("*domain.NotificationCreate")).Return(&domain.Notification{NotificationID: uuid.New()}, nil)

	message, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hello there", "")

	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, domain.MessageTypeText, message.MessageType)
	assert.Equal(t, domain.CalculateBucket(message.SentAt), message.Bucket)

	// The recipient gets the message plus its notification record; the hub
	// echoes to the sender itself
	events := recipient.received()
	assert.Len(t, events, 2)
	assert.Equal(t, EventNewMessage, events[0].Event)
	assert.Equal(t, EventNotification, events[1].Event)
	assert.Empty(t, sender.received())

	var payload NewMessagePayload
	assert.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, message.MessageID, payload.MessageID)
	assert.Equal(t, "hello there", payload.Content)

	f.messages.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
}

func TestDeliverMessage_NotParticipant(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(false, nil)

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetAppError(err).Code)
	f.messages.AssertNotCalled(t, "Save")
}

func TestDeliverMessage_EmptyBody(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "", "")

	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	f.messages.AssertNotCalled(t, "Save")
}

func TestDeliverMessage_FileAttachment(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, "Sent an attachment", mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	message, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "", "attachments/a/b/photo.jpg")

	assert.NoError(t, err)
	assert.Equal(t, domain.MessageTypeFile, message.MessageType)
	f.conversations.AssertExpectations(t)
}

func TestDeliverMessage_PersistFailureAborts(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	recipientID := uuid.New()

	recipient := newFakeHandle(recipientID)
	f.registry.Register(recipient)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID, recipientID}, nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(errors.New("cassandra down"))

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.Equal(t, apperrors.ErrCodePersistFailure, apperrors.GetAppError(err).Code)
	// Nothing may reach a live connection when durability failed
	assert.Empty(t, recipient.received())
	f.notifications.AssertNotCalled(t, "Create")
}

func TestDeliverMessage_NotificationFailureAborts(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	recipientID := uuid.New()

	recipient := newFakeHandle(recipientID)
	f.registry.Register(recipient)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID, recipientID}, nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.AnythingOfType("*domain.NotificationCreate")).Return(nil, errors.New("db down"))

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.Equal(t, apperrors.ErrCodePersistFailure, apperrors.GetAppError(err).Code)
	assert.Empty(t, recipient.received())
}

func TestDeliverMessage_OfflineRecipient(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	offlineID := uuid.New()

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID, offlineID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.AnythingOfType("*domain.NotificationCreate")).Return(&domain.Notification{NotificationID: uuid.New()}, nil)

	// Offline recipients rely on the persisted message and notification
	message, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.NoError(t, err)
	assert.NotNil(t, message)
	f.notifications.AssertNumberOfCalls(t, "Create", 1)
}

func TestDeliverMessage_LastMessageFailureTolerated(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(errors.New("write timeout"))
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.NoError(t, err)
}

func TestDeliverMessage_PreviewTruncated(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	content := strings.Repeat("a", 500)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, mock.MatchedBy(func(preview string) bool {
		return len(preview) == messagePreviewLimit
	}), mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, content, "")

	assert.NoError(t, err)
	f.conversations.AssertExpectations(t)
}

func TestDeliverMessage_PreviewKeepsRunesIntact(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()

	// One leading ASCII byte pushes the three-byte runes off the byte
	// limit, so a naive byte slice would split one in half
	content := "a" + strings.Repeat("愛", 50)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, mock.MatchedBy(func(preview string) bool {
		return len(preview) <= messagePreviewLimit && utf8.ValidString(preview)
	}), mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	_, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, content, "")

	assert.NoError(t, err)
	f.conversations.AssertExpectations(t)
}

func TestDeliverNotification(t *testing.T) {
	f := newFanoutFixture()
	onlineID := uuid.New()
	offlineID := uuid.New()

	online := newFakeHandle(onlineID)
	f.registry.Register(online)

	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.NotificationCreate) bool {
		return n.UserID == onlineID || n.UserID == offlineID
	})).Return(&domain.Notification{NotificationID: uuid.New()}, nil)

	err := f.fanout.DeliverNotification(context.Background(), []uuid.UUID{onlineID, offlineID}, &domain.NotificationCreate{
		Type:  domain.NotificationTypeMissedCall,
		Title: "Missed call",
		Body:  "You missed a call",
	})

	assert.NoError(t, err)
	// Both rows persisted; only the connected recipient got a push
	f.notifications.AssertNumberOfCalls(t, "Create", 2)
	events := online.received()
	assert.Len(t, events, 1)
	assert.Equal(t, EventNotification, events[0].Event)
}

func TestDeliverNotification_PersistFailureAborts(t *testing.T) {
	f := newFanoutFixture()
	recipientID := uuid.New()

	recipient := newFakeHandle(recipientID)
	f.registry.Register(recipient)

	f.notifications.On("Create", mock.Anything, mock.AnythingOfType("*domain.NotificationCreate")).Return(nil, errors.New("db down"))

	err := f.fanout.DeliverNotification(context.Background(), []uuid.UUID{recipientID}, &domain.NotificationCreate{
		Type:  domain.NotificationTypeSystem,
		Title: "Welcome",
	})

	assert.Equal(t, apperrors.ErrCodePersistFailure, apperrors.GetAppError(err).Code)
	assert.Empty(t, recipient.received())
}

func TestDeliverMessage_PushFailureSwallowed(t *testing.T) {
	f := newFanoutFixture()
	conversationID := uuid.New()
	senderID := uuid.New()
	recipientID := uuid.New()

	recipient := newFakeHandle(recipientID)
	recipient.sendOK = false // egress buffer full
	f.registry.Register(recipient)

	f.conversations.On("IsParticipant", mock.Anything, conversationID, senderID).Return(true, nil)
	f.conversations.On("GetParticipants", mock.Anything, conversationID).Return([]uuid.UUID{senderID, recipientID}, nil)
	f.conversations.On("UpdateLastMessage", mock.Anything, conversationID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.messages.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.AnythingOfType("*domain.NotificationCreate")).Return(&domain.Notification{NotificationID: uuid.New()}, nil)

	// A failed live push is not an error; storage already has the record
	message, err := f.fanout.DeliverMessage(context.Background(), conversationID, senderID, "hi", "")

	assert.NoError(t, err)
	assert.NotNil(t, message)
}
