package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
)

// MessageRepository handles message storage in Cassandra
// Partitioned by (conversation_id, bucket) where bucket is a YYYYMM month,
// so a single conversation never grows an unbounded partition.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message. Messages are immutable once written.
func (r *MessageRepository) Save(ctx context.Context, message *domain.Message) error {
	if message.Bucket == 0 {
		message.Bucket = domain.CalculateBucket(message.SentAt)
	}

	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			conversation_id, bucket, message_id, sender_id, content,
			file_ref, message_type, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		message.ConversationID,
		message.Bucket,
		message.MessageID,
		message.SenderID,
		message.Content,
		message.FileRef,
		message.MessageType,
		message.SentAt,
	).WithContext(ctx).Exec()

	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByConversation retrieves messages for a conversation within one bucket,
// newest first, with cursor-based pagination
func (r *MessageRepository) GetByConversation(
	ctx context.Context,
	conversationID uuid.UUID,
	bucket int,
	limit int,
	pageState []byte,
) ([]*domain.Message, []byte, error) {
	query := `
		SELECT conversation_id, bucket, message_id, sender_id, content,
		       file_ref, message_type, sent_at
		FROM messages
		WHERE conversation_id = ? AND bucket = ?
		ORDER BY sent_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, conversationID, bucket, limit).
		WithContext(ctx).
		PageState(pageState).
		Iter()

	var messages []*domain.Message
	for {
		message := &domain.Message{}
		if !iter.Scan(
			&message.ConversationID,
			&message.Bucket,
			&message.MessageID,
			&message.SenderID,
			&message.Content,
			&message.FileRef,
			&message.MessageType,
			&message.SentAt,
		) {
			break
		}
		messages = append(messages, message)
	}

	nextPageState := iter.PageState()

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nextPageState, nil
}

// GetRecentMessages gets messages from the current month bucket, falling back
// one month when the current bucket has fewer than limit rows
func (r *MessageRepository) GetRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	now := time.Now()
	currentBucket := domain.CalculateBucket(now)

	messages, _, err := r.GetByConversation(ctx, conversationID, currentBucket, limit, nil)
	if err != nil {
		return nil, err
	}

	if len(messages) < limit {
		previousBucket := domain.CalculateBucket(now.AddDate(0, -1, 0))
		older, _, err := r.GetByConversation(ctx, conversationID, previousBucket, limit-len(messages), nil)
		if err != nil {
			return nil, err
		}
		messages = append(messages, older...)
	}

	return messages, nil
}

// GetByID retrieves a specific message
func (r *MessageRepository) GetByID(ctx context.Context, conversationID uuid.UUID, bucket int, messageID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT conversation_id, bucket, message_id, sender_id, content,
		       file_ref, message_type, sent_at
		FROM messages
		WHERE conversation_id = ? AND bucket = ? AND message_id = ?
		LIMIT 1
	`

	message := &domain.Message{}
	err := r.session.Query(query, conversationID, bucket, messageID).WithContext(ctx).Scan(
		&message.ConversationID,
		&message.Bucket,
		&message.MessageID,
		&message.SenderID,
		&message.Content,
		&message.FileRef,
		&message.MessageType,
		&message.SentAt,
	)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("message not found")
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// CalculateBucketsForRange generates bucket list for a time range
func CalculateBucketsForRange(startTime, endTime time.Time) []int {
	var buckets []int

	current := startTime
	for current.Before(endTime) || current.Equal(endTime) {
		buckets = append(buckets, domain.CalculateBucket(current))
		current = current.AddDate(0, 1, 0)
	}

	return buckets
}
