package cockroach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
)

// ConversationRepository handles conversation metadata operations
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Create creates a conversation and its two participants atomically
func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation, participants []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (conversation_id, created_by, created_at)
		VALUES ($1, $2, $3)
	`
	_, err = tx.Exec(ctx, query,
		conversation.ConversationID,
		conversation.CreatedBy,
		conversation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	participantQuery := `
		INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`
	for _, userID := range participants {
		_, err = tx.Exec(ctx, participantQuery, conversation.ConversationID, userID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, created_by, created_at, last_message_at, last_message_preview
		FROM conversations
		WHERE conversation_id = $1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ConversationID,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.LastMessageAt,
		&conversation.LastMessagePreview,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("conversation not found")
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

// GetUserConversations retrieves conversations for a user, most recent activity first
func (r *ConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	query := `
		SELECT c.conversation_id, c.created_by, c.created_at, c.last_message_at, c.last_message_preview
		FROM conversations c
		INNER JOIN conversation_participants cp ON c.conversation_id = cp.conversation_id
		WHERE cp.user_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conversation := &domain.Conversation{}
		err := rows.Scan(
			&conversation.ConversationID,
			&conversation.CreatedBy,
			&conversation.CreatedAt,
			&conversation.LastMessageAt,
			&conversation.LastMessagePreview,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

// GetParticipants retrieves all participants in a conversation
func (r *ConversationRepository) GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM conversation_participants WHERE conversation_id = $1
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}

	return participants, nil
}

// IsParticipant checks if a user is a participant in a conversation
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return exists, nil
}

// UpdateLastMessage advances the conversation's last-message pointer
func (r *ConversationRepository) UpdateLastMessage(ctx context.Context, conversationID uuid.UUID, preview string, sentAt time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_at = $2, last_message_preview = $3
		WHERE conversation_id = $1
	`

	_, err := r.pool.Exec(ctx, query, conversationID, sentAt, preview)
	if err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}

	return nil
}
