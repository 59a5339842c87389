package cockroach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

// CallRepository handles durable call records
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

// Create inserts a new call record in the initiated state
func (r *CallRepository) Create(ctx context.Context, call *domain.Call) error {
	query := `
		INSERT INTO calls (
			call_id, caller_id, receiver_id, call_type, room_id, status, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		call.CallID,
		call.CallerID,
		call.ReceiverID,
		call.CallType,
		call.RoomID,
		call.Status,
		call.StartedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	return nil
}

// UpdateStatus updates call status for non-terminal transitions
func (r *CallRepository) UpdateStatus(ctx context.Context, callID uuid.UUID, status string) error {
	query := `
		UPDATE calls
		SET status = $2
		WHERE call_id = $1
	`

	_, err := r.pool.Exec(ctx, query, callID, status)
	if err != nil {
		return fmt.Errorf("failed to update call status: %w", err)
	}

	return nil
}

// MarkAnswered records the answer timestamp and moves the call to answered
func (r *CallRepository) MarkAnswered(ctx context.Context, callID uuid.UUID, answeredAt time.Time) error {
	query := `
		UPDATE calls
		SET status = $2, answered_at = $3
		WHERE call_id = $1
	`

	_, err := r.pool.Exec(ctx, query, callID, domain.CallStatusAnswered, answeredAt)
	if err != nil {
		return fmt.Errorf("failed to mark call answered: %w", err)
	}

	return nil
}

// Finish writes a terminal outcome. Duration is computed against answered_at
// so ringing time never counts toward the billed duration. An already-terminal
// row is left untouched so the first end write always stands.
func (r *CallRepository) Finish(ctx context.Context, callID uuid.UUID, status string, endedAt time.Time) error {
	query := `
		UPDATE calls
		SET status = $2,
		    ended_at = $3,
		    duration_seconds = COALESCE(EXTRACT(EPOCH FROM ($3 - answered_at))::INT, 0)
		WHERE call_id = $1
		  AND status NOT IN ('rejected', 'missed', 'completed')
	`

	_, err := r.pool.Exec(ctx, query, callID, status, endedAt)
	if err != nil {
		return fmt.Errorf("failed to finish call: %w", err)
	}

	return nil
}

// GetByID retrieves a call by ID
func (r *CallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	query := `
		SELECT call_id, caller_id, receiver_id, call_type, room_id, status,
		       started_at, answered_at, ended_at, duration_seconds
		FROM calls
		WHERE call_id = $1
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, callID))
}

// GetByRoomID retrieves a call by its room identifier
func (r *CallRepository) GetByRoomID(ctx context.Context, roomID string) (*domain.Call, error) {
	query := `
		SELECT call_id, caller_id, receiver_id, call_type, room_id, status,
		       started_at, answered_at, ended_at, duration_seconds
		FROM calls
		WHERE room_id = $1
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, roomID))
}

func (r *CallRepository) scanOne(row pgx.Row) (*domain.Call, error) {
	call := &domain.Call{}
	err := row.Scan(
		&call.CallID,
		&call.CallerID,
		&call.ReceiverID,
		&call.CallType,
		&call.RoomID,
		&call.Status,
		&call.StartedAt,
		&call.AnsweredAt,
		&call.EndedAt,
		&call.DurationSeconds,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	return call, nil
}

// GetUserCalls retrieves call history for a user, newest first
func (r *CallRepository) GetUserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `
		SELECT call_id, caller_id, receiver_id, call_type, room_id, status,
		       started_at, answered_at, ended_at, duration_seconds
		FROM calls
		WHERE caller_id = $1 OR receiver_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.Call
	for rows.Next() {
		call := &domain.Call{}
		err := rows.Scan(
			&call.CallID,
			&call.CallerID,
			&call.ReceiverID,
			&call.CallType,
			&call.RoomID,
			&call.Status,
			&call.StartedAt,
			&call.AnsweredAt,
			&call.EndedAt,
			&call.DurationSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, call)
	}

	return calls, nil
}
