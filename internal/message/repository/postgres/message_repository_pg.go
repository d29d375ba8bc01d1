package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/backend/internal/message/domain"
	"github.com/attendly/backend/internal/message/repository"
)

type PgMessageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgMessageRepository(db *pgxpool.Pool, logger *slog.Logger) repository.MessageRepository {
	return &PgMessageRepository{db: db, logger: logger.With("component", "message_repository_pg")}
}

func (r *PgMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (
			id, owner_id, student_id, type, tone, content, status,
			provider_message_id, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.OwnerID, msg.StudentID, msg.Type, msg.Tone, msg.Content, msg.Status,
		msg.ProviderMessageID, msg.ErrorMessage, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating message", "error", err, "message_id", msg.ID)
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (r *PgMessageRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (*domain.Message, error) {
	query := `
		SELECT id, owner_id, student_id, type, tone, content, status,
		       provider_message_id, error_message, created_at, updated_at
		FROM messages
		WHERE id = $1 AND owner_id = $2
	`
	var msg domain.Message
	var studentID, providerMessageID, errorMessage sql.NullString
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&msg.ID, &msg.OwnerID, &studentID, &msg.Type, &msg.Tone, &msg.Content, &msg.Status,
		&providerMessageID, &errorMessage, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrMessageNotFound
		}
		r.logger.ErrorContext(ctx, "Error fetching message", "error", err, "message_id", id)
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	if studentID.Valid {
		msg.StudentID = &studentID.String
	}
	if providerMessageID.Valid {
		msg.ProviderMessageID = &providerMessageID.String
	}
	if errorMessage.Valid {
		msg.ErrorMessage = &errorMessage.String
	}
	return &msg, nil
}

func (r *PgMessageRepository) ClaimForSending(ctx context.Context, id string) error {
	query := `
		UPDATE messages
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusSending, time.Now().UTC(), domain.MessageStatusQueued)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error claiming message for sending", "error", err, "message_id", id)
		return fmt.Errorf("claiming message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAlreadyHandled
	}
	return nil
}

func (r *PgMessageRepository) MarkSent(ctx context.Context, id, providerMessageID string) error {
	query := `
		UPDATE messages
		SET status = $2, provider_message_id = $3, error_message = NULL, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusSent, providerMessageID, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking message sent", "error", err, "message_id", id)
		return fmt.Errorf("marking message %s sent: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrMessageNotFound
	}
	return nil
}

func (r *PgMessageRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE messages
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusFailed, errorMessage, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking message failed", "error", err, "message_id", id)
		return fmt.Errorf("marking message %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrMessageNotFound
	}
	return nil
}

func (r *PgMessageRepository) ResetToQueued(ctx context.Context, id string) error {
	query := `
		UPDATE messages
		SET status = $2, error_message = NULL, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusQueued, time.Now().UTC(), domain.MessageStatusFailed)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error resetting message to queued", "error", err, "message_id", id)
		return fmt.Errorf("resetting message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAlreadyHandled
	}
	return nil
}
