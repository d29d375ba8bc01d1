package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/backend/internal/account/domain"
	"github.com/attendly/backend/internal/account/repository"
)

type PgAccountRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgAccountRepository(db *pgxpool.Pool, logger *slog.Logger) repository.AccountRepository {
	return &PgAccountRepository{db: db, logger: logger.With("component", "account_repository_pg")}
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, COALESCE(academy_name, ''), plan, sms_sent_count, sms_sent_period, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var acct domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&acct.ID, &acct.AcademyName, &acct.Plan, &acct.SMSSentCount, &acct.SMSSentPeriod,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrAccountNotFound
		}
		r.logger.ErrorContext(ctx, "Error fetching account", "error", err, "account_id", id)
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	return &acct, nil
}

func (r *PgAccountRepository) UpdatePlan(ctx context.Context, id string, plan domain.Plan) error {
	query := `UPDATE accounts SET plan = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, plan, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating account plan", "error", err, "account_id", id)
		return fmt.Errorf("updating plan for account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAccountNotFound
	}
	r.logger.InfoContext(ctx, "Account plan updated", "account_id", id, "plan", plan)
	return nil
}

// CompareAndSetUsage is the single write path for quota accounting. The WHERE
// clause carries the expected count/period so two concurrent reservations can
// never both succeed off the same snapshot.
func (r *PgAccountRepository) CompareAndSetUsage(ctx context.Context, id string, expectedCount int, expectedPeriod string, newCount int, newPeriod string) error {
	query := `
		UPDATE accounts
		SET sms_sent_count = $4, sms_sent_period = $5, updated_at = $6
		WHERE id = $1 AND sms_sent_count = $2 AND sms_sent_period = $3
	`
	tag, err := r.db.Exec(ctx, query, id, expectedCount, expectedPeriod, newCount, newPeriod, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating account usage", "error", err, "account_id", id)
		return fmt.Errorf("updating usage for account %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either the account is gone or the snapshot is stale.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking account %s after usage conflict: %w", id, err)
	}
	if !exists {
		return repository.ErrAccountNotFound
	}
	return repository.ErrUsageConflict
}
