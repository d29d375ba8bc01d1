package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/backend/internal/student/domain"
	"github.com/attendly/backend/internal/student/repository"
)

type PgStudentRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgStudentRepository(db *pgxpool.Pool, logger *slog.Logger) repository.StudentRepository {
	return &PgStudentRepository{db: db, logger: logger.With("component", "student_repository_pg")}
}

func (r *PgStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	query := `
		SELECT id, owner_id, name, parent_phone, class_name, is_unpaid, created_at, updated_at
		FROM students
		WHERE id = $1
	`
	var st domain.Student
	err := r.db.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.OwnerID, &st.Name, &st.ParentPhone, &st.ClassName, &st.IsUnpaid,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrStudentNotFound
		}
		r.logger.ErrorContext(ctx, "Error fetching student", "error", err, "student_id", id)
		return nil, fmt.Errorf("fetching student %s: %w", id, err)
	}
	return &st, nil
}
