package repository

import (
	"context"
	"errors"

	"github.com/attendly/backend/internal/student/domain"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentRepository is read-only from this service's point of view.
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Student, error)
}
