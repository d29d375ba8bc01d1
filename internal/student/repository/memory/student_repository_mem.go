package memory

import (
	"context"
	"sync"

	"github.com/attendly/backend/internal/student/domain"
	"github.com/attendly/backend/internal/student/repository"
)

// InMemStudentRepository is a map-backed StudentRepository for tests.
type InMemStudentRepository struct {
	mu       sync.Mutex
	students map[string]*domain.Student
}

func NewInMemStudentRepository() *InMemStudentRepository {
	return &InMemStudentRepository{students: make(map[string]*domain.Student)}
}

func (r *InMemStudentRepository) Seed(st *domain.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *st
	r.students[st.ID] = &cp
}

func (r *InMemStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	cp := *st
	return &cp, nil
}
