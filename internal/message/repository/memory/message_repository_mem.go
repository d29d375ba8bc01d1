package memory

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/backend/internal/message/domain"
	"github.com/attendly/backend/internal/message/repository"
)

// InMemMessageRepository is a map-backed MessageRepository for tests and
// local development.
type InMemMessageRepository struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
}

func NewInMemMessageRepository() *InMemMessageRepository {
	return &InMemMessageRepository{messages: make(map[string]*domain.Message)}
}

// Seed inserts or replaces a message record.
func (r *InMemMessageRepository) Seed(msg *domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
}

func (r *InMemMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *InMemMessageRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.OwnerID != ownerID {
		return nil, repository.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

func (r *InMemMessageRepository) ClaimForSending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.Status != domain.MessageStatusQueued {
		return repository.ErrAlreadyHandled
	}
	msg.Status = domain.MessageStatusSending
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemMessageRepository) MarkSent(ctx context.Context, id, providerMessageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	msg.Status = domain.MessageStatusSent
	msg.ProviderMessageID = &providerMessageID
	msg.ErrorMessage = nil
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemMessageRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	msg.Status = domain.MessageStatusFailed
	msg.ErrorMessage = &errorMessage
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemMessageRepository) ResetToQueued(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.Status != domain.MessageStatusFailed {
		return repository.ErrAlreadyHandled
	}
	msg.Status = domain.MessageStatusQueued
	msg.ErrorMessage = nil
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

// GetAny returns the stored record regardless of owner; test helper.
func (r *InMemMessageRepository) GetAny(id string) (*domain.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, false
	}
	cp := *msg
	return &cp, true
}

// Len reports how many records are stored; test helper.
func (r *InMemMessageRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
