package memory

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/backend/internal/account/domain"
	"github.com/attendly/backend/internal/account/repository"
)

// InMemAccountRepository is a map-backed AccountRepository used by tests and
// local development. The mutex gives it the same conditional-update semantics
// as the Postgres implementation.
type InMemAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func NewInMemAccountRepository() *InMemAccountRepository {
	return &InMemAccountRepository{accounts: make(map[string]*domain.Account)}
}

// Seed inserts or replaces an account record.
func (r *InMemAccountRepository) Seed(acct *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *acct
	r.accounts[acct.ID] = &cp
}

func (r *InMemAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (r *InMemAccountRepository) UpdatePlan(ctx context.Context, id string, plan domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	acct.Plan = plan
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemAccountRepository) CompareAndSetUsage(ctx context.Context, id string, expectedCount int, expectedPeriod string, newCount int, newPeriod string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	if acct.SMSSentCount != expectedCount || acct.SMSSentPeriod != expectedPeriod {
		return repository.ErrUsageConflict
	}
	acct.SMSSentCount = newCount
	acct.SMSSentPeriod = newPeriod
	acct.UpdatedAt = time.Now().UTC()
	return nil
}
