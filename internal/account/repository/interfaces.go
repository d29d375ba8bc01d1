package repository

import (
	"context"
	"errors"

	"github.com/attendly/backend/internal/account/domain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsageConflict signals that a conditional usage update lost a race:
	// the stored count/period no longer match what the caller read.
	ErrUsageConflict = errors.New("account usage changed concurrently")
)

// AccountRepository provides access to account records. The usage write path
// is a compare-and-swap so that quota reservations stay correct across
// concurrent requests and independent processes.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// UpdatePlan sets the subscription tier only.
	UpdatePlan(ctx context.Context, id string, plan domain.Plan) error

	// CompareAndSetUsage writes newCount/newPeriod in a single update, but only
	// if the stored values still equal expectedCount/expectedPeriod. Returns
	// ErrUsageConflict when the precondition fails and ErrAccountNotFound when
	// the account does not exist.
	CompareAndSetUsage(ctx context.Context, id string, expectedCount int, expectedPeriod string, newCount int, newPeriod string) error
}
