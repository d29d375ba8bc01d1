// Package quota enforces the per-account monthly message cap and the
// per-account request throttle that gate every outbound send.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/attendly/backend/internal/account/domain"
	"github.com/attendly/backend/internal/account/repository"
)

// ErrAccountNotFound mirrors the repository sentinel so callers of the ledger
// do not have to import the repository package.
var ErrAccountNotFound = repository.ErrAccountNotFound

// casRetries bounds how often a reservation retries after losing a
// conditional-update race before giving up.
const casRetries = 3

// QuotaExceededError carries the cap and effective usage so the caller can
// render an actionable message.
type QuotaExceededError struct {
	Cap  int
	Used int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly limit of %d messages exceeded (%d already used)", e.Cap, e.Used)
}

// Limits holds the monthly caps per plan. The two-tier structure is fixed;
// the numbers come from configuration.
type Limits struct {
	Free int
	Pro  int
}

// Ledger atomically reserves monthly send capacity for an account. Capacity
// is consumed before the provider call is attempted and is not refunded when
// the provider later fails.
type Ledger struct {
	accounts repository.AccountRepository
	limits   Limits
	logger   *slog.Logger
	now      func() time.Time
}

func NewLedger(accounts repository.AccountRepository, limits Limits, logger *slog.Logger) *Ledger {
	return &Ledger{
		accounts: accounts,
		limits:   limits,
		logger:   logger.With("component", "quota_ledger"),
		now:      time.Now,
	}
}

// WithClock overrides the ledger's clock; tests use this to pin the period.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CurrentPeriod returns the UTC year-month label for t.
func CurrentPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Reserve checks that n more messages fit under the account's monthly cap and
// records them in a single conditional write. The monthly reset is lazy: a
// stored period label older than the current month zeroes the effective count
// on first access. On QuotaExceededError no state is written.
func (l *Ledger) Reserve(ctx context.Context, accountID string, n int) error {
	if n <= 0 {
		return fmt.Errorf("reservation count must be positive, got %d", n)
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		acct, err := l.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		period := CurrentPeriod(l.now())
		effective := acct.SMSSentCount
		if acct.SMSSentPeriod != period {
			effective = 0
		}

		limit := l.capFor(acct.Plan)
		if effective+n > limit {
			quotaRejectionsTotal.WithLabelValues(string(acct.Plan)).Inc()
			l.logger.InfoContext(ctx, "Quota reservation rejected",
				"account_id", accountID, "requested", n, "used", effective, "cap", limit)
			return &QuotaExceededError{Cap: limit, Used: effective}
		}

		err = l.accounts.CompareAndSetUsage(ctx, accountID,
			acct.SMSSentCount, acct.SMSSentPeriod, effective+n, period)
		if errors.Is(err, repository.ErrUsageConflict) {
			// Someone else reserved between our read and write; re-read and
			// re-check against the cap.
			continue
		}
		if err != nil {
			return err
		}

		quotaReservationsTotal.WithLabelValues(string(acct.Plan)).Inc()
		l.logger.InfoContext(ctx, "Quota reserved",
			"account_id", accountID, "requested", n, "used", effective+n, "cap", limit, "period", period)
		return nil
	}
	return fmt.Errorf("reserving quota for account %s: %w", accountID, repository.ErrUsageConflict)
}

func (l *Ledger) capFor(plan domain.Plan) int {
	if plan == domain.PlanPro {
		return l.limits.Pro
	}
	return l.limits.Free
}
