package domain

import "time"

// Plan is the subscription tier of an academy owner account.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// Account is the billing/usage record for one academy owner.
// SMSSentCount is only meaningful relative to SMSSentPeriod (a UTC "YYYY-MM"
// label); a mismatched label means the count belongs to an earlier month and
// must be treated as zero before any further accounting.
type Account struct {
	ID            string
	AcademyName   string
	Plan          Plan
	SMSSentCount  int
	SMSSentPeriod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
