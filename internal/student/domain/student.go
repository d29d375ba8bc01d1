package domain

import "time"

// Student is the read model the send pipeline needs: the parent's phone
// number plus display fields used in generated copy. Student lifecycle is
// owned by the external CRUD surface, not this service.
type Student struct {
	ID          string
	OwnerID     string
	Name        string
	ParentPhone string
	ClassName   string
	IsUnpaid    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
