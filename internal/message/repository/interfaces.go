package repository

import (
	"context"
	"errors"

	"github.com/attendly/backend/internal/message/domain"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	// ErrAlreadyHandled means a claim found the message no longer queued;
	// some other request owns (or finished) the send attempt.
	ErrAlreadyHandled = errors.New("message already handled")
)

// MessageRepository persists outbound message records.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error

	// GetByIDForOwner scopes the lookup to the owning account.
	GetByIDForOwner(ctx context.Context, id, ownerID string) (*domain.Message, error)

	// ClaimForSending transitions queued -> sending conditionally. Zero rows
	// affected maps to ErrAlreadyHandled; that is the double-send guard, not
	// an in-process lock.
	ClaimForSending(ctx context.Context, id string) error

	// MarkSent records the provider delivery id and clears any previous error.
	MarkSent(ctx context.Context, id, providerMessageID string) error

	// MarkFailed records the provider error for inspection and manual retry.
	MarkFailed(ctx context.Context, id, errorMessage string) error

	// ResetToQueued makes a failed message retriable.
	ResetToQueued(ctx context.Context, id string) error
}
