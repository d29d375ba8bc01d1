package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken covers every way a caller token can fail verification;
// callers never learn which, and verification always fails closed.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier resolves a bearer token to the account id it belongs to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
