package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticVerifier struct {
	accountID string
	err       error
}

func (v staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return v.accountID, v.err
}

func TestMiddleware_InjectsAccount(t *testing.T) {
	var got AuthenticatedAccount
	var found bool
	handler := Middleware(staticVerifier{accountID: "acct-1"}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, found = AccountFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/send", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, "acct-1", got.ID)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	called := false
	handler := Middleware(staticVerifier{accountID: "acct-1"}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/send", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestMiddleware_NonBearerScheme(t *testing.T) {
	handler := Middleware(staticVerifier{accountID: "acct-1"}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/send", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_VerifierRejects(t *testing.T) {
	called := false
	handler := Middleware(staticVerifier{err: ErrInvalidToken}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/send", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
