package payment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/internal/payment"
)

func TestCheckoutClient_CreateCheckout(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkouts/", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example.com/c/abc"})
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := payment.NewCheckoutClient(logger, server.URL, "token-123", "prod-1", "https://app.example.com", server.Client())

	url, err := client.CreateCheckout(context.Background(), "owner-9")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/c/abc", url)

	assert.Equal(t, []any{"prod-1"}, gotBody["products"])
	assert.Equal(t, "https://app.example.com/app/dashboard?upgraded=true", gotBody["success_url"])
	meta, ok := gotBody["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "owner-9", meta["owner_id"])
}

func TestCheckoutClient_CreateCheckout_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "product not found"})
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := payment.NewCheckoutClient(logger, server.URL, "token-123", "prod-1", "https://app.example.com", server.Client())

	_, err := client.CreateCheckout(context.Background(), "owner-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}
