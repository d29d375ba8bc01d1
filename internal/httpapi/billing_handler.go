package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/backend/internal/auth"
	"github.com/attendly/backend/internal/payment"
)

// BillingHandler creates hosted checkout sessions for plan upgrades.
type BillingHandler struct {
	checkout *payment.CheckoutClient
	logger   *slog.Logger
}

func NewBillingHandler(checkout *payment.CheckoutClient, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{checkout: checkout, logger: logger}
}

func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/billing/checkout", h.CreateCheckout)
}

func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	url, err := h.checkout.CreateCheckout(ctx, acct.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Checkout session creation failed", "error", err, "owner_id", acct.ID)
		respondWithError(w, http.StatusBadGateway, "Could not create checkout session")
		return
	}

	respondWithJSON(w, http.StatusOK, CheckoutResponseDTO{URL: url})
}
