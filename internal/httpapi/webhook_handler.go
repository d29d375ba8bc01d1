package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/backend/internal/payment"
	"github.com/attendly/backend/internal/webhook"
)

// maxWebhookBodySize bounds inbound webhook payloads.
const maxWebhookBodySize = 1 << 20

// WebhookHandler receives payment processor events. It always acknowledges
// with 200 so the processor does not retry; rejected events are only logged.
type WebhookHandler struct {
	service *payment.WebhookService
	logger  *slog.Logger
}

func NewWebhookHandler(service *payment.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/polar", h.HandleEvent)
}

func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to read webhook body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Unreadable body")
		return
	}
	defer r.Body.Close()

	headers := webhook.Headers{
		ID:        r.Header.Get(webhook.HeaderID),
		Timestamp: r.Header.Get(webhook.HeaderTimestamp),
		Signature: r.Header.Get(webhook.HeaderSignature),
	}

	if err := h.service.Process(ctx, rawBody, headers); err != nil {
		// The processor retries on non-2xx; a bad event will not get better,
		// so acknowledge and surface the failure through logs and metrics.
		h.logger.WarnContext(ctx, "Webhook event not processed", "error", err)
	}

	respondWithJSON(w, http.StatusOK, WebhookAckDTO{Received: true})
}
