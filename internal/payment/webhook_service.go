package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	accountDomain "github.com/attendly/backend/internal/account/domain"
	accountRepo "github.com/attendly/backend/internal/account/repository"
	"github.com/attendly/backend/internal/webhook"
)

// WebhookService verifies inbound payment events and applies plan upgrades.
// Errors from Process are for logging only: the HTTP endpoint acknowledges
// every request after the verification attempt so the processor does not
// enter a retry storm.
type WebhookService struct {
	secret   string
	accounts accountRepo.AccountRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewWebhookService(secret string, accounts accountRepo.AccountRepository, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		secret:   secret,
		accounts: accounts,
		logger:   logger.With("service", "payment_webhook"),
		now:      time.Now,
	}
}

// WithClock overrides the verification clock for tests.
func (s *WebhookService) WithClock(now func() time.Time) *WebhookService {
	s.now = now
	return s
}

// Process authenticates the event and, for verified upgrade events, sets the
// owner's plan to PRO. An unverifiable event stops here: no parsing, no
// state change.
func (s *WebhookService) Process(ctx context.Context, rawBody []byte, h webhook.Headers) error {
	if err := webhook.Verify(rawBody, h, s.secret, s.now().UTC()); err != nil {
		webhookEventsTotal.WithLabelValues("rejected").Inc()
		s.logger.WarnContext(ctx, "Webhook signature rejected",
			"error", err, "webhook_id", h.ID, "timestamp", h.Timestamp)
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}
	webhookEventsTotal.WithLabelValues("verified").Inc()

	event, err := ParseEvent(rawBody)
	if err != nil {
		s.logger.ErrorContext(ctx, "Webhook body is not valid JSON", "error", err, "webhook_id", h.ID)
		return fmt.Errorf("parsing webhook event: %w", err)
	}
	s.logger.InfoContext(ctx, "Payment webhook verified", "event_type", event.Type, "webhook_id", h.ID)

	if !event.IsUpgrade() {
		return nil
	}
	ownerID := event.OwnerID()
	if ownerID == "" {
		s.logger.WarnContext(ctx, "Upgrade event without owner metadata", "event_type", event.Type, "webhook_id", h.ID)
		return nil
	}

	if err := s.accounts.UpdatePlan(ctx, ownerID, accountDomain.PlanPro); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upgrade account plan",
			"error", err, "account_id", ownerID, "event_type", event.Type)
		return fmt.Errorf("upgrading account %s: %w", ownerID, err)
	}

	planUpgradesTotal.Inc()
	s.logger.InfoContext(ctx, "Account upgraded to PRO", "account_id", ownerID, "event_type", event.Type)
	return nil
}
