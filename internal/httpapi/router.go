package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/attendly/backend/internal/ai"
	"github.com/attendly/backend/internal/auth"
	"github.com/attendly/backend/internal/payment"
	"github.com/attendly/backend/internal/sms"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Logger         *slog.Logger
	TokenVerifier  auth.TokenVerifier
	SendService    *sms.SendService
	GenerateSvc    *ai.GenerateService
	WebhookService *payment.WebhookService
	CheckoutClient *payment.CheckoutClient
}

// NewRouter assembles the API router. The webhook endpoint is unauthenticated
// (signature-verified instead); everything else under /api requires a bearer
// token.
func NewRouter(deps RouterDeps) http.Handler {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	webhookHandler := NewWebhookHandler(deps.WebhookService, deps.Logger)
	messageHandler := NewMessageHandler(deps.SendService, deps.GenerateSvc, deps.Logger, validate)
	billingHandler := NewBillingHandler(deps.CheckoutClient, deps.Logger)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			webhookHandler.RegisterRoutes(public)
		})

		api.Group(func(private chi.Router) {
			private.Use(auth.Middleware(deps.TokenVerifier, deps.Logger))
			messageHandler.RegisterRoutes(private)
			billingHandler.RegisterRoutes(private)
		})
	})

	return r
}
