package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	accountPg "github.com/attendly/backend/internal/account/repository/postgres"
	"github.com/attendly/backend/internal/ai"
	"github.com/attendly/backend/internal/auth"
	"github.com/attendly/backend/internal/httpapi"
	messagePg "github.com/attendly/backend/internal/message/repository/postgres"
	"github.com/attendly/backend/internal/payment"
	"github.com/attendly/backend/internal/platform/config"
	"github.com/attendly/backend/internal/platform/database"
	"github.com/attendly/backend/internal/platform/logger"
	"github.com/attendly/backend/internal/quota"
	"github.com/attendly/backend/internal/sms"
	studentPg "github.com/attendly/backend/internal/student/repository/postgres"
)

const serviceName = "console"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Console backend starting...", "port", cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	accountRepo := accountPg.NewPgAccountRepository(dbPool, appLogger)
	messageRepo := messagePg.NewPgMessageRepository(dbPool, appLogger)
	studentRepo := studentPg.NewPgStudentRepository(dbPool, appLogger)

	ledger := quota.NewLedger(accountRepo, quota.Limits{
		Free: cfg.FreeMonthlyLimit,
		Pro:  cfg.ProMonthlyLimit,
	}, appLogger)

	var limiter quota.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLogger.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = quota.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute)
		appLogger.Info("Using Redis-backed rate limiter", "addr", cfg.RedisAddr)
	} else {
		limiter = quota.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
		appLogger.Info("Using in-process rate limiter")
	}

	var tokenVerifier auth.TokenVerifier
	switch cfg.AuthMode {
	case "jwt":
		if cfg.JWTSecret == "" {
			appLogger.Error("AUTH_MODE=jwt requires JWT_SECRET")
			os.Exit(1)
		}
		tokenVerifier = auth.NewJWTVerifier(cfg.JWTSecret)
	default:
		tokenVerifier = auth.NewRemoteVerifier(appLogger, cfg.IdentityURL, cfg.IdentityServiceKey, nil)
	}

	provider := sms.NewTwilioProvider(appLogger, cfg.TwilioAPIBase, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, nil)
	sendService := sms.NewSendService(messageRepo, studentRepo, ledger, limiter, provider, appLogger)

	copywriter := ai.NewOpenAIClient(appLogger, cfg.OpenAIAPIBase, cfg.OpenAIAPIKey, cfg.OpenAIModel, nil)
	generateService := ai.NewGenerateService(copywriter, messageRepo, studentRepo, accountRepo, appLogger)

	webhookService := payment.NewWebhookService(cfg.PolarWebhookSecret, accountRepo, appLogger)
	checkoutClient := payment.NewCheckoutClient(appLogger, cfg.PolarAPIBase, cfg.PolarAccessToken, cfg.PolarProductID, cfg.AppBaseURL, nil)

	apiServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewRouter(httpapi.RouterDeps{
			Logger:         appLogger,
			TokenVerifier:  tokenVerifier,
			SendService:    sendService,
			GenerateSvc:    generateService,
			WebhookService: webhookService,
			CheckoutClient: checkoutClient,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("API server listening", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("Shutdown signal received, draining...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Console backend stopped")
}
