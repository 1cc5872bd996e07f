// Command gateway-service runs the orthodontic document generation
// gateway (spec.md §2): it wires configuration, storage, the LLM
// client, and the HTTP surface together and serves
// internal/httpapi.Server.Router() until told to stop.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/smilearc/casegen/internal/config"
	"github.com/smilearc/casegen/internal/coordinator"
	"github.com/smilearc/casegen/internal/httpapi"
	"github.com/smilearc/casegen/pkg/ai/llm"
	"github.com/smilearc/casegen/pkg/audit"
	"github.com/smilearc/casegen/pkg/auth"
	"github.com/smilearc/casegen/pkg/codes"
	"github.com/smilearc/casegen/pkg/confirmation"
	"github.com/smilearc/casegen/pkg/shared/alert"
	"github.com/smilearc/casegen/pkg/shared/metrics"
	"github.com/smilearc/casegen/pkg/storage/pg"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func newID() string { return uuid.NewString() }

func main() {
	logger := newLogger()

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("gateway-service exited")
	}
}

func run(logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A tracer provider with no exporter still produces real spans for
	// pkg/shared/tracing to close over; wiring a collector exporter is
	// an operational concern, not a generation-path one.
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tracerProvider)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracer provider shutdown")
		}
	}()

	settings, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := pg.Open(ctx, settings.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var redisClient *redis.Client
	if settings.RedisURL != "" {
		opts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	auditPolicy := audit.Policy{
		StoreFullAuditData: settings.StoreFullAuditData,
		RedactPHIFields:    settings.RedactPHIFields,
		PHIFieldsToRedact:  settings.PHIFieldsToRedact,
	}
	confirmationPolicy := confirmation.Policy{
		StoreFullAuditData: settings.StoreFullAuditData,
		RedactPHIFields:    settings.RedactPHIFields,
		PHIFieldsToRedact:  settings.PHIFieldsToRedact,
	}

	codesStore := codes.NewSQLStore(pool.SQLX, logger)
	auditStore := audit.NewSQLStore(pool.SQLX, auditPolicy, newID, logger)
	confirmationStore := confirmation.NewSQLStore(pool.SQLX, auditStore, redisClient, confirmationPolicy, newID, logger)

	llmClient, err := llm.NewClientFromSettings(ctx, settings.LLMProvider, settings.OpenAIAPIKey, settings.AWSRegion, settings.RequestTimeout, settings.LLMCircuitBreakerMaxFailures, logger)
	if err != nil {
		return err
	}

	metricsBundle := metrics.NewMetrics()
	alerter := alert.NewNotifier(settings.SlackWebhookURL, settings.SlackAlertChannel, logger)

	coord := &coordinator.Coordinator{
		Codes:    codesStore,
		LLM:      llmClient,
		Audit:    auditStore,
		Settings: settings,
		Metrics:  metricsBundle,
		Alerter:  alerter,
		Logger:   logger,
	}

	authenticator := &auth.Authenticator{
		BypassEnabled: settings.EnableAuthBypass,
		Issuer:        settings.JWTIssuer,
		Audience:      settings.JWTAudience,
		PublicKeyPEM:  settings.JWTPublicKey,
		SecretKey:     settings.SecretKey,
	}

	server := &httpapi.Server{
		Coordinator:   coord,
		Confirmations: confirmationStore,
		Authenticator: authenticator,
		Logger:        logger.WithField("component", "httpapi"),
		CORSOrigins:   settings.CORSOrigins,
		DB:            pool,
		Metrics:       metricsBundle,
	}

	httpServer := &http.Server{
		Addr:         ":" + settings.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  settings.RequestTimeout,
		WriteTimeout: settings.RequestTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("gateway-service listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
