// Package app wires the storefront service together and runs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/catalog"
	"github.com/Kirito-012/Ancient-Health/internal/checkout"
	"github.com/Kirito-012/Ancient-Health/internal/config"
	"github.com/Kirito-012/Ancient-Health/internal/event"
	"github.com/Kirito-012/Ancient-Health/internal/gateway/razorpay"
	"github.com/Kirito-012/Ancient-Health/internal/notify"
	"github.com/Kirito-012/Ancient-Health/internal/orders"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/health"
	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"
	"github.com/Kirito-012/Ancient-Health/pkg/middleware"

	handler "github.com/Kirito-012/Ancient-Health/internal/handler/http"
	pkgkafka "github.com/Kirito-012/Ancient-Health/pkg/kafka"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Credential persistence: Redis when configured, otherwise in-memory.
	var rdb *redis.Client
	var creds session.CredentialStore
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		creds = session.NewRedisCredentialStore(rdb, cfg.SessionTTL)
	} else {
		logger.Warn("no Redis configured, sessions will not survive restarts")
		creds = session.NewMemoryCredentialStore()
	}

	// Outbound HTTP. Mutations run without retries: a failed cart or order
	// call must surface, never be replayed. Catalog reads retry and sit
	// behind a circuit breaker.
	mutationClient := httpclient.New(httpclient.NoRetryConfig(cfg.BackendTimeout))
	catalogClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("backend-catalog"),
		logger,
	)
	backendClient := backend.New(cfg.BackendBaseURL, mutationClient, catalogClient, logger)

	// Optional analytics events.
	var producer *pkgkafka.Producer
	var events *event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewPublisher(producer, cfg.KafkaTopic, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		events = event.NewPublisher(nil, cfg.KafkaTopic, logger)
	}

	// Payment gateway adapter. The script probe shares the retrying client.
	widget := razorpay.New(cfg.GatewayScriptURL, httpclient.New(httpclient.DefaultConfig()), logger)

	notifier := notify.NewHub(logger)
	brand := checkout.Brand{
		Name:       cfg.BrandName,
		ThemeColor: cfg.BrandThemeColor,
		Currency:   cfg.Currency,
	}
	hub := session.NewHub(backendClient, creds, widget, notifier, brand, cfg.SessionIdleTTL, logger)

	viewer := orders.NewViewer(backendClient)
	catalogService := catalog.NewService(backendClient)

	// Health checks.
	healthHandler := health.NewHandler()
	if rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if producer != nil {
		brokers := cfg.KafkaBrokers
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, brokers)
		})
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterDeps{
		Hub:           hub,
		Backend:       backendClient,
		Widget:        widget,
		Viewer:        viewer,
		Catalog:       catalogService,
		Events:        events,
		HealthHandler: healthHandler,
		CORS:          corsCfg,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
