package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/ShivaNagula00/toddy-orders/internal/di"
	"github.com/ShivaNagula00/toddy-orders/internal/geocode"
	"github.com/ShivaNagula00/toddy-orders/internal/handlers"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/auth"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/config"
	pfirestore "github.com/ShivaNagula00/toddy-orders/internal/platform/firestore"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/idempotency"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/jobs"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/observability"
	firestoreRepo "github.com/ShivaNagula00/toddy-orders/internal/repositories/firestore"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	publisher, stopPublisher, err := newOrderEventPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise order event publisher", zap.Error(err))
	}
	defer stopPublisher()

	containerOpts := []di.ContainerOption{di.WithLogger(logger)}
	if publisher != nil {
		containerOpts = append(containerOpts, di.WithEventPublisher(publisher))
	}
	container, err := di.NewContainer(ctx, cfg, registry, containerOpts...)
	if err != nil {
		logger.Fatal("failed to assemble services", zap.Error(err))
	}

	geocoder := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithUserAgent(cfg.Geocoder.UserAgent),
		geocode.WithLogger(logger.Named("geocode")),
	)

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	publicHandlers := handlers.NewPublicHandlers(
		container.Services.Settings,
		container.Services.Pricing,
		geocoder,
		handlers.WithShopContact(cfg.Shop.Address, cfg.Shop.Phone),
	)
	orderHandlers := handlers.NewOrderHandlers(container.Services.Orders)
	authHandlers := handlers.NewAuthHandlers(
		container.Services.Settings,
		handlers.WithLoginRateLimit(10, time.Minute, time.Now),
	)
	adminHandlers := handlers.NewAdminHandlers(container.Services.Orders, container.Services.Settings)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthSystemService(container.Services.System),
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithHealthEnvironment(cfg.Observability.Environment),
	)

	projectID := cfg.Firestore.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithOrderMiddlewares(idempotencyMiddleware),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithAdminMiddlewares(auth.RequireOwner(container.Sessions)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("toddy orders api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if err := container.Close(shutdownCtx); err != nil {
		logger.Warn("container close error", zap.Error(err))
	}
}

// newOrderEventPublisher wires the Pub/Sub order event topic when configured.
// An empty topic disables publishing entirely.
func newOrderEventPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.OrderEventPublisher, func(), error) {
	noop := func() {}
	if cfg.Pubsub.ProjectID == "" || cfg.Pubsub.Topic == "" {
		logger.Info("order event publishing disabled")
		return nil, noop, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.Pubsub.ProjectID)
	if err != nil {
		return nil, noop, fmt.Errorf("pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Pubsub.Topic)
	publisher, err := jobs.NewPubSubOrderEventPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, noop, err
	}

	stop := func() {
		topic.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
	return publisher, stop, nil
}
