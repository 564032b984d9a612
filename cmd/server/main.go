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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/lumini-statio/stackerly-api/internal/adapter/http"
	"github.com/lumini-statio/stackerly-api/internal/adapter/http/handler"
	"github.com/lumini-statio/stackerly-api/internal/adapter/http/middleware"
	memoryRepo "github.com/lumini-statio/stackerly-api/internal/adapter/repository/memory"
	postgresRepo "github.com/lumini-statio/stackerly-api/internal/adapter/repository/postgres"
	redisRepo "github.com/lumini-statio/stackerly-api/internal/adapter/repository/redis"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/auth"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/config"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/eventpublisher"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/logger"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/metrics"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/observability"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/postgres"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/redis"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const rateLimitCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.OTelServiceName,
	})
	log.Logger = logg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal().Err(err).Msg("server failed")
	}
}

// storage is the selected persistence backend.
type storage struct {
	repos     usecase.Repositories
	txManager usecase.TransactionManager
	retrier   usecase.Retrier
	pinger    handler.Pinger
	close     func()
}

func run(ctx context.Context, cfg *config.Config, logg zerolog.Logger) error {
	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.OTelEndpoint,
		ServiceName:    cfg.OTelServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logg.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer store.close()

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		logg.Info().Msg("connected to redis")
	}

	locker := newStoreLocker(cfg, redisClient, logg)
	idGen := postgresRepo.NewULIDGenerator(usecase.SystemClock())

	opts := []usecase.Option{
		usecase.WithStatePolicy(statePolicy(cfg)),
		usecase.WithRetrier(store.retrier),
		usecase.WithObserver(m),
		usecase.WithLogger(logg),
	}
	if redisClient != nil {
		opts = append(opts, usecase.WithBalanceCache(redisRepo.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)))
	}

	storeUC := usecase.NewStoreUseCase(store.txManager, locker, store.repos, idGen, opts...)
	inventoryUC := usecase.NewInventoryUseCase(store.txManager, locker, store.repos, idGen, opts...)
	ledgerUC := usecase.NewLedgerUseCase(store.repos.Stores, store.repos.Ledger)
	reconcileUC := usecase.NewReconciliationUseCase(locker, store.repos.Stores, store.repos.Balances, store.repos.Ledger)

	checks := map[string]handler.Pinger{}
	if store.pinger != nil {
		checks["postgres"] = store.pinger
	}
	routerCfg := httpAdapter.RouterConfig{
		StoreHandler:     handler.NewStoreHandler(storeUC, reconcileUC),
		InventoryHandler: handler.NewInventoryHandler(inventoryUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		Logger:           logg,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsGatherer:  registry,
	}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}
	routerCfg.HealthHandler = handler.NewHealthHandler(checks)

	if cfg.JWTSecret != "" {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		routerCfg.AuthOptional = !cfg.AuthEnabled
		logg.Info().Bool("required", cfg.AuthEnabled).Msg("JWT authentication enabled")
	}

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimit(m.RateLimitHits.Inc)
		go rl.RunCleanup(ctx, rateLimitCleanupInterval)
		routerCfg.RateLimiter = rl
	}

	publisher, closePublisher := newOutboxPublisher(cfg, logg)
	defer closePublisher()

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.repos.Outbox,
		Publisher:  publisher,
		Observer:   m,
		Logger:     logg,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		if err := eventPublisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.StorageDriver).
			Str("lock", cfg.LockDriver).
			Str("version", version).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logg.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-publisherDone

	logg.Info().Msg("server stopped")
	return nil
}

// openStorage connects the configured storage driver.
func openStorage(ctx context.Context, cfg *config.Config, logg zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logg.Warn().Msg("using in-memory storage, data is lost on restart")
		db := memoryRepo.NewDB()
		return &storage{
			repos:     memoryRepo.Repositories(db),
			txManager: memoryRepo.NewTxManager(db),
			retrier:   postgresRepo.NewRetrier(logg),
			close:     func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		migrator := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logg)
		if err := migrator.Up(); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logg.Info().Msg("connected to postgres")

	return &storage{
		repos:     postgresRepo.Repositories(pool),
		txManager: postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout),
		retrier:   postgresRepo.NewRetrier(logg),
		pinger:    pool,
		close:     pool.Close,
	}, nil
}

// newStoreLocker picks the per-store lock. The local lock only excludes
// requests served by this process.
func newStoreLocker(cfg *config.Config, client *goredis.Client, logg zerolog.Logger) usecase.StoreLocker {
	if cfg.LockDriver == config.LockDriverRedis && client != nil {
		return redisRepo.NewStoreLocker(client, cfg.StoreLockWait, cfg.StoreLockExpiry, logg)
	}
	return memoryRepo.NewStoreLocker(cfg.StoreLockWait)
}

// statePolicy locks Delivered items for the configured cooldown.
func statePolicy(cfg *config.Config) *domain.StatePolicy {
	return domain.NewStatePolicy(map[domain.StockState]time.Duration{
		domain.StockStateDelivered: cfg.StateLockCooldown,
	})
}

// newOutboxPublisher publishes to Kafka when brokers are configured and to
// the log otherwise.
func newOutboxPublisher(cfg *config.Config, logg zerolog.Logger) (eventpublisher.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(logg), func() {}
	}

	kp := eventpublisher.NewKafkaPublisher(eventpublisher.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, logg)
	return kp, func() {
		if err := kp.Close(); err != nil {
			logg.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}
}
