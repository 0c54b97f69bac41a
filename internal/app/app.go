package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kennytong915/Japan-Ramen-Database/internal/auth"
	"github.com/kennytong915/Japan-Ramen-Database/internal/config"
	"github.com/kennytong915/Japan-Ramen-Database/internal/contentfilter"
	"github.com/kennytong915/Japan-Ramen-Database/internal/event"
	handler "github.com/kennytong915/Japan-Ramen-Database/internal/handler/http"
	"github.com/kennytong915/Japan-Ramen-Database/internal/ratelimit"
	"github.com/kennytong915/Japan-Ramen-Database/internal/repository/postgres"
	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/internal/storage/memory"
	"github.com/kennytong915/Japan-Ramen-Database/migrations"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/database"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/health"
	pkgkafka "github.com/kennytong915/Japan-Ramen-Database/pkg/kafka"
)

// App wires together all dependencies and runs the directory server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	limiter    *ratelimit.Limiter
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "ramen-directory")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the ranking cache. Failure to connect is not fatal: the
	// service falls back to querying PostgreSQL directly.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, ranking cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		logger.Info("connected to Redis", slog.String("host", cfg.RedisHost))
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	commentRepo := postgres.NewCommentRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	restaurantRepo := postgres.NewRestaurantRepository(pool)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
	}
	store := memory.New(baseURL)

	filter := contentfilter.New(logger)
	eventProducer := event.NewProducer(producer, logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryMinutes)*time.Minute)
	limiter := ratelimit.New(cfg.CommentRateLimitCapacity, time.Duration(cfg.CommentRateLimitRefill)*time.Minute, logger)
	logger.Info("rate limiter initialized",
		slog.Int("capacity", limiter.Capacity()),
		slog.String("refill_period", limiter.RefillPeriod().String()),
	)

	commentService := service.NewCommentService(
		commentRepo, userRepo, restaurantRepo, filter, store, eventProducer,
		service.CommentConfig{
			Cooldown:            time.Duration(cfg.CommentCooldownHours) * time.Hour,
			MaxPhotos:           cfg.CommentMaxPhotos,
			AllowedContentTypes: cfg.AllowedContentTypes,
		},
		logger,
	)
	userService := service.NewUserService(userRepo, filter, jwtManager, logger)
	restaurantService := service.NewRestaurantService(restaurantRepo, redisClient, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(
		commentService, userService, restaurantService,
		jwtManager.Validator(), limiter, healthHandler,
		handler.RouterConfig{
			MaxPhotos:         cfg.CommentMaxPhotos,
			PprofEnabled:      cfg.PprofEnabled,
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		},
		logger,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		limiter:    limiter,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.limiter.Close()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
