package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hammerd/hammerd/internal/adapters/api"
	"github.com/hammerd/hammerd/internal/adapters/cache"
	"github.com/hammerd/hammerd/internal/adapters/database"
	"github.com/hammerd/hammerd/internal/adapters/events"
	"github.com/hammerd/hammerd/internal/adapters/rules"
	"github.com/hammerd/hammerd/internal/domain/auction"
	"github.com/hammerd/hammerd/pkg/auth"
	pkgdb "github.com/hammerd/hammerd/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	dbURL := os.Getenv("AUCTION_DB_URL")
	if dbURL == "" {
		logger.Error("AUCTION_DB_URL is not set")
		os.Exit(1)
	}

	dbConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		logger.Error("Unable to parse database config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("Unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	// 2. Connect RabbitMQ for the outbox relay
	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}

	amqpConn, err := amqp.Dial(rabbitURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	producer, err := events.NewAuctionEventsProducer(pool, amqpConn, logger)
	if err != nil {
		logger.Error("Failed to create events producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	// 3. Connect Redis for the snapshot cache
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Error("REDIS_URL is not set")
		os.Exit(1)
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Redis connection failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Redis Connected")

	// 4. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	auctionRepo := database.NewPostgresAuctionRepository(pool)
	lotRepo := database.NewPostgresLotRepository(pool)
	bidderRepo := database.NewPostgresBidderRepository(pool)
	bidRepo := database.NewPostgresBidRepository(pool)
	saleRepo := database.NewPostgresSaleRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)
	eligibilityRepo := database.NewPostgresEligibilityRepository(pool)

	maxRoster := 0
	if raw := os.Getenv("MAX_ROSTER_SIZE"); raw != "" {
		maxRoster, err = strconv.Atoi(raw)
		if err != nil {
			logger.Error("Invalid MAX_ROSTER_SIZE", "value", raw)
			os.Exit(1)
		}
	}
	rosterRule := &rules.StaticRosterRule{Max: maxRoster}

	// 5. Initialize Engine (Domain Layer)
	engine := auction.NewEngine(
		txManager,
		auctionRepo,
		lotRepo,
		bidderRepo,
		bidRepo,
		saleRepo,
		outboxRepo,
		eligibilityRepo,
		rosterRule,
		logger,
	)

	snapshotCache := cache.NewSnapshotCache(rdb, 24*time.Hour, logger)
	engine.OnSnapshot(snapshotCache.Store)

	// 6. Initialize Auth + API Handler
	publicKeyPEM := os.Getenv("JWT_PUBLIC_KEY")
	if publicKeyPEM == "" {
		logger.Error("JWT_PUBLIC_KEY is not set")
		os.Exit(1)
	}
	signer, err := auth.NewSignerFromPublicKey([]byte(publicKeyPEM), "hammerd")
	if err != nil {
		logger.Error("Failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(engine, bidRepo, eligibilityRepo, logger)

	apiMux := http.NewServeMux()
	handler.Register(apiMux)

	// Health stays outside the auth middleware
	root := http.NewServeMux()
	root.Handle("/v1/", auth.Middleware(signer)(apiMux))
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: root,
	}

	// 7. Run server and outbox relay until shutdown
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Auction API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting Outbox Relay")
		return producer.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Service stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
