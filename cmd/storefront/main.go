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

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/auth"
	"github.com/andreasstove999/storefront-go/internal/cart"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/chat"
	"github.com/andreasstove999/storefront-go/internal/config"
	"github.com/andreasstove999/storefront-go/internal/contact"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/design"
	"github.com/andreasstove999/storefront-go/internal/events"
	"github.com/andreasstove999/storefront-go/internal/favorites"
	httpapi "github.com/andreasstove999/storefront-go/internal/http"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/andreasstove999/storefront-go/internal/order"
	"github.com/andreasstove999/storefront-go/internal/storage"
	"github.com/andreasstove999/storefront-go/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// a local .env only fills variables the environment does not set
	envFileErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", "storefront"))
	if envFileErr != nil {
		log.Debug(".env not loaded", zap.Error(envFileErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Tracing (optional) ---
	if cfg.Tracing.OTLPEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, "storefront", cfg.Env, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(flushCtx)
		}()
	}

	// --- DB ---
	if cfg.Postgres.RunMigrations {
		if err := db.RunMigrations(cfg.Postgres.DSN, log); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, db.PoolOptions{
		MaxConns:         cfg.Postgres.MaxConns,
		StatementTimeout: cfg.Postgres.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	checks := []httpapi.DependencyCheck{{Name: "postgres", Check: pool.Ping}}

	// --- Catalog (+ optional redis cache) ---
	productRepo := catalog.NewPostgresRepository(pool)
	products := catalog.NewService(productRepo)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer func() { _ = rdb.Close() }()
		products = catalog.NewCachedService(products, catalog.NewRedisCache(rdb), cfg.Redis.CacheTTL, log)
		checks = append(checks, httpapi.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		log.Info("catalog cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// --- Object storage (optional) ---
	var signer storage.Signer
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinioSigner(storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			TTL:       cfg.Storage.SignTTL,
		})
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		signer = ms
	} else {
		log.Warn("object storage not configured, image paths are served unsigned")
	}
	images := storage.NewResolver(signer, log)

	// --- AMQP (optional) ---
	var (
		publisher order.Publisher
		notifier  chat.Notifier
	)
	if cfg.RabbitMQ.URL != "" {
		conn, err := events.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, events.NewSequenceRepository(pool), "storefront")
		if err != nil {
			return fmt.Errorf("start publisher: %w", err)
		}
		defer pub.Close()
		publisher = pub
		notifier = pub
		checks = append(checks, httpapi.DependencyCheck{Name: "rabbitmq", Check: amqpCheck(conn)})
	} else {
		log.Warn("RABBITMQ_URL not set, OrderPlaced and SupportReplyPosted events are not published")
	}

	// --- Services ---
	carts := cart.NewService(pool, cart.NewPostgresRepository(), productRepo, images, log)
	orders := order.NewService(pool, order.NewPostgresRepository(pool), productRepo, publisher, log)
	support := chat.NewService(pool, chat.NewPostgresRepository(pool), notifier, log)
	designs := design.NewService(design.NewPostgresRepository(pool), images, log)
	contacts := contact.NewService(contact.NewPostgresRepository(pool), log)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           log,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		Tokens:           auth.NewIssuer(cfg.Auth.JWTSecret, time.Hour),
		Cart:             carts,
		Orders:           orders,
		Catalog:          products,
		Favorites:        favorites.NewPostgresRepository(pool),
		Files:            images,
		Chat:             support,
		Designs:          designs,
		Contact:          contacts,
		HealthChecks:     checks,
	})

	// --- HTTP ---
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}

func amqpCheck(conn *amqp.Connection) func(context.Context) error {
	return func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}
}
