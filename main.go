package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stripe/stripe-go/v82"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/catalog"
	"ms-boxoffice/internal/catalog/catalog_api"
	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/checkout"
	"ms-boxoffice/internal/checkout/checkout_api"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/database/migrations"
	"ms-boxoffice/internal/fulfillment"
	fulfillment_db "ms-boxoffice/internal/fulfillment/db"
	"ms-boxoffice/internal/fulfillment/fulfillment_api"
	rediswrap "ms-boxoffice/internal/fulfillment/redis"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/mailer"
	"ms-boxoffice/internal/orders"
	orders_db "ms-boxoffice/internal/orders/db"
	"ms-boxoffice/internal/orders/order_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Box Office Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.Options{
		Dir:      getEnv("MIGRATIONS_DIR", "./migrations"),
		SeedData: os.Getenv("SEED_DEMO_DATA") == "true",
	})
	if err := runner.Up(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	logger.Info("DATABASE", "Migrations applied")

	stripe.Key = cfg.Stripe.SecretKey
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("CONFIG", "STRIPE_SECRET_KEY not set, checkout session creation will fail")
	}
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("CONFIG", "STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}

	var producer fulfillment.EventPublisher
	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		producer = kafkaProducer
		defer kafkaProducer.Close()
		logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))
	} else {
		logger.Warn("KAFKA", "Kafka disabled, fulfillment events will not be published")
	}

	var confirmations fulfillment.ConfirmationSender
	if cfg.Email.SMTPUsername != "" {
		confirmations = mailer.New(cfg.Email)
		logger.Info("EMAIL", fmt.Sprintf("SMTP mailer configured via %s:%s", cfg.Email.SMTPHost, cfg.Email.SMTPPort))
	} else {
		logger.Warn("EMAIL", "SMTP_USERNAME not set, confirmation emails disabled")
	}

	catalogService := catalog.NewService(&catalog_db.DB{Bun: bunDB})
	checkoutService := checkout.NewService(&catalog_db.DB{Bun: bunDB}, checkout.StripeSessions{}, cfg.Checkout, logger)
	fulfillmentService := fulfillment.NewService(
		&fulfillment_db.DB{Bun: bunDB},
		rediswrap.NewLock(redisClient),
		confirmations,
		producer,
		cfg.Kafka.Topics.SalesFulfilled,
		logger,
	)
	orderService := &orders.Service{DB: &orders_db.DB{Bun: bunDB}, Logger: logger}

	catalogHandler := &catalog_api.Handler{Catalog: catalogService, Logger: logger}
	checkoutHandler := &checkout_api.Handler{Checkout: checkoutService, Stripe: cfg.Stripe, Logger: logger}
	webhookHandler := &fulfillment_api.Handler{Fulfillment: fulfillmentService, Stripe: cfg.Stripe, Logger: logger}
	orderHandler := &order_api.Handler{Orders: orderService, Logger: logger}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
	}))

	// --- Public Routes ---
	r.Route("/api/boxoffice", func(r chi.Router) {
		r.Get("/events", catalogHandler.ListEvents)
		r.Get("/events/details", catalogHandler.GetEventDetails)
		r.Post("/checkout-session", checkoutHandler.CreateCheckoutSession)
		r.Post("/stripe/webhook", webhookHandler.HandleStripeWebhook)
		r.Post("/order", orderHandler.GetOrder)
		r.Get("/qr/{code}", orderHandler.TicketImage)

		// --- Staff Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.JWTSecret))
			r.Post("/check-in", orderHandler.CheckIn)
		})
	})
	logger.Info("ROUTER", "Box office routes registered under /api/boxoffice")

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := bunDB.PingContext(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Box Office Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Box Office Service shutdown complete")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
