package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/seat-booking-engine/internal/adapters/mongo"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/seat-booking-engine/internal/adapters/redis"
	"github.com/robertarktes/seat-booking-engine/internal/config"
	"github.com/robertarktes/seat-booking-engine/internal/engine"
	httphandler "github.com/robertarktes/seat-booking-engine/internal/http"
	"github.com/robertarktes/seat-booking-engine/internal/idempotency"
	"github.com/robertarktes/seat-booking-engine/internal/jobs"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"github.com/robertarktes/seat-booking-engine/internal/outbox"
	"github.com/robertarktes/seat-booking-engine/internal/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	if err := crdb.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database("sbe")
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)
	catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := ratelimit.NewRateLimiter(redisClient)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	provider, err := selectProvider(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure payment provider: %v", err)
	}
	eng := engine.New(repo, audit, provider, cfg, logger)

	sched := jobs.NewScheduler(repo, logger)
	sched.Register(jobs.NewLockExpiry(eng, cfg.LockSweepInterval, logger))
	sched.Register(jobs.NewBookingExpiry(repo, audit, cfg.BookingSweepInterval, logger))
	sched.Register(jobs.NewEventRetention(repo, cfg.RetentionGrace, cfg.RetentionSweepInterval, logger))

	// Repair crash leftovers before accepting traffic.
	jobs.Recover(context.Background(), repo, sched, cfg.JobStaleAfter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	outboxPub := outbox.NewPublisher(repo, rabbitPub, logger)
	go outboxPub.Run(ctx, cfg.OutboxInterval)

	handlers := httphandler.NewHandlers(eng, sched, idemp, catalog, logger)
	r := httphandler.SetupRouter(handlers, logger, rl, idemp)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	logger.WithField("addr", cfg.HTTPAddr).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}

func selectProvider(cfg *config.Config, logger observability.Logger) (engine.PaymentProvider, error) {
	if cfg.PaymentProvider == "stripe" {
		return engine.NewStripeProvider(cfg.StripeKey, logger)
	}
	return engine.SimulatedProvider{}, nil
}
