// The sweeper binary runs only the background jobs, for deployments
// that separate sweep traffic from the API. The JobExecution guard
// keeps it from double-sweeping alongside an API instance.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/seat-booking-engine/internal/adapters/mongo"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/rabbit"
	"github.com/robertarktes/seat-booking-engine/internal/config"
	"github.com/robertarktes/seat-booking-engine/internal/engine"
	"github.com/robertarktes/seat-booking-engine/internal/jobs"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"github.com/robertarktes/seat-booking-engine/internal/outbox"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("sbe"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	eng := engine.New(repo, audit, engine.SimulatedProvider{}, cfg, logger)

	sched := jobs.NewScheduler(repo, logger)
	sched.Register(jobs.NewLockExpiry(eng, cfg.LockSweepInterval, logger))
	sched.Register(jobs.NewBookingExpiry(repo, audit, cfg.BookingSweepInterval, logger))
	sched.Register(jobs.NewEventRetention(repo, cfg.RetentionGrace, cfg.RetentionSweepInterval, logger))

	jobs.Recover(context.Background(), repo, sched, cfg.JobStaleAfter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	go outbox.NewPublisher(repo, rabbitPub, logger).Run(ctx, cfg.OutboxInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown sweeper")
}
