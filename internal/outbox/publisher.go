package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/rabbit"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

// Publisher drains the transactional outbox to RabbitMQ. Lifecycle
// events are written in the same transaction as the state change
// they describe; this loop makes them eventually visible. Draining
// is idempotent through the per-record dedupe key, so it runs
// unguarded.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	log       observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, log observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, log: log}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Drain(ctx, 50); err != nil {
				p.log.WithError(err).Error("outbox drain failed")
			}
		}
	}
}

func (p *Publisher) Drain(ctx context.Context, limit int) error {
	records, err := p.repo.GetUnpublishedOutbox(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())
	} else {
		observability.OutboxLag.Set(0)
	}

	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.log.WithField("outbox_id", rec.ID).WithError(err).Error("failed to publish outbox record")
			continue
		}
		if err := p.repo.MarkPublished(ctx, rec.ID, time.Now()); err != nil {
			p.log.WithField("outbox_id", rec.ID).WithError(err).Error("failed to mark outbox record published")
		}
	}
	return nil
}
