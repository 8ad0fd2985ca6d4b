package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/engine"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"golang.org/x/sync/errgroup"
)

const (
	TypeLockExpiry     = "lock-expiry"
	TypeBookingExpiry  = "booking-expiry"
	TypeEventRetention = "event-retention"

	sweepBatchSize = 500
)

// LockExpiry expires ACTIVE locks past their deadline and restores
// their seats. Per-lock failures are counted, not fatal; each lock
// is its own transaction so one bad row cannot poison the batch.
type LockExpiry struct {
	eng      *engine.Engine
	interval time.Duration
	log      observability.Logger
}

func NewLockExpiry(eng *engine.Engine, interval time.Duration, log observability.Logger) *LockExpiry {
	return &LockExpiry{eng: eng, interval: interval, log: log}
}

func (j *LockExpiry) Type() string            { return TypeLockExpiry }
func (j *LockExpiry) Interval() time.Duration { return j.interval }

func (j *LockExpiry) Run(ctx context.Context) (Result, error) {
	locks, err := j.eng.Repo().ListExpiredLocks(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, lock := range locks {
		if err := j.eng.ReleaseLock(ctx, lock.ID, domain.LockExpired); err != nil {
			res.Errors++
			j.log.WithField("lock_id", lock.ID).WithError(err).Error("failed to expire lock")
			continue
		}
		res.Processed++
	}
	res.Details = fmt.Sprintf("expired %d locks, %d errors", res.Processed, res.Errors)
	return res, nil
}

// BookingExpiry resolves PAYMENT_PENDING bookings whose payment
// window has closed: EXPIRED, refund if an amount was captured, and
// release of the lock if it is still ACTIVE.
type BookingExpiry struct {
	repo     *crdb.Repository
	audit    engine.Auditor
	interval time.Duration
	log      observability.Logger
}

func NewBookingExpiry(repo *crdb.Repository, audit engine.Auditor, interval time.Duration, log observability.Logger) *BookingExpiry {
	return &BookingExpiry{repo: repo, audit: audit, interval: interval, log: log}
}

func (j *BookingExpiry) Type() string            { return TypeBookingExpiry }
func (j *BookingExpiry) Interval() time.Duration { return j.interval }

func (j *BookingExpiry) Run(ctx context.Context) (Result, error) {
	bookings, err := j.repo.ListExpiredBookings(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, booking := range bookings {
		if err := j.expireOne(ctx, booking); err != nil {
			res.Errors++
			j.log.WithField("booking_id", booking.ID).WithError(err).Error("failed to expire booking")
			continue
		}
		res.Processed++
	}
	res.Details = fmt.Sprintf("expired %d bookings, %d errors", res.Processed, res.Errors)
	return res, nil
}

func (j *BookingExpiry) expireOne(ctx context.Context, booking domain.Booking) error {
	var refund int64
	err := j.repo.WithTx(ctx, func(tx pgx.Tx) error {
		// Refund only when an attempt may have captured money. A
		// booking that timed out without any payment attempt owes
		// nothing back.
		captured, err := j.repo.HasCapturedAttempt(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if captured {
			refund = booking.Amount
		}
		if err := j.repo.TransitionBooking(ctx, tx, booking.ID, domain.PaymentPending, domain.Expired, booking.Amount, refund); err != nil {
			return err
		}
		if lock, ok, err := j.repo.ReleaseLock(ctx, tx, booking.SeatLockID, domain.LockExpired); err != nil {
			return err
		} else if ok {
			if err := j.repo.RestoreSeats(ctx, tx, lock.EventID, lock.SeatCount); err != nil {
				return err
			}
			observability.SeatsRestored.Add(float64(lock.SeatCount))
		}
		return j.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("booking", booking.ID, "booking.expired", map[string]interface{}{
			"booking_id":    booking.ID,
			"refund_amount": refund,
		}))
	})
	if err != nil {
		return err
	}

	observability.BookingTransitions.WithLabelValues(string(domain.Expired)).Inc()
	j.audit.Record(ctx, domain.AuditEntry{
		BookingID:  booking.ID,
		EventID:    booking.EventID,
		LockID:     booking.SeatLockID,
		FromStatus: string(domain.PaymentPending),
		ToStatus:   string(domain.Expired),
		Action:     domain.ActionExpired,
		Metadata:   map[string]interface{}{"refund_amount": refund},
	})
	return nil
}

// EventRetention deletes events past the grace period along with
// their bookings and locks. A cascading delete, not a transition.
type EventRetention struct {
	repo     *crdb.Repository
	grace    time.Duration
	interval time.Duration
	log      observability.Logger
}

func NewEventRetention(repo *crdb.Repository, grace, interval time.Duration, log observability.Logger) *EventRetention {
	return &EventRetention{repo: repo, grace: grace, interval: interval, log: log}
}

func (j *EventRetention) Type() string            { return TypeEventRetention }
func (j *EventRetention) Interval() time.Duration { return j.interval }

func (j *EventRetention) Run(ctx context.Context) (Result, error) {
	cutoff := time.Now().Add(-j.grace)
	ids, err := j.repo.ListRetiredEvents(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return Result{}, err
	}

	var res Result
	processed := make(chan uuid.UUID, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := j.repo.WithTx(gctx, func(tx pgx.Tx) error {
				return j.repo.DeleteEventCascade(gctx, tx, id)
			})
			if err != nil {
				j.log.WithField("event_id", id).WithError(err).Error("failed to delete retired event")
				return nil
			}
			processed <- id
			return nil
		})
	}
	g.Wait()
	close(processed)

	for range processed {
		res.Processed++
	}
	res.Errors = len(ids) - res.Processed
	res.Details = fmt.Sprintf("deleted %d events, %d errors", res.Processed, res.Errors)
	return res, nil
}
