package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

type CreateLockInput struct {
	EventID        uuid.UUID
	RequesterID    uuid.UUID
	SeatCount      int
	IdempotencyKey string
	CorrelationID  string
}

// CreateLock reserves seats. The inventory decrement and the lock
// insert commit together; losing the counter race returns
// ErrInsufficientInventory with nothing mutated. Replaying the same
// idempotency key returns the original lock with no inventory
// effect.
func (e *Engine) CreateLock(ctx context.Context, in CreateLockInput) (*domain.SeatLock, error) {
	if in.SeatCount < 1 || in.IdempotencyKey == "" {
		return nil, domain.ErrInvalidInput
	}

	if existing, err := e.repo.GetLockByKey(ctx, in.IdempotencyKey); err == nil {
		return existing, nil
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	lock := domain.NewSeatLock(in.EventID, in.RequesterID, in.SeatCount, in.IdempotencyKey, e.cfg.LockTTL)

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := e.repo.ReserveSeats(ctx, tx, in.EventID, in.SeatCount); err != nil {
			return err
		}
		if err := e.repo.InsertLock(ctx, tx, lock); err != nil {
			return err
		}
		return e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("lock", lock.ID, "lock.created", map[string]interface{}{
			"lock_id":    lock.ID,
			"event_id":   lock.EventID,
			"seat_count": lock.SeatCount,
		}))
	})
	if crdb.IsUniqueViolation(err) {
		// Lost the insert race for this key; the winner's lock is
		// the canonical result.
		observability.LocksCreated.WithLabelValues("replayed").Inc()
		return e.repo.GetLockByKey(ctx, in.IdempotencyKey)
	}
	if err != nil {
		observability.LocksCreated.WithLabelValues("rejected").Inc()
		return nil, err
	}

	observability.LocksCreated.WithLabelValues("created").Inc()
	e.audit.Record(ctx, domain.AuditEntry{
		EventID:       lock.EventID,
		LockID:        lock.ID,
		ToStatus:      string(domain.LockActive),
		Action:        domain.ActionLockCreated,
		CorrelationID: in.CorrelationID,
		Metadata:      map[string]interface{}{"seat_count": lock.SeatCount},
	})
	return &lock, nil
}

// ReleaseLock moves an ACTIVE lock to EXPIRED or CANCELLED and
// credits its seats back, clamped to the event's total. Releasing an
// already-released lock is a no-op, never a double credit.
func (e *Engine) ReleaseLock(ctx context.Context, lockID uuid.UUID, to domain.LockStatus) error {
	if to != domain.LockExpired && to != domain.LockCancelled {
		return domain.ErrInvalidInput
	}

	var released *domain.SeatLock
	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		lock, ok, err := e.repo.ReleaseLock(ctx, tx, lockID, to)
		if err != nil || !ok {
			return err
		}
		released = lock
		if err := e.repo.RestoreSeats(ctx, tx, lock.EventID, lock.SeatCount); err != nil {
			return err
		}
		return e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("lock", lock.ID, "lock.expired", map[string]interface{}{
			"lock_id":    lock.ID,
			"event_id":   lock.EventID,
			"seat_count": lock.SeatCount,
			"status":     to,
		}))
	})
	if err != nil {
		return err
	}
	if released != nil {
		observability.SeatsRestored.Add(float64(released.SeatCount))
		e.audit.Record(ctx, domain.AuditEntry{
			EventID:    released.EventID,
			LockID:     released.ID,
			FromStatus: string(domain.LockActive),
			ToStatus:   string(to),
			Action:     domain.ActionLockExpired,
		})
	}
	return nil
}
