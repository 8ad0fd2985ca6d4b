package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

// Confirm consumes an ACTIVE, unexpired lock into a PAYMENT_PENDING
// booking. The lock stays ACTIVE until a definitive payment outcome.
// Re-confirming the same lock returns the existing booking.
func (e *Engine) Confirm(ctx context.Context, lockID uuid.UUID, correlationID string) (*domain.Booking, error) {
	var booking *domain.Booking
	var created bool

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		lock, err := e.repo.GetLockTx(ctx, tx, lockID)
		if err == domain.ErrNotFound {
			return domain.ErrInvalidOrExpiredLock
		}
		if err != nil {
			return err
		}

		if lock.Status != domain.LockActive {
			// A consumed or released lock may still point at its
			// booking; replaying confirm on it stays idempotent.
			if b, err := e.repo.GetBookingByLock(ctx, tx, lockID); err == nil {
				booking = b
				return nil
			}
			return domain.ErrInvalidOrExpiredLock
		}

		if lock.ExpiresAt.Before(time.Now()) {
			// Release inline rather than waiting for the sweeper, so
			// the caller's failure also returns the seats.
			if _, ok, err := e.repo.ReleaseLock(ctx, tx, lockID, domain.LockExpired); err != nil {
				return err
			} else if ok {
				if err := e.repo.RestoreSeats(ctx, tx, lock.EventID, lock.SeatCount); err != nil {
					return err
				}
			}
			return domain.ErrLockExpired
		}

		if b, err := e.repo.GetBookingByLock(ctx, tx, lockID); err == nil {
			booking = b
			return nil
		} else if err != domain.ErrBookingNotFound {
			return err
		}

		event, err := e.repo.GetEventTx(ctx, tx, lock.EventID)
		if err != nil {
			return err
		}

		b := domain.NewBooking(*lock, event.Amount*int64(lock.SeatCount), event.Currency, e.cfg.PaymentWindow)
		if err := e.repo.InsertBooking(ctx, tx, b); err != nil {
			return err
		}
		if err := e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("booking", b.ID, "booking.created", map[string]interface{}{
			"booking_id": b.ID,
			"event_id":   b.EventID,
			"lock_id":    lockID,
		})); err != nil {
			return err
		}
		booking = &b
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		observability.BookingTransitions.WithLabelValues(string(domain.PaymentPending)).Inc()
		e.audit.Record(ctx, domain.AuditEntry{
			BookingID:     booking.ID,
			EventID:       booking.EventID,
			LockID:        lockID,
			ToStatus:      string(domain.PaymentPending),
			Action:        domain.ActionBookingCreated,
			CorrelationID: correlationID,
		})
	}
	return booking, nil
}

// Cancel moves a CONFIRMED booking to CANCELLED with a partial
// refund and returns the lock's seats to the event. Booking update,
// lock update and seat restoration commit together.
func (e *Engine) Cancel(ctx context.Context, bookingID uuid.UUID, correlationID string) (*domain.Booking, error) {
	var cancelled *domain.Booking

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		booking, err := e.repo.GetBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(booking.Status, domain.Cancelled); err != nil {
			return err
		}

		refund := e.policy.CancelRefund(booking.Amount)
		if err := e.repo.TransitionBooking(ctx, tx, bookingID, domain.Confirmed, domain.Cancelled, booking.Amount, refund); err != nil {
			return err
		}

		// The lock is CONSUMED at this point; flip it to CANCELLED
		// and credit the seats back once.
		if _, err := tx.Exec(ctx, `
			UPDATE seat_locks SET status = 'CANCELLED' WHERE id = $1 AND status = 'CONSUMED'
		`, booking.SeatLockID); err != nil {
			return err
		}
		if err := e.repo.RestoreSeats(ctx, tx, booking.EventID, booking.SeatCount); err != nil {
			return err
		}

		booking.Status = domain.Cancelled
		booking.RefundAmount = refund
		cancelled = booking
		return e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("booking", bookingID, "booking.cancelled", map[string]interface{}{
			"booking_id":    bookingID,
			"refund_amount": refund,
		}))
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(string(domain.Cancelled)).Inc()
	observability.SeatsRestored.Add(float64(cancelled.SeatCount))
	e.audit.Record(ctx, domain.AuditEntry{
		BookingID:     cancelled.ID,
		EventID:       cancelled.EventID,
		LockID:        cancelled.SeatLockID,
		FromStatus:    string(domain.Confirmed),
		ToStatus:      string(domain.Cancelled),
		Action:        domain.ActionCancelled,
		CorrelationID: correlationID,
		Metadata:      map[string]interface{}{"refund_amount": cancelled.RefundAmount},
	})
	return cancelled, nil
}

func (e *Engine) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return e.repo.GetBooking(ctx, id)
}

func (e *Engine) GetLock(ctx context.Context, id uuid.UUID) (*domain.SeatLock, error) {
	lock, err := e.repo.GetLock(ctx, id)
	if err == domain.ErrNotFound {
		return nil, domain.ErrInvalidOrExpiredLock
	}
	return lock, err
}

func (e *Engine) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return e.repo.GetEvent(ctx, id)
}
