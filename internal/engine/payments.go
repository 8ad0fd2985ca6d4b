package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

type PaymentIntentInput struct {
	BookingID      uuid.UUID
	Amount         int64
	ForcedOutcome  domain.PaymentOutcome
	IdempotencyKey string
	CorrelationID  string
}

// CreatePaymentIntent reconciles a provider outcome into a booking
// transition. Replaying an idempotency key returns the stored
// response with no side effect re-executed, seat movements included.
func (e *Engine) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*domain.PaymentResult, error) {
	if in.Amount <= 0 || in.IdempotencyKey == "" {
		return nil, domain.ErrInvalidInput
	}

	if attempt, err := e.repo.GetAttemptByKey(ctx, in.IdempotencyKey); err == nil {
		var result domain.PaymentResult
		if err := json.Unmarshal(attempt.Response, &result); err != nil {
			return nil, err
		}
		return &result, nil
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	booking, err := e.repo.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.PaymentPending {
		return nil, domain.ErrInvalidStateTransition
	}

	// The lock must still be consumable before any money moves. A
	// lock the sweeper already expired means a success outcome could
	// never apply, so reject here instead of charging first.
	lock, err := e.repo.GetLock(ctx, booking.SeatLockID)
	if err != nil {
		return nil, err
	}
	if lock.Status != domain.LockActive || lock.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrInvalidOrExpiredLock
	}

	attemptID := uuid.New()
	outcome, err := e.provider.Process(ctx, PaymentRequest{
		AttemptID:      attemptID,
		BookingID:      booking.ID,
		Amount:         in.Amount,
		Currency:       booking.Currency,
		IdempotencyKey: in.IdempotencyKey,
		ForcedOutcome:  in.ForcedOutcome,
	})
	if err != nil {
		return nil, err
	}

	if in.ForcedOutcome == "" {
		// Gateway-backed providers resolve the outcome themselves;
		// record what actually happened.
		in.ForcedOutcome = outcome
	}

	var result *domain.PaymentResult
	switch outcome {
	case domain.OutcomeSuccess:
		result, err = e.applySuccess(ctx, attemptID, booking, in)
	case domain.OutcomeFailure:
		result, err = e.applyFailure(ctx, attemptID, booking, in)
	default:
		result, err = e.applyTimeout(ctx, attemptID, booking, in)
	}
	if err != nil {
		return nil, err
	}

	observability.PaymentOutcomes.WithLabelValues(string(outcome)).Inc()
	return result, nil
}

func (e *Engine) applySuccess(ctx context.Context, attemptID uuid.UUID, booking *domain.Booking, in PaymentIntentInput) (*domain.PaymentResult, error) {
	result := domain.PaymentResult{
		BookingID:     booking.ID,
		PaymentStatus: domain.AttemptSuccess,
		BookingStatus: domain.Confirmed,
		Amount:        in.Amount,
		CorrelationID: in.CorrelationID,
	}

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := e.repo.TransitionBooking(ctx, tx, booking.ID, domain.PaymentPending, domain.Confirmed, in.Amount, 0); err != nil {
			return err
		}
		if err := e.repo.ConsumeLock(ctx, tx, booking.SeatLockID); err != nil {
			return err
		}
		if err := e.insertAttempt(ctx, tx, attemptID, booking.ID, in, domain.AttemptSuccess, result); err != nil {
			return err
		}
		return e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("booking", booking.ID, "booking.confirmed", map[string]interface{}{
			"booking_id": booking.ID,
			"amount":     in.Amount,
		}))
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(string(domain.Confirmed)).Inc()
	e.audit.Record(ctx, domain.AuditEntry{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		LockID:        booking.SeatLockID,
		FromStatus:    string(domain.PaymentPending),
		ToStatus:      string(domain.Confirmed),
		Action:        domain.ActionPaymentSuccess,
		CorrelationID: in.CorrelationID,
	})
	return &result, nil
}

func (e *Engine) applyFailure(ctx context.Context, attemptID uuid.UUID, booking *domain.Booking, in PaymentIntentInput) (*domain.PaymentResult, error) {
	result := domain.PaymentResult{
		BookingID:     booking.ID,
		PaymentStatus: domain.AttemptFailed,
		BookingStatus: domain.Failed,
		Amount:        in.Amount,
		RefundAmount:  in.Amount,
		CorrelationID: in.CorrelationID,
	}

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := e.repo.TransitionBooking(ctx, tx, booking.ID, domain.PaymentPending, domain.Failed, in.Amount, in.Amount); err != nil {
			return err
		}
		if lock, ok, err := e.repo.ReleaseLock(ctx, tx, booking.SeatLockID, domain.LockExpired); err != nil {
			return err
		} else if ok {
			if err := e.repo.RestoreSeats(ctx, tx, lock.EventID, lock.SeatCount); err != nil {
				return err
			}
		}
		if err := e.insertAttempt(ctx, tx, attemptID, booking.ID, in, domain.AttemptFailed, result); err != nil {
			return err
		}
		return e.repo.InsertOutbox(ctx, tx, crdb.NewOutboxRecord("booking", booking.ID, "booking.failed", map[string]interface{}{
			"booking_id":    booking.ID,
			"refund_amount": in.Amount,
		}))
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(string(domain.Failed)).Inc()
	observability.SeatsRestored.Add(float64(booking.SeatCount))
	e.audit.Record(ctx, domain.AuditEntry{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		LockID:        booking.SeatLockID,
		FromStatus:    string(domain.PaymentPending),
		ToStatus:      string(domain.Failed),
		Action:        domain.ActionPaymentFailed,
		CorrelationID: in.CorrelationID,
		Metadata:      map[string]interface{}{"refund_amount": in.Amount},
	})
	return &result, nil
}

// applyTimeout records the attempt and nothing else. The booking
// stays PAYMENT_PENDING for the booking-expiry sweeper, keeping a
// single seat-restoration path for the timeout case.
func (e *Engine) applyTimeout(ctx context.Context, attemptID uuid.UUID, booking *domain.Booking, in PaymentIntentInput) (*domain.PaymentResult, error) {
	result := domain.PaymentResult{
		BookingID:     booking.ID,
		PaymentStatus: domain.AttemptTimeout,
		BookingStatus: domain.PaymentPending,
		Amount:        in.Amount,
		CorrelationID: in.CorrelationID,
	}

	err := e.repo.WithTx(ctx, func(tx pgx.Tx) error {
		return e.insertAttempt(ctx, tx, attemptID, booking.ID, in, domain.AttemptTimeout, result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *Engine) insertAttempt(ctx context.Context, tx pgx.Tx, attemptID, bookingID uuid.UUID, in PaymentIntentInput, status domain.AttemptStatus, result domain.PaymentResult) error {
	response, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return e.repo.InsertAttempt(ctx, tx, domain.PaymentAttempt{
		ID:             attemptID,
		IdempotencyKey: in.IdempotencyKey,
		BookingID:      bookingID,
		Amount:         in.Amount,
		ForcedOutcome:  in.ForcedOutcome,
		Status:         status,
		Response:       response,
		CorrelationID:  in.CorrelationID,
	})
}
