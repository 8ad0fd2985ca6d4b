package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

func (r *Repository) GetAttemptByKey(ctx context.Context, idempotencyKey string) (*domain.PaymentAttempt, error) {
	var a domain.PaymentAttempt
	err := r.pool.QueryRow(ctx, `
		SELECT id, idempotency_key, booking_id, amount, forced_outcome, status, response_json, correlation_id, created_at
		FROM payment_attempts WHERE idempotency_key = $1
	`, idempotencyKey).Scan(&a.ID, &a.IdempotencyKey, &a.BookingID, &a.Amount, &a.ForcedOutcome,
		&a.Status, &a.Response, &a.CorrelationID, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HasCapturedAttempt reports whether any payment attempt for the
// booking may have moved money (SUCCESS, or TIMEOUT where the
// gateway's side is unknown). FAILED attempts captured nothing.
func (r *Repository) HasCapturedAttempt(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (bool, error) {
	var captured bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment_attempts
			WHERE booking_id = $1 AND status IN ('SUCCESS', 'TIMEOUT')
		)
	`, bookingID).Scan(&captured)
	return captured, err
}

// InsertAttempt writes the fully-resolved ledger entry, stored
// response included, in the same transaction as the booking and
// inventory effects it describes.
func (r *Repository) InsertAttempt(ctx context.Context, tx pgx.Tx, a domain.PaymentAttempt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_attempts (id, idempotency_key, booking_id, amount, forced_outcome, status, response_json, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.IdempotencyKey, a.BookingID, a.Amount, a.ForcedOutcome, a.Status, a.Response, a.CorrelationID)
	return err
}
