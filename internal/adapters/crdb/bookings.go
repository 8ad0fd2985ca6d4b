package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

const bookingColumns = `id, event_id, requester_id, seat_count, seat_lock_id, status, amount, refund_amount, currency, payment_expires_at, created_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.EventID, &b.RequesterID, &b.SeatCount, &b.SeatLockID, &b.Status,
		&b.Amount, &b.RefundAmount, &b.Currency, &b.PaymentExpiresAt, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *Repository) GetBookingTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *Repository) GetBookingByLock(ctx context.Context, tx pgx.Tx, lockID uuid.UUID) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE seat_lock_id = $1`, lockID))
}

func (r *Repository) InsertBooking(ctx context.Context, tx pgx.Tx, b domain.Booking) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (id, event_id, requester_id, seat_count, seat_lock_id, status, amount, refund_amount, currency, payment_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, b.ID, b.EventID, b.RequesterID, b.SeatCount, b.SeatLockID, b.Status, b.Amount, b.RefundAmount, b.Currency, b.PaymentExpiresAt)
	return err
}

// TransitionBooking applies a status-guarded update: the row moves
// from exactly `from` to `to` or not at all. Amount and refund are
// written alongside so the transition and its money effects commit
// together.
func (r *Repository) TransitionBooking(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.BookingStatus, amount, refund int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE bookings SET status = $3, amount = $4, refund_amount = $5
		WHERE id = $1 AND status = $2
	`, id, from, to, amount, refund)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (r *Repository) ListExpiredBookings(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'PAYMENT_PENDING' AND payment_expires_at < $1
		ORDER BY payment_expires_at ASC LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
