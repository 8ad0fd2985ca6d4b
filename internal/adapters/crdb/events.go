package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

func (r *Repository) InsertEvent(ctx context.Context, event domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, name, total_seats, available_seats, event_date, amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.Name, event.TotalSeats, event.AvailableSeats, event.EventDate, event.Amount, event.Currency)
	return err
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, total_seats, available_seats, event_date, amount, currency
		FROM events WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.TotalSeats, &e.AvailableSeats, &e.EventDate, &e.Amount, &e.Currency)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) GetEventTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	err := tx.QueryRow(ctx, `
		SELECT id, name, total_seats, available_seats, event_date, amount, currency
		FROM events WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.TotalSeats, &e.AvailableSeats, &e.EventDate, &e.Amount, &e.Currency)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ReserveSeats is the check-and-decrement: the WHERE clause is the
// compare, the UPDATE is the swap. Zero rows means either the event
// is missing or inventory is short.
func (r *Repository) ReserveSeats(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, seatCount int) error {
	result, err := tx.Exec(ctx, `
		UPDATE events SET available_seats = available_seats - $2
		WHERE id = $1 AND available_seats >= $2
	`, eventID, seatCount)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientInventory
	}
	return nil
}

// RestoreSeats credits seats back, clamped to total_seats so a
// double-release can never overflow the counter.
func (r *Repository) RestoreSeats(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, seatCount int) error {
	_, err := tx.Exec(ctx, `
		UPDATE events SET available_seats = LEAST(total_seats, available_seats + $2)
		WHERE id = $1
	`, eventID, seatCount)
	return err
}

func (r *Repository) ListRetiredEvents(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM events WHERE event_date < $1 LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteEventCascade removes an aged-out event with its bookings and
// locks inside the caller's transaction.
func (r *Repository) DeleteEventCascade(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM seat_locks WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	return err
}
