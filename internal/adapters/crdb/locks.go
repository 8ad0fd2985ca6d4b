package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

const lockColumns = `id, event_id, requester_id, seat_count, status, expires_at, idempotency_key, created_at`

func scanLock(row pgx.Row) (*domain.SeatLock, error) {
	var l domain.SeatLock
	err := row.Scan(&l.ID, &l.EventID, &l.RequesterID, &l.SeatCount, &l.Status, &l.ExpiresAt, &l.IdempotencyKey, &l.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) GetLock(ctx context.Context, id uuid.UUID) (*domain.SeatLock, error) {
	return scanLock(r.pool.QueryRow(ctx, `SELECT `+lockColumns+` FROM seat_locks WHERE id = $1`, id))
}

func (r *Repository) GetLockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.SeatLock, error) {
	return scanLock(tx.QueryRow(ctx, `SELECT `+lockColumns+` FROM seat_locks WHERE id = $1`, id))
}

func (r *Repository) GetLockByKey(ctx context.Context, idempotencyKey string) (*domain.SeatLock, error) {
	return scanLock(r.pool.QueryRow(ctx, `SELECT `+lockColumns+` FROM seat_locks WHERE idempotency_key = $1`, idempotencyKey))
}

func (r *Repository) InsertLock(ctx context.Context, tx pgx.Tx, lock domain.SeatLock) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO seat_locks (id, event_id, requester_id, seat_count, status, expires_at, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, lock.ID, lock.EventID, lock.RequesterID, lock.SeatCount, lock.Status, lock.ExpiresAt, lock.IdempotencyKey)
	return err
}

// ReleaseLock moves an ACTIVE lock to a releasing status and reports
// whether this call actually released it. A replay finds no ACTIVE
// row and is a no-op, which is what keeps the seat credit
// exactly-once.
func (r *Repository) ReleaseLock(ctx context.Context, tx pgx.Tx, lockID uuid.UUID, to domain.LockStatus) (*domain.SeatLock, bool, error) {
	lock, err := scanLock(tx.QueryRow(ctx, `
		UPDATE seat_locks SET status = $2
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING `+lockColumns, lockID, to))
	if err == domain.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return lock, true, nil
}

// ConsumeLock marks an ACTIVE lock CONSUMED. Terminal, no seat
// restoration.
func (r *Repository) ConsumeLock(ctx context.Context, tx pgx.Tx, lockID uuid.UUID) error {
	result, err := tx.Exec(ctx, `
		UPDATE seat_locks SET status = 'CONSUMED' WHERE id = $1 AND status = 'ACTIVE'
	`, lockID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidOrExpiredLock
	}
	return nil
}

func (r *Repository) ListExpiredLocks(ctx context.Context, now time.Time, limit int) ([]domain.SeatLock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lockColumns+` FROM seat_locks
		WHERE status = 'ACTIVE' AND expires_at < $1
		ORDER BY expires_at ASC LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []domain.SeatLock
	for rows.Next() {
		lock, err := scanLock(rows)
		if err != nil {
			return nil, err
		}
		locks = append(locks, *lock)
	}
	return locks, rows.Err()
}
