package crdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied idempotently at startup and by tests.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	total_seats INT NOT NULL CHECK (total_seats >= 1),
	available_seats INT NOT NULL CHECK (available_seats >= 0 AND available_seats <= total_seats),
	event_date TIMESTAMPTZ NOT NULL,
	amount INT8 NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seat_locks (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	requester_id UUID NOT NULL,
	seat_count INT NOT NULL CHECK (seat_count >= 1),
	status TEXT NOT NULL CHECK (status IN ('ACTIVE', 'EXPIRED', 'CONSUMED', 'CANCELLED')),
	expires_at TIMESTAMPTZ NOT NULL,
	idempotency_key TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS seat_locks_expiry_idx ON seat_locks (expires_at) WHERE status = 'ACTIVE';
CREATE INDEX IF NOT EXISTS seat_locks_event_idx ON seat_locks (event_id);

CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	requester_id UUID NOT NULL,
	seat_count INT NOT NULL CHECK (seat_count >= 1),
	seat_lock_id UUID NOT NULL UNIQUE,
	status TEXT NOT NULL CHECK (status IN ('INITIATED', 'PAYMENT_PENDING', 'CONFIRMED', 'FAILED', 'EXPIRED', 'CANCELLED')),
	amount INT8 NOT NULL DEFAULT 0,
	refund_amount INT8 NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	payment_expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bookings_payment_expiry_idx ON bookings (payment_expires_at) WHERE status = 'PAYMENT_PENDING';
CREATE INDEX IF NOT EXISTS bookings_event_idx ON bookings (event_id);

CREATE TABLE IF NOT EXISTS payment_attempts (
	id UUID PRIMARY KEY,
	idempotency_key TEXT NOT NULL UNIQUE,
	booking_id UUID NOT NULL,
	amount INT8 NOT NULL,
	forced_outcome TEXT NOT NULL CHECK (forced_outcome IN ('success', 'failure', 'timeout')),
	status TEXT NOT NULL CHECK (status IN ('SUCCESS', 'FAILED', 'TIMEOUT')),
	response_json JSONB,
	correlation_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_executions (
	id UUID PRIMARY KEY,
	job_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('RUNNING', 'COMPLETED', 'FAILED')),
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	processed INT NOT NULL DEFAULT 0,
	errors INT NOT NULL DEFAULT 0,
	details TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS job_executions_running_idx ON job_executions (job_type) WHERE status = 'RUNNING';

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
	dedupe_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS outbox_new_idx ON outbox (created_at) WHERE status = 'NEW';
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
