package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is the engine's view of an event: the seat counters it owns
// plus the date used by retention. Metadata lives in the catalog.
type Event struct {
	ID             uuid.UUID
	Name           string
	TotalSeats     int
	AvailableSeats int
	EventDate      time.Time
	Amount         int64 // price per seat, minor units
	Currency       string
}

type LockStatus string

const (
	LockActive    LockStatus = "ACTIVE"
	LockExpired   LockStatus = "EXPIRED"
	LockConsumed  LockStatus = "CONSUMED"
	LockCancelled LockStatus = "CANCELLED"
)

// SeatLock is a time-bounded reservation of SeatCount seats. Its
// seats are credited back to the event exactly once, when it leaves
// ACTIVE through a releasing status (EXPIRED or CANCELLED).
type SeatLock struct {
	ID             uuid.UUID
	EventID        uuid.UUID
	RequesterID    uuid.UUID
	SeatCount      int
	Status         LockStatus
	ExpiresAt      time.Time
	IdempotencyKey string
	CreatedAt      time.Time
}

func NewSeatLock(eventID, requesterID uuid.UUID, seatCount int, idempotencyKey string, ttl time.Duration) SeatLock {
	return SeatLock{
		ID:             uuid.New(),
		EventID:        eventID,
		RequesterID:    requesterID,
		SeatCount:      seatCount,
		Status:         LockActive,
		ExpiresAt:      time.Now().Add(ttl),
		IdempotencyKey: idempotencyKey,
	}
}

type Booking struct {
	ID               uuid.UUID
	EventID          uuid.UUID
	RequesterID      uuid.UUID
	SeatCount        int
	SeatLockID       uuid.UUID
	Status           BookingStatus
	Amount           int64
	RefundAmount     int64
	Currency         string
	PaymentExpiresAt time.Time
	CreatedAt        time.Time
}

// NewBooking copies the lock's seat count and event so a later
// release always restores exactly what was deducted.
func NewBooking(lock SeatLock, amount int64, currency string, paymentWindow time.Duration) Booking {
	return Booking{
		ID:               uuid.New(),
		EventID:          lock.EventID,
		RequesterID:      lock.RequesterID,
		SeatCount:        lock.SeatCount,
		SeatLockID:       lock.ID,
		Status:           PaymentPending,
		Amount:           amount,
		Currency:         currency,
		PaymentExpiresAt: time.Now().Add(paymentWindow),
	}
}

type PaymentOutcome string

const (
	OutcomeSuccess PaymentOutcome = "success"
	OutcomeFailure PaymentOutcome = "failure"
	OutcomeTimeout PaymentOutcome = "timeout"
)

type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "SUCCESS"
	AttemptFailed  AttemptStatus = "FAILED"
	AttemptTimeout AttemptStatus = "TIMEOUT"
)

// PaymentAttempt is the idempotency ledger entry for one payment
// request. Response is the serialized result returned verbatim on
// every replay of the same key.
type PaymentAttempt struct {
	ID             uuid.UUID
	IdempotencyKey string
	BookingID      uuid.UUID
	Amount         int64
	ForcedOutcome  PaymentOutcome
	Status         AttemptStatus
	Response       []byte
	CorrelationID  string
	CreatedAt      time.Time
}

// PaymentResult is the stable response shape stored on the attempt.
type PaymentResult struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	PaymentStatus AttemptStatus `json:"payment_status"`
	BookingStatus BookingStatus `json:"booking_status"`
	Amount        int64         `json:"amount"`
	RefundAmount  int64         `json:"refund_amount"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

type JobStatus string

const (
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// JobExecution is the advisory mutual-exclusion record for one
// sweeper run. At most one RUNNING row may exist per job type.
type JobExecution struct {
	ID          uuid.UUID
	JobType     string
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Processed   int
	Errors      int
	Details     string
}

// AuditEntry records one lock/booking state transition. Entries are
// append-only.
type AuditEntry struct {
	BookingID     uuid.UUID
	EventID       uuid.UUID
	LockID        uuid.UUID
	FromStatus    string
	ToStatus      string
	Action        string
	CorrelationID string
	Metadata      map[string]interface{}
}

const (
	ActionLockCreated    = "LOCK_CREATED"
	ActionLockExpired    = "LOCK_EXPIRED"
	ActionBookingCreated = "BOOKING_CREATED"
	ActionPaymentSuccess = "PAYMENT_SUCCESS"
	ActionPaymentFailed  = "PAYMENT_FAILED"
	ActionExpired        = "EXPIRED"
	ActionCancelled      = "CANCELLED"
)
