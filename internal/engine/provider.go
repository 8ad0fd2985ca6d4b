package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

type PaymentRequest struct {
	AttemptID uuid.UUID
	BookingID uuid.UUID
	Amount    int64
	Currency  string
	// IdempotencyKey is the caller's key, stable across retries. A
	// gateway must deduplicate on this, never on the per-call
	// AttemptID, so a retry after an aborted transaction can never
	// charge twice.
	IdempotencyKey string
	ForcedOutcome  domain.PaymentOutcome
}

// PaymentProvider normalizes a payment gateway to the three-way
// outcome the reconciliation logic understands. The implementation
// is selected by configuration, never by branching inside the
// reconciliation path.
type PaymentProvider interface {
	Process(ctx context.Context, req PaymentRequest) (domain.PaymentOutcome, error)
}

// SimulatedProvider returns the outcome the request asks for. Used
// in tests and environments without a gateway.
type SimulatedProvider struct{}

func (SimulatedProvider) Process(_ context.Context, req PaymentRequest) (domain.PaymentOutcome, error) {
	switch req.ForcedOutcome {
	case domain.OutcomeSuccess, domain.OutcomeFailure, domain.OutcomeTimeout:
		return req.ForcedOutcome, nil
	default:
		return "", domain.ErrInvalidInput
	}
}
