package engine

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeProvider charges through Stripe PaymentIntents and maps the
// intent status onto the engine's three-way outcome.
type StripeProvider struct {
	client *client.API
	log    observability.Logger
}

func NewStripeProvider(secretKey string, log observability.Logger) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key not configured")
	}
	return &StripeProvider{client: client.New(secretKey, nil), log: log}, nil
}

func (s *StripeProvider) Process(ctx context.Context, req PaymentRequest) (domain.PaymentOutcome, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		Metadata: map[string]string{
			"booking_id": req.BookingID.String(),
			"attempt_id": req.AttemptID.String(),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return domain.OutcomeFailure, nil
		}
		s.log.WithError(err).Error("stripe payment intent failed")
		return domain.OutcomeTimeout, nil
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.OutcomeSuccess, nil
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return domain.OutcomeFailure, nil
	default:
		// Processing or awaiting action; the booking-expiry sweeper
		// resolves it if no definitive outcome arrives in time.
		return domain.OutcomeTimeout, nil
	}
}
