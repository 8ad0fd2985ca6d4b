package domain_test

import (
	"testing"

	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.BookingStatus
		allowed  bool
	}{
		{domain.Initiated, domain.PaymentPending, true},
		{domain.PaymentPending, domain.Confirmed, true},
		{domain.PaymentPending, domain.Failed, true},
		{domain.PaymentPending, domain.Expired, true},
		{domain.Confirmed, domain.Cancelled, true},

		{domain.Initiated, domain.Confirmed, false},
		{domain.PaymentPending, domain.Cancelled, false},
		{domain.Confirmed, domain.Failed, false},
		{domain.Confirmed, domain.Expired, false},
		{domain.Failed, domain.Confirmed, false},
		{domain.Expired, domain.PaymentPending, false},
		{domain.Cancelled, domain.Confirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, domain.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_IllegalReturnsError(t *testing.T) {
	got, err := domain.Transition(domain.Failed, domain.Confirmed)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, domain.Failed, got, "status must not move on an illegal transition")
}

func TestTerminal(t *testing.T) {
	assert.False(t, domain.Terminal(domain.PaymentPending))
	assert.False(t, domain.Terminal(domain.Confirmed))
	assert.True(t, domain.Terminal(domain.Failed))
	assert.True(t, domain.Terminal(domain.Expired))
	assert.True(t, domain.Terminal(domain.Cancelled))
}

func TestRefundPolicy_CancelRefund(t *testing.T) {
	policy := domain.DefaultRefundPolicy()

	assert.Equal(t, int64(250), policy.CancelRefund(500))
	assert.Equal(t, int64(250), policy.CancelFee(500))

	// Odd amounts floor toward the fee.
	assert.Equal(t, int64(250), policy.CancelRefund(501))
	assert.Equal(t, int64(251), policy.CancelFee(501))

	assert.Zero(t, policy.CancelRefund(0))
	assert.Zero(t, policy.CancelRefund(-100))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INSUFFICIENT_INVENTORY", domain.ErrorCode(domain.ErrInsufficientInventory))
	assert.Equal(t, "LOCK_EXPIRED", domain.ErrorCode(domain.ErrLockExpired))
	assert.Equal(t, "JOB_ALREADY_RUNNING", domain.ErrorCode(domain.ErrJobAlreadyRunning))
	assert.Equal(t, "INTERNAL", domain.ErrorCode(assert.AnError))
}
