package domain

// RefundPolicy computes refunds for explicit cancellations. The
// remainder after the refund is retained as the cancellation fee.
type RefundPolicy struct {
	CancelPercent int64 // 0..100
}

func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{CancelPercent: 50}
}

// CancelRefund returns the refund for cancelling a confirmed
// booking, floored to minor units.
func (p RefundPolicy) CancelRefund(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount * p.CancelPercent / 100
}

// CancelFee is the retained portion.
func (p RefundPolicy) CancelFee(amount int64) int64 {
	return amount - p.CancelRefund(amount)
}
