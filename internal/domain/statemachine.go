package domain

type BookingStatus string

const (
	Initiated      BookingStatus = "INITIATED"
	PaymentPending BookingStatus = "PAYMENT_PENDING"
	Confirmed      BookingStatus = "CONFIRMED"
	Failed         BookingStatus = "FAILED"
	Expired        BookingStatus = "EXPIRED"
	Cancelled      BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	Initiated:      {PaymentPending},
	PaymentPending: {Confirmed, Failed, Expired},
	Confirmed:      {Cancelled},
}

// CanTransition reports whether a booking may move from one status
// to another. Terminal states (FAILED, EXPIRED, CANCELLED) have no
// outgoing transitions.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the target status, or
// ErrInvalidStateTransition without mutating anything.
func Transition(from, to BookingStatus) (BookingStatus, error) {
	if !CanTransition(from, to) {
		return from, ErrInvalidStateTransition
	}
	return to, nil
}

// Terminal reports whether no further transition is legal.
func Terminal(s BookingStatus) bool {
	return len(bookingTransitions[s]) == 0
}
