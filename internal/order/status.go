package order

type Status string

const (
	StatusPending       Status = "pending"
	StatusConfirmed     Status = "confirmed"
	StatusPaymentFailed Status = "payment_failed"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:       {StatusConfirmed, StatusPaymentFailed, StatusCancelled},
	StatusPaymentFailed: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusShipped, StatusCancelled},
	StatusShipped:       {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaymentFailed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Paid reports whether payment for the order has been received.
func (s Status) Paid() bool {
	return s == StatusConfirmed || s == StatusShipped || s == StatusDelivered
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
