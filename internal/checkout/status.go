package checkout

type Status string

const (
	StatusEmpty             Status = "EMPTY"
	StatusReviewing         Status = "REVIEWING"
	StatusAddressSelected   Status = "ADDRESS_SELECTED"
	StatusPaymentInitiating Status = "PAYMENT_INITIATING"
	StatusPaymentPending    Status = "PAYMENT_PENDING"
	StatusPaymentSucceeded  Status = "PAYMENT_SUCCEEDED"
	StatusPaymentFailed     Status = "PAYMENT_FAILED"
	StatusPaymentAbandoned  Status = "PAYMENT_ABANDONED"
)

var transitions = map[Status][]Status{
	StatusEmpty:             {StatusReviewing},
	StatusReviewing:         {StatusAddressSelected, StatusEmpty},
	StatusAddressSelected:   {StatusPaymentInitiating, StatusReviewing, StatusEmpty},
	StatusPaymentInitiating: {StatusPaymentPending, StatusAddressSelected},
	StatusPaymentPending:    {StatusPaymentSucceeded, StatusPaymentFailed, StatusPaymentAbandoned},
	StatusPaymentAbandoned:  {StatusAddressSelected},
}

func CanTransitionTo(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusPaymentSucceeded || s == StatusPaymentFailed
}

// InProgress reports whether a payment order is being created or is open.
func (s Status) InProgress() bool {
	return s == StatusPaymentInitiating || s == StatusPaymentPending
}

func (s Status) String() string {
	return string(s)
}
