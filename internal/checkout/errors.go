package checkout

import "errors"

var (
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrNoAddress          = errors.New("please select a shipping address")
	ErrAddressUnavailable = errors.New("could not load addresses")
	ErrPaymentInProgress  = errors.New("payment already in progress")
	ErrConfiguration      = errors.New("payment gateway is not configured")
	ErrGatewayUnavailable = errors.New("payment gateway failed to load")
	ErrOrderCreation      = errors.New("could not create payment order")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
)
