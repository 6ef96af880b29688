package checkout

import "errors"

var (
	ErrSubmitInProgress     = errors.New("a checkout submit is already in progress")
	ErrIllegalTransition    = errors.New("illegal transition of checkout status")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// genericFailureMessage is shown when the order service rejects a submit
// without a user-facing message.
const genericFailureMessage = "Could not place your order. Please try again."
