package domain

import "fmt"

// CardErrorReason classifies processor-level confirmation failures.
type CardErrorReason string

const (
	CardErrorDeclined CardErrorReason = "declined"
	CardErrorInvalid  CardErrorReason = "invalid"
	CardErrorOther    CardErrorReason = "other"
)

// CardError is returned by processor gateways when the processor rejects a
// confirmation attempt. The intent stays in requires_payment_method and may
// be retried with a corrected card.
type CardError struct {
	Reason  CardErrorReason
	Message string
}

func (e *CardError) Error() string {
	return fmt.Sprintf("card %s: %s", e.Reason, e.Message)
}
