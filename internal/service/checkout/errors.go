package checkout

import (
	"errors"
	"fmt"
)

// Guard and infrastructure failures. These never involve a network call
// (ErrNotReady) or block the whole payment surface (ErrConfigFetch).
var (
	// ErrNotReady is returned when a submission precondition is unmet:
	// processor session not initialized, no auth token, or no card attached.
	ErrNotReady = errors.New("payment not ready")

	// ErrConfigFetch is returned when the processor configuration could not
	// be retrieved and no fallback applies.
	ErrConfigFetch = errors.New("processor config unavailable")

	// ErrIntentCreation wraps backend create-intent failures.
	ErrIntentCreation = errors.New("intent creation failed")

	// ErrSubmissionInFlight is returned when submit is called while a
	// previous submission on the same state is still running.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrSubmissionFinished is returned when submit is called on a
	// submission that already succeeded.
	ErrSubmissionFinished = errors.New("submission already completed")
)

// ConfirmReason classifies confirmation outcomes that did not succeed.
type ConfirmReason string

const (
	ReasonDeclined   ConfirmReason = "declined"
	ReasonInvalid    ConfirmReason = "invalid"
	ReasonIncomplete ConfirmReason = "incomplete"
	ReasonTimeout    ConfirmReason = "timeout"
	ReasonOther      ConfirmReason = "other"
)

// ConfirmationError is a processor-level confirmation outcome. For Declined
// and Invalid the original intent remains reusable for a corrected retry.
// Incomplete means the processor returned a non-succeeded terminal response
// and the true final state is unknown; the orchestrator must not claim
// success.
type ConfirmationError struct {
	Reason  ConfirmReason
	Message string
	Err     error
}

func (e *ConfirmationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("confirmation %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("confirmation %s", e.Reason)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text surfaced through the failure boundary.
func (e *ConfirmationError) UserMessage() string {
	switch e.Reason {
	case ReasonDeclined:
		if e.Message != "" {
			return e.Message
		}
		return "Your card was declined"
	case ReasonInvalid:
		if e.Message != "" {
			return e.Message
		}
		return "Your card details are invalid"
	case ReasonIncomplete:
		return "Payment was not completed"
	case ReasonTimeout:
		return "Payment confirmation timed out"
	default:
		if e.Message != "" {
			return e.Message
		}
		return genericFailureMessage
	}
}

// genericFailureMessage hides internal detail from the user on unexpected
// failures.
const genericFailureMessage = "Payment failed"

// IsNotReady reports whether err is a guard failure.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsDeclined reports whether err is a processor decline.
func IsDeclined(err error) bool {
	var ce *ConfirmationError
	return errors.As(err, &ce) && ce.Reason == ReasonDeclined
}

// ConfirmReasonOf extracts the confirmation reason, or "" when err is not a
// confirmation error.
func ConfirmReasonOf(err error) ConfirmReason {
	var ce *ConfirmationError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
