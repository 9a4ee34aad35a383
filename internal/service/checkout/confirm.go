package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// DefaultConfirmTimeout bounds the opaque processor suspension. The
// processor SDK's own timeout behavior is unspecified, so the coordinator
// enforces its own.
const DefaultConfirmTimeout = 60 * time.Second

// ConfirmationCoordinator hands an intent's client secret and a tokenized
// card to the processor and waits for a single terminal outcome.
type ConfirmationCoordinator struct {
	gateway ports.ProcessorGateway
	timeout time.Duration
	log     *zap.Logger
}

func NewConfirmationCoordinator(gateway ports.ProcessorGateway, timeout time.Duration, log *zap.Logger) *ConfirmationCoordinator {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &ConfirmationCoordinator{
		gateway: gateway,
		timeout: timeout,
		log:     log,
	}
}

// Confirm submits the card against the intent and blocks until the processor
// answers or the timeout elapses. On success it returns the confirmed intent
// id. Every non-success outcome is a *ConfirmationError; for Declined and
// Invalid the intent remains reusable for a corrected retry.
func (c *ConfirmationCoordinator) Confirm(ctx context.Context, intent *domain.PaymentIntent, card domain.CardInput, session *domain.ProcessorSession) (string, error) {
	if session == nil || !session.Ready {
		return "", fmt.Errorf("%w: processor session not ready", ErrNotReady)
	}
	// The client secret is a readiness marker: an intent without one was
	// never handed to this client, so confirming it would be a wasted call.
	// The gateway itself confirms by intent id.
	if intent == nil || intent.ClientSecret == "" {
		return "", fmt.Errorf("%w: intent has no client secret", ErrNotReady)
	}
	if !card.Attached() {
		return "", fmt.Errorf("%w: no card attached", ErrNotReady)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	confirmed, err := c.gateway.ConfirmIntent(ctx, intent.ID, card.PaymentMethodID)
	if err != nil {
		return "", c.classify(intent.ID, err)
	}

	if confirmed.Status != domain.IntentStatusSucceeded {
		// The charge may still settle asynchronously; the true final state
		// is unknown here. Never claim success.
		c.log.Warn("Confirmation returned non-succeeded status",
			zap.String("intent_id", confirmed.ID),
			zap.String("status", string(confirmed.Status)),
		)
		return "", &ConfirmationError{
			Reason:  ReasonIncomplete,
			Message: fmt.Sprintf("payment status is %s", confirmed.Status),
		}
	}

	c.log.Info("Payment confirmed", zap.String("intent_id", confirmed.ID))
	return confirmed.ID, nil
}

func (c *ConfirmationCoordinator) classify(intentID string, err error) error {
	var cardErr *domain.CardError
	switch {
	case errors.As(err, &cardErr):
		reason := ReasonOther
		switch cardErr.Reason {
		case domain.CardErrorDeclined:
			reason = ReasonDeclined
		case domain.CardErrorInvalid:
			reason = ReasonInvalid
		}
		c.log.Warn("Confirmation rejected by processor",
			zap.String("intent_id", intentID),
			zap.String("reason", string(reason)),
		)
		return &ConfirmationError{Reason: reason, Message: cardErr.Message, Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		c.log.Error("Confirmation timed out", zap.String("intent_id", intentID))
		return &ConfirmationError{Reason: ReasonTimeout, Err: err}

	default:
		c.log.Error("Confirmation failed",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		return &ConfirmationError{Reason: ReasonOther, Message: err.Error(), Err: err}
	}
}
