package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// IntentRequester asks the merchant backend to create a payment intent for a
// given amount and currency on behalf of an authenticated user.
type IntentRequester struct {
	backend ports.BackendAPI
	log     *zap.Logger
}

func NewIntentRequester(backend ports.BackendAPI, log *zap.Logger) *IntentRequester {
	return &IntentRequester{
		backend: backend,
		log:     log,
	}
}

// CreateIntent creates a payment intent. Preconditions are checked before
// any network call: a missing token or non-positive amount fails fast with
// ErrNotReady and causes no side effects. The idempotency key scopes the
// logical submission so transport retries do not create duplicate intents.
func (r *IntentRequester) CreateIntent(ctx context.Context, authToken string, amount float64, currency, idempotencyKey string) (*domain.PaymentIntent, error) {
	if authToken == "" {
		return nil, fmt.Errorf("%w: missing auth token", ErrNotReady)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrNotReady)
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: missing currency", ErrNotReady)
	}

	intent, err := r.backend.CreateIntent(ctx, authToken, domain.CreateIntentRequest{
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		r.log.Error("Failed to create payment intent",
			zap.Float64("amount", amount),
			zap.String("currency", currency),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrIntentCreation, err)
	}

	r.log.Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("status", string(intent.Status)),
	)

	return intent, nil
}
