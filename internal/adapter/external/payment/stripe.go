package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// StripeGateway implements ports.ProcessorGateway for Stripe. All calls go
// through a circuit breaker so a degraded processor does not pile up
// requests.
type StripeGateway struct {
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewStripeGateway creates a Stripe gateway. secretKey is the merchant's
// server-side API key, never the publishable one.
func NewStripeGateway(secretKey string, log *zap.Logger) ports.ProcessorGateway {
	stripe.Key = secretKey

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Stripe circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Card-level rejections are business outcomes, not processor
			// health problems.
			var cardErr *domain.CardError
			return err == nil || errors.As(err, &cardErr)
		},
	})

	return &StripeGateway{
		breaker: breaker,
		log:     log,
	}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreateIntent creates a Stripe payment intent. Stripe expects the amount in
// the currency's minor unit.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64, currency string, idempotencyKey string, metadata map[string]string) (*domain.PaymentIntent, error) {
	if amount <= 0 {
		return nil, errors.New("invalid amount")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	if len(metadata) > 0 {
		params.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			params.Metadata[k] = v
		}
	}

	pi, err := g.execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.New(params)
	})
	if err != nil {
		g.log.Error("Failed to create payment intent", zap.Error(err))
		return nil, mapStripeError(err)
	}

	g.log.Info("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
	)

	return mapIntent(pi), nil
}

// ConfirmIntent submits a tokenized payment method against the intent and
// waits for Stripe's terminal answer.
func (g *StripeGateway) ConfirmIntent(ctx context.Context, intentID string, paymentMethodID string) (*domain.PaymentIntent, error) {
	if intentID == "" {
		return nil, errors.New("intent ID is required")
	}
	if paymentMethodID == "" {
		return nil, errors.New("payment method is required")
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := g.execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.Confirm(intentID, params)
	})
	if err != nil {
		g.log.Warn("Payment intent confirmation failed",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		return nil, mapStripeError(err)
	}

	g.log.Info("Payment intent confirmed",
		zap.String("intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
	)

	return mapIntent(pi), nil
}

// GetIntent fetches the current state of an intent from Stripe.
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.Get(intentID, params)
	})
	if err != nil {
		return nil, mapStripeError(err)
	}
	return mapIntent(pi), nil
}

func (g *StripeGateway) execute(fn func() (*stripe.PaymentIntent, error)) (*stripe.PaymentIntent, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		pi, err := fn()
		if err != nil {
			return nil, mapStripeError(err)
		}
		return pi, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("stripe unavailable: %w", err)
		}
		return nil, err
	}
	return result.(*stripe.PaymentIntent), nil
}

// minorUnits converts a major-unit amount to the processor's integer minor
// unit. Rounds instead of casting: amounts like 19.99 have no exact float
// representation and a plain int64 cast drops a cent.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// mapIntent converts Stripe's intent to the domain projection. Amount comes
// back from the minor unit.
func mapIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       float64(pi.Amount) / 100,
		Currency:     string(pi.Currency),
		Status:       mapIntentStatus(pi.Status),
	}
}

func mapIntentStatus(status stripe.PaymentIntentStatus) domain.IntentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.IntentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return domain.IntentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return domain.IntentStatusCanceled
	case stripe.PaymentIntentStatusRequiresConfirmation:
		return domain.IntentStatusRequiresConfirmation
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusRequiresAction:
		return domain.IntentStatusRequiresPaymentMethod
	default:
		return domain.IntentStatusRequiresPaymentMethod
	}
}

// mapStripeError converts card-level Stripe errors into *domain.CardError so
// the checkout core can classify them. Transport and API errors pass through
// wrapped.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}
	if stripeErr.Type != stripe.ErrorTypeCard {
		return fmt.Errorf("stripe: %w", err)
	}

	reason := domain.CardErrorOther
	switch stripeErr.Code {
	case stripe.ErrorCodeCardDeclined, stripe.ErrorCodeExpiredCard:
		reason = domain.CardErrorDeclined
	case stripe.ErrorCodeIncorrectNumber, stripe.ErrorCodeInvalidNumber,
		stripe.ErrorCodeInvalidExpiryMonth, stripe.ErrorCodeInvalidExpiryYear,
		stripe.ErrorCodeInvalidCVC, stripe.ErrorCodeIncorrectCVC:
		reason = domain.CardErrorInvalid
	}

	return &domain.CardError{
		Reason:  reason,
		Message: stripeErr.Msg,
	}
}
