package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
)

func readySession() *domain.ProcessorSession {
	return &domain.ProcessorSession{PublishableKey: "pk_test_1", Ready: true}
}

func TestConfirmGuardsBeforeProcessorCall(t *testing.T) {
	gateway := succeedingGateway()
	c := NewConfirmationCoordinator(gateway, time.Second, zap.NewNop())

	tests := []struct {
		name    string
		intent  *domain.PaymentIntent
		card    domain.CardInput
		session *domain.ProcessorSession
	}{
		{"nil session", testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, nil},
		{"session not ready", testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, &domain.ProcessorSession{}},
		{"nil intent", nil, domain.CardInput{PaymentMethodID: "pm_1"}, readySession()},
		{"no client secret", &domain.PaymentIntent{ID: "pi_1"}, domain.CardInput{PaymentMethodID: "pm_1"}, readySession()},
		{"no card", testIntent(), domain.CardInput{}, readySession()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Confirm(context.Background(), tt.intent, tt.card, tt.session)
			if !IsNotReady(err) {
				t.Fatalf("Expected not-ready error, got %v", err)
			}
		})
	}

	if got := atomic.LoadInt32(&gateway.confirmCalls); got != 0 {
		t.Errorf("Expected no processor call, got %d", got)
	}
}

func TestConfirmClassifiesProcessorErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		reason  ConfirmReason
		message string
	}{
		{
			name:    "declined card",
			err:     &domain.CardError{Reason: domain.CardErrorDeclined, Message: "Your card was declined"},
			reason:  ReasonDeclined,
			message: "Your card was declined",
		},
		{
			name:    "invalid details",
			err:     &domain.CardError{Reason: domain.CardErrorInvalid, Message: "Your card's expiration year is invalid"},
			reason:  ReasonInvalid,
			message: "Your card's expiration year is invalid",
		},
		{
			name:   "other card error",
			err:    &domain.CardError{Reason: domain.CardErrorOther, Message: "processing error"},
			reason: ReasonOther,
		},
		{
			name:   "transport failure",
			err:    context.Canceled,
			reason: ReasonOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &MockGateway{
				confirmFn: func(ctx context.Context, intentID, pm string) (*domain.PaymentIntent, error) {
					return nil, tt.err
				},
			}
			c := NewConfirmationCoordinator(gateway, time.Second, zap.NewNop())

			_, err := c.Confirm(context.Background(), testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, readySession())
			if got := ConfirmReasonOf(err); got != tt.reason {
				t.Fatalf("Expected reason %s, got %s (%v)", tt.reason, got, err)
			}
			if tt.message != "" {
				var ce *ConfirmationError
				if !errors.As(err, &ce) {
					t.Fatalf("Expected ConfirmationError, got %T", err)
				}
				if ce.UserMessage() != tt.message {
					t.Errorf("Expected user message %q, got %q", tt.message, ce.UserMessage())
				}
			}
		})
	}
}

func TestConfirmNonSucceededStatusIsIncomplete(t *testing.T) {
	for _, status := range []domain.IntentStatus{
		domain.IntentStatusProcessing,
		domain.IntentStatusRequiresPaymentMethod,
		domain.IntentStatusCanceled,
	} {
		t.Run(string(status), func(t *testing.T) {
			gateway := &MockGateway{
				confirmFn: func(ctx context.Context, intentID, pm string) (*domain.PaymentIntent, error) {
					return &domain.PaymentIntent{ID: intentID, Status: status}, nil
				},
			}
			c := NewConfirmationCoordinator(gateway, time.Second, zap.NewNop())

			_, err := c.Confirm(context.Background(), testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, readySession())
			if got := ConfirmReasonOf(err); got != ReasonIncomplete {
				t.Fatalf("Expected incomplete for status %s, got %s (%v)", status, got, err)
			}
		})
	}
}

func TestConfirmTimesOut(t *testing.T) {
	gateway := &MockGateway{
		confirmFn: func(ctx context.Context, intentID, pm string) (*domain.PaymentIntent, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c := NewConfirmationCoordinator(gateway, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := c.Confirm(context.Background(), testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, readySession())
	if got := ConfirmReasonOf(err); got != ReasonTimeout {
		t.Fatalf("Expected timeout, got %s (%v)", got, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Confirm blocked for %v, expected the coordinator timeout to apply", elapsed)
	}
}

func TestConfirmSuccessReturnsIntentID(t *testing.T) {
	gateway := succeedingGateway()
	c := NewConfirmationCoordinator(gateway, time.Second, zap.NewNop())

	id, err := c.Confirm(context.Background(), testIntent(), domain.CardInput{PaymentMethodID: "pm_1"}, readySession())
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if id != "pi_123" {
		t.Errorf("Unexpected intent id: %q", id)
	}
}
