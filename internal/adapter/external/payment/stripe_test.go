package payment

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"

	"github.com/seu-repo/loja-checkout/internal/domain"
)

func TestMapIntentStatus(t *testing.T) {
	tests := []struct {
		in   stripe.PaymentIntentStatus
		want domain.IntentStatus
	}{
		{stripe.PaymentIntentStatusSucceeded, domain.IntentStatusSucceeded},
		{stripe.PaymentIntentStatusProcessing, domain.IntentStatusProcessing},
		{stripe.PaymentIntentStatusCanceled, domain.IntentStatusCanceled},
		{stripe.PaymentIntentStatusRequiresConfirmation, domain.IntentStatusRequiresConfirmation},
		{stripe.PaymentIntentStatusRequiresPaymentMethod, domain.IntentStatusRequiresPaymentMethod},
		{stripe.PaymentIntentStatusRequiresAction, domain.IntentStatusRequiresPaymentMethod},
	}

	for _, tt := range tests {
		if got := mapIntentStatus(tt.in); got != tt.want {
			t.Errorf("mapIntentStatus(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMinorUnitsRoundsInsteadOfTruncating(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{19.99, 1999},
		{4.35, 435},
		{0.29, 29},
		{50.0, 5000},
		{0.01, 1},
		{123.45, 12345},
	}

	for _, tt := range tests {
		if got := minorUnits(tt.in); got != tt.want {
			t.Errorf("minorUnits(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAmountSurvivesMinorUnitRoundTrip(t *testing.T) {
	for _, amount := range []float64{19.99, 4.35, 0.29, 50.0, 123.45} {
		pi := &stripe.PaymentIntent{
			ID:       "pi_1",
			Amount:   minorUnits(amount),
			Currency: stripe.CurrencyBRL,
			Status:   stripe.PaymentIntentStatusRequiresConfirmation,
		}
		if got := mapIntent(pi).Amount; got != amount {
			t.Errorf("Amount %v came back as %v after the minor-unit round trip", amount, got)
		}
	}
}

func TestMapIntentConvertsMinorUnits(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Amount:       4990,
		Currency:     stripe.CurrencyBRL,
		Status:       stripe.PaymentIntentStatusRequiresConfirmation,
	}

	intent := mapIntent(pi)
	if intent.Amount != 49.90 {
		t.Errorf("Expected 49.90, got %v", intent.Amount)
	}
	if intent.Currency != "brl" {
		t.Errorf("Expected brl, got %q", intent.Currency)
	}
	if intent.ClientSecret != "pi_1_secret" {
		t.Errorf("Client secret not carried over: %q", intent.ClientSecret)
	}
}

func TestMapStripeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason domain.CardErrorReason
	}{
		{
			name:   "declined",
			err:    &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined."},
			reason: domain.CardErrorDeclined,
		},
		{
			name:   "expired",
			err:    &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeExpiredCard, Msg: "Your card has expired."},
			reason: domain.CardErrorDeclined,
		},
		{
			name:   "bad cvc",
			err:    &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeIncorrectCVC, Msg: "Your card's security code is incorrect."},
			reason: domain.CardErrorInvalid,
		},
		{
			name:   "bad expiry",
			err:    &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeInvalidExpiryYear, Msg: "Your card's expiration year is invalid."},
			reason: domain.CardErrorInvalid,
		},
		{
			name:   "unclassified card error",
			err:    &stripe.Error{Type: stripe.ErrorTypeCard, Code: "processing_error", Msg: "An error occurred while processing your card."},
			reason: domain.CardErrorOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapStripeError(tt.err)
			var cardErr *domain.CardError
			if !errors.As(mapped, &cardErr) {
				t.Fatalf("Expected CardError, got %T", mapped)
			}
			if cardErr.Reason != tt.reason {
				t.Errorf("Expected reason %s, got %s", tt.reason, cardErr.Reason)
			}
			if cardErr.Message == "" {
				t.Error("Expected the processor message to be preserved")
			}
		})
	}
}

func TestMapStripeErrorNonCard(t *testing.T) {
	apiErr := &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "internal error"}
	mapped := mapStripeError(apiErr)

	var cardErr *domain.CardError
	if errors.As(mapped, &cardErr) {
		t.Fatal("API errors must not map to CardError")
	}
	if !errors.As(mapped, &apiErr) {
		t.Error("Expected the original stripe error to be wrapped")
	}
}

func TestMapStripeErrorPassThrough(t *testing.T) {
	plain := errors.New("connection refused")
	if got := mapStripeError(plain); got != plain {
		t.Errorf("Expected non-stripe errors to pass through, got %v", got)
	}
}
