package ports

import (
	"context"

	"github.com/seu-repo/loja-checkout/internal/domain"
)

// ProcessorGateway is the merchant backend's interface to the external
// payment processor. Implementations must return *domain.CardError for
// processor-level rejections so callers can distinguish them from transport
// failures.
type ProcessorGateway interface {
	// CreateIntent creates a processor-side payment intent. The idempotency
	// key, when non-empty, is forwarded so transport retries do not create
	// duplicate intents.
	CreateIntent(ctx context.Context, amount float64, currency string, idempotencyKey string, metadata map[string]string) (*domain.PaymentIntent, error)

	// ConfirmIntent submits a tokenized payment method against an intent and
	// blocks until the processor reports a terminal status or an error.
	// Server-side confirmation is keyed by intent id and authenticated with
	// the processor secret key; the intent's client secret is never sent here.
	// It only gates client-side readiness before confirmation is attempted.
	ConfirmIntent(ctx context.Context, intentID string, paymentMethodID string) (*domain.PaymentIntent, error)

	// GetIntent fetches the current processor-side view of an intent.
	GetIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error)

	// Name returns the provider name.
	Name() string
}

// BackendAPI is the client-side view of the merchant backend's payment
// surface. This is what the checkout orchestration core talks to.
type BackendAPI interface {
	// FetchPaymentConfig retrieves the processor's publishable configuration.
	// Unauthenticated and idempotent.
	FetchPaymentConfig(ctx context.Context) (*domain.ProcessorConfig, error)

	// CreateIntent asks the backend to create a payment intent. Requires a
	// bearer token.
	CreateIntent(ctx context.Context, authToken string, req domain.CreateIntentRequest) (*domain.PaymentIntent, error)

	// ConfirmIntent reports a confirmed intent back for backend bookkeeping.
	ConfirmIntent(ctx context.Context, authToken string, intentID string) (*domain.PaymentIntent, error)
}

// IntentRepository stores merchant-side intent records. Implementations must
// serialize status reads and writes per provider intent id.
type IntentRepository interface {
	Save(ctx context.Context, rec *domain.IntentRecord) error
	FindByProviderID(ctx context.Context, providerID string) (*domain.IntentRecord, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.IntentRecord, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.IntentRecord, error)
}
