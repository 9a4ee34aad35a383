package domain

import (
	"time"
)

// IntentStatus represents the lifecycle status of a payment intent as
// reported by the payment processor.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusFailed                IntentStatus = "failed"
	IntentStatusCanceled              IntentStatus = "canceled"
)

// Terminal reports whether the status can no longer change.
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusFailed || s == IntentStatusCanceled
}

// PaymentIntent is the client-side projection of a backend-tracked intent.
// Amount and Currency are immutable after creation. ClientSecret is
// single-use and must never be logged or persisted beyond the active
// submission.
type PaymentIntent struct {
	ID           string       `json:"id"`
	ClientSecret string       `json:"client_secret"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	Status       IntentStatus `json:"status"`
}

// ProcessorConfig is the public processor configuration served by the
// merchant backend. Unauthenticated and cacheable for the process lifetime.
type ProcessorConfig struct {
	PublishableKey string `json:"publishableKey"`
}

// ProcessorSession is the long-lived handle to the external processor's
// client-side capability. Owned by the session initializer; other components
// only read it.
type ProcessorSession struct {
	PublishableKey string
	Ready          bool
}

// CardInput is an opaque reference to card data tokenized inside the
// processor's sandboxed widget. The orchestration core never sees raw card
// numbers, only this handle.
type CardInput struct {
	PaymentMethodID string
}

// Attached reports whether a card widget produced a usable token.
func (c CardInput) Attached() bool {
	return c.PaymentMethodID != ""
}

// CreateIntentRequest is the authenticated create-intent call body.
type CreateIntentRequest struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// ConfirmRequest is the backend-side bookkeeping call body.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// IntentRecord is the merchant backend's durable record of one attempted
// charge. ProviderID is the processor-side intent id.
type IntentRecord struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	UserID         string       `json:"user_id" gorm:"index"`
	ProviderID     string       `json:"provider_id" gorm:"uniqueIndex"`
	IdempotencyKey string       `json:"idempotency_key,omitempty" gorm:"index"`
	Amount         float64      `json:"amount"`
	Currency       string       `json:"currency"`
	Status         IntentStatus `json:"status"`
	FailureReason  string       `json:"failure_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// Event types published on the message queue when an intent changes state.
const (
	EventIntentCreated    = "payment.intent.created"
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is the queue payload for intent state changes.
type PaymentEvent struct {
	Type      string       `json:"type"`
	IntentID  string       `json:"intent_id"`
	UserID    string       `json:"user_id,omitempty"`
	Amount    float64      `json:"amount"`
	Currency  string       `json:"currency"`
	Status    IntentStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}
