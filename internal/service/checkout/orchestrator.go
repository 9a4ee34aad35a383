package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// Phase is the state of one in-flight submission.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseCreatingIntent       Phase = "creating_intent"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseConfirming           Phase = "confirming"
	PhaseSucceeded            Phase = "succeeded"
	PhaseFailed               Phase = "failed"
)

// inFlight reports whether a new submit must be rejected.
func (p Phase) inFlight() bool {
	return p == PhaseCreatingIntent || p == PhaseAwaitingConfirmation || p == PhaseConfirming
}

// Submission is the ephemeral state of one logical payment attempt. It owns
// the idempotency key and, once created, the intent reused across retries.
// A fresh Submission is required to start a new payment after success.
type Submission struct {
	mu             sync.Mutex
	phase          Phase
	errMessage     string
	intent         *domain.PaymentIntent
	idempotencyKey string
	reported       bool
}

func NewSubmission() *Submission {
	return &Submission{
		phase:          PhaseIdle,
		idempotencyKey: uuid.New().String(),
	}
}

// Phase returns the current phase.
func (s *Submission) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ErrorMessage returns the last failure message, if any.
func (s *Submission) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// IntentID returns the id of the intent attached to this submission, or ""
// before one exists.
func (s *Submission) IntentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intent == nil {
		return ""
	}
	return s.intent.ID
}

// Orchestrator sequences session readiness, intent creation and confirmation
// for a submission, and reports a terminal outcome through the Reporter
// boundary.
type Orchestrator struct {
	sessions  *SessionInitializer
	intents   *IntentRequester
	confirmer *ConfirmationCoordinator
	backend   ports.BackendAPI
	tokens    ports.TokenSource
	reporter  Reporter
	log       *zap.Logger
}

func NewOrchestrator(
	sessions *SessionInitializer,
	intents *IntentRequester,
	confirmer *ConfirmationCoordinator,
	backend ports.BackendAPI,
	tokens ports.TokenSource,
	reporter Reporter,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		intents:   intents,
		confirmer: confirmer,
		backend:   backend,
		tokens:    tokens,
		reporter:  reporter,
		log:       log,
	}
}

// Submit drives one payment attempt to a terminal outcome. While the
// submission is in flight further Submit calls are rejected without side
// effects; after success they are no-ops. A failed submission may be
// resubmitted and reuses its intent when amount and currency are unchanged.
func (o *Orchestrator) Submit(ctx context.Context, sub *Submission, amount float64, currency string, card domain.CardInput) (err error) {
	sub.mu.Lock()
	switch {
	case sub.phase == PhaseSucceeded:
		sub.mu.Unlock()
		return ErrSubmissionFinished
	case sub.phase.inFlight():
		sub.mu.Unlock()
		return ErrSubmissionInFlight
	}

	token := ""
	if o.tokens != nil {
		token = o.tokens.Token()
	}

	// Guard checks happen before entering CreatingIntent: no network call is
	// issued when a precondition is unmet.
	if guardErr := o.checkGuards(token, card); guardErr != nil {
		sub.phase = PhaseFailed
		sub.errMessage = guardErr.Error()
		sub.mu.Unlock()
		o.reporter.PaymentFailed(guardErr.Error())
		return guardErr
	}

	sub.phase = PhaseCreatingIntent
	intent := sub.intent
	idemKey := sub.idempotencyKey
	sub.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Panic during payment submission", zap.Any("panic", r))
			o.fail(sub, genericFailureMessage)
			err = fmt.Errorf("%s: %v", genericFailureMessage, r)
		}
	}()

	// An intent left over from a declined attempt is reused as long as the
	// submission parameters are unchanged; a changed amount or currency
	// starts over with a fresh intent and a fresh idempotency key.
	if intent != nil && (intent.Amount != amount || intent.Currency != currency) {
		intent = nil
		idemKey = uuid.New().String()
		sub.mu.Lock()
		sub.intent = nil
		sub.idempotencyKey = idemKey
		sub.mu.Unlock()
	}

	if intent == nil {
		intent, err = o.intents.CreateIntent(ctx, token, amount, currency, idemKey)
		if err != nil {
			// Backend create-intent errors are surfaced verbatim.
			o.fail(sub, err.Error())
			return err
		}
		sub.mu.Lock()
		sub.intent = intent
		sub.mu.Unlock()
	}

	// Submit drives confirmation immediately after intent creation, so the
	// submission passes through AwaitingConfirmation without a user pause.
	sub.mu.Lock()
	sub.phase = PhaseAwaitingConfirmation
	sub.phase = PhaseConfirming
	sub.mu.Unlock()

	confirmedID, err := o.confirmer.Confirm(ctx, intent, card, o.sessions.Session())
	if err != nil {
		var msg string
		if ce, ok := err.(*ConfirmationError); ok {
			msg = ce.UserMessage()
		} else {
			msg = genericFailureMessage
		}
		o.fail(sub, msg)
		return err
	}

	// Backend bookkeeping is best-effort: the charge is captured, so a
	// bookkeeping failure must not be surfaced as a payment failure.
	if o.backend != nil {
		if _, bkErr := o.backend.ConfirmIntent(ctx, token, confirmedID); bkErr != nil {
			o.log.Warn("Backend confirm bookkeeping failed",
				zap.String("intent_id", confirmedID),
				zap.Error(bkErr),
			)
		}
	}

	sub.mu.Lock()
	sub.phase = PhaseSucceeded
	sub.errMessage = ""
	alreadyReported := sub.reported
	sub.reported = true
	sub.mu.Unlock()

	if !alreadyReported {
		o.reporter.PaymentSucceeded(confirmedID)
	}

	o.log.Info("Payment submission succeeded", zap.String("intent_id", confirmedID))
	return nil
}

func (o *Orchestrator) checkGuards(token string, card domain.CardInput) error {
	if !o.sessions.Ready() {
		return fmt.Errorf("%w: processor session not ready", ErrNotReady)
	}
	if token == "" {
		return fmt.Errorf("%w: not authenticated", ErrNotReady)
	}
	if !card.Attached() {
		return fmt.Errorf("%w: no card attached", ErrNotReady)
	}
	return nil
}

func (o *Orchestrator) fail(sub *Submission, message string) {
	sub.mu.Lock()
	sub.phase = PhaseFailed
	sub.errMessage = message
	sub.mu.Unlock()
	o.reporter.PaymentFailed(message)
}
