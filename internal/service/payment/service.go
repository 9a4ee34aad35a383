package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/observability/telemetry"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// ErrIntentNotFound is returned when a confirm call references an unknown
// intent.
var ErrIntentNotFound = errors.New("payment intent not found")

// Config holds payment service configuration.
type Config struct {
	PublishableKey  string
	DefaultCurrency string
	IdempotencyTTL  time.Duration
}

// Service is the merchant backend's payment service: it creates intents
// through the processor gateway, de-duplicates on idempotency keys, and does
// confirm-time bookkeeping.
type Service struct {
	config  *Config
	gateway ports.ProcessorGateway
	repo    ports.IntentRepository
	cache   ports.Cache
	mq      ports.MessageQueue
	log     *zap.Logger

	// Serializes status reads/writes per provider intent id so a concurrent
	// caller never observes a stale pre-confirmation status.
	locks sync.Map
}

func NewService(config *Config, gateway ports.ProcessorGateway, repo ports.IntentRepository, cache ports.Cache, mq ports.MessageQueue, log *zap.Logger) *Service {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		config:  config,
		gateway: gateway,
		repo:    repo,
		cache:   cache,
		mq:      mq,
		log:     log,
	}
}

// ProcessorConfig returns the public processor configuration served on
// GET /payment/config.
func (s *Service) ProcessorConfig() *domain.ProcessorConfig {
	return &domain.ProcessorConfig{PublishableKey: s.config.PublishableKey}
}

// CreateIntent creates a payment intent for the user. When the request
// carries an idempotency key already seen for this user, the original intent
// is returned instead of creating a duplicate.
func (s *Service) CreateIntent(ctx context.Context, userID string, req domain.CreateIntentRequest) (*domain.PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	if req.IdempotencyKey != "" {
		if intentID := s.lookupIdempotencyKey(ctx, userID, req.IdempotencyKey); intentID != "" {
			telemetry.IntentsDeduplicatedTotal.Inc()
			s.log.Info("Reusing intent for idempotency key",
				zap.String("user_id", userID),
				zap.String("intent_id", intentID),
			)
			return s.gateway.GetIntent(ctx, intentID)
		}
	}

	record := &domain.IntentRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		IdempotencyKey: req.IdempotencyKey,
		Amount:         req.Amount,
		Currency:       currency,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	intent, err := s.gateway.CreateIntent(ctx, req.Amount, currency, req.IdempotencyKey, map[string]string{
		"user_id":   userID,
		"record_id": record.ID,
	})
	if err != nil {
		telemetry.ProcessorRequestsTotal.WithLabelValues("create_intent", "error").Inc()
		s.log.Error("Failed to create payment intent",
			zap.String("user_id", userID),
			zap.Float64("amount", req.Amount),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	telemetry.ProcessorRequestsTotal.WithLabelValues("create_intent", "ok").Inc()
	telemetry.IntentsCreatedTotal.Inc()

	record.ProviderID = intent.ID
	record.Status = intent.Status
	if err := s.repo.Save(ctx, record); err != nil {
		s.log.Error("Failed to save intent record",
			zap.String("intent_id", intent.ID),
			zap.Error(err),
		)
	}

	if req.IdempotencyKey != "" && s.cache != nil {
		key := idempotencyCacheKey(userID, req.IdempotencyKey)
		if err := s.cache.Set(ctx, key, intent.ID, s.config.IdempotencyTTL); err != nil {
			s.log.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	s.publish(domain.PaymentEvent{
		Type:      domain.EventIntentCreated,
		IntentID:  intent.ID,
		UserID:    userID,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		Status:    intent.Status,
		Timestamp: time.Now(),
	})

	s.log.Info("Payment intent created",
		zap.String("user_id", userID),
		zap.String("intent_id", intent.ID),
		zap.Float64("amount", intent.Amount),
	)

	return intent, nil
}

// Confirm refreshes the intent's processor-side status and records the
// outcome. Calls for the same intent are serialized.
func (s *Service) Confirm(ctx context.Context, userID string, intentID string) (*domain.PaymentIntent, error) {
	if intentID == "" {
		return nil, errors.New("payment intent id is required")
	}

	unlock := s.lockIntent(intentID)
	defer unlock()

	record, err := s.repo.FindByProviderID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load intent record: %w", err)
	}
	if record == nil || record.UserID != userID {
		return nil, ErrIntentNotFound
	}

	start := time.Now()
	intent, err := s.gateway.GetIntent(ctx, intentID)
	telemetry.ConfirmationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.ProcessorRequestsTotal.WithLabelValues("get_intent", "error").Inc()
		return nil, fmt.Errorf("failed to fetch intent from processor: %w", err)
	}
	telemetry.ProcessorRequestsTotal.WithLabelValues("get_intent", "ok").Inc()

	previous := record.Status
	record.Status = intent.Status
	record.UpdatedAt = time.Now()

	switch intent.Status {
	case domain.IntentStatusSucceeded:
		if previous != domain.IntentStatusSucceeded {
			now := time.Now()
			record.CompletedAt = &now
			s.publish(domain.PaymentEvent{
				Type:      domain.EventPaymentSucceeded,
				IntentID:  intent.ID,
				UserID:    userID,
				Amount:    intent.Amount,
				Currency:  intent.Currency,
				Status:    intent.Status,
				Timestamp: now,
			})
		}
	case domain.IntentStatusFailed, domain.IntentStatusCanceled:
		s.publish(domain.PaymentEvent{
			Type:      domain.EventPaymentFailed,
			IntentID:  intent.ID,
			UserID:    userID,
			Amount:    intent.Amount,
			Currency:  intent.Currency,
			Status:    intent.Status,
			Timestamp: time.Now(),
		})
	}
	telemetry.ConfirmationsTotal.WithLabelValues(string(intent.Status)).Inc()

	if err := s.repo.Save(ctx, record); err != nil {
		s.log.Error("Failed to update intent record",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("Intent bookkeeping updated",
		zap.String("intent_id", intentID),
		zap.String("status", string(intent.Status)),
	)

	return intent, nil
}

// History returns the user's intent records, newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]domain.IntentRecord, error) {
	return s.repo.FindByUserID(ctx, userID, limit, offset)
}

// lookupIdempotencyKey checks the cache first, then the durable store.
func (s *Service) lookupIdempotencyKey(ctx context.Context, userID, key string) string {
	if s.cache != nil {
		if intentID, err := s.cache.Get(ctx, idempotencyCacheKey(userID, key)); err == nil && intentID != "" {
			return intentID
		}
	}
	if existing, err := s.repo.FindByIdempotencyKey(ctx, userID, key); err == nil && existing != nil {
		return existing.ProviderID
	}
	return ""
}

func (s *Service) lockIntent(intentID string) func() {
	muIface, _ := s.locks.LoadOrStore(intentID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) publish(event domain.PaymentEvent) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("Failed to marshal payment event", zap.Error(err))
		return
	}
	if err := s.mq.Publish(event.Type, data); err != nil {
		s.log.Error("Failed to publish payment event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}

func idempotencyCacheKey(userID, key string) string {
	return fmt.Sprintf("payment:idem:%s:%s", userID, key)
}
