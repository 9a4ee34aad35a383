package checkout

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// SessionInitializer brings up the processor session exactly once per
// process lifetime. Concurrent first callers share a single in-flight config
// fetch; a failed fetch may be retried by a later call.
type SessionInitializer struct {
	backend     ports.BackendAPI
	environment string
	fallbackKey string
	log         *zap.Logger

	mu       sync.Mutex
	session  *domain.ProcessorSession
	lastErr  error
	inflight chan struct{}
}

// NewSessionInitializer creates a session initializer. fallbackKey is only
// honored outside production; pass "" to disable the fallback entirely.
func NewSessionInitializer(backend ports.BackendAPI, environment, fallbackKey string, log *zap.Logger) *SessionInitializer {
	return &SessionInitializer{
		backend:     backend,
		environment: environment,
		fallbackKey: fallbackKey,
		log:         log,
	}
}

// Initialize returns the ready processor session, fetching the publishable
// configuration from the backend on first use.
func (s *SessionInitializer) Initialize(ctx context.Context) (*domain.ProcessorSession, error) {
	s.mu.Lock()
	if s.session != nil {
		sess := *s.session
		s.mu.Unlock()
		return &sess, nil
	}
	if s.inflight != nil {
		ch := s.inflight
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return s.result()
	}

	ch := make(chan struct{})
	s.inflight = ch
	s.mu.Unlock()

	cfg, err := s.backend.FetchPaymentConfig(ctx)

	s.mu.Lock()
	defer func() {
		s.inflight = nil
		close(ch)
		s.mu.Unlock()
	}()

	if err != nil {
		if key, ok := s.fallback(); ok {
			s.log.Warn("Processor config fetch failed, using configured fallback key",
				zap.String("environment", s.environment),
				zap.Error(err),
			)
			s.session = &domain.ProcessorSession{PublishableKey: key, Ready: true}
			s.lastErr = nil
			sess := *s.session
			return &sess, nil
		}
		s.lastErr = fmt.Errorf("%w: %v", ErrConfigFetch, err)
		s.log.Error("Processor config fetch failed", zap.Error(err))
		return nil, s.lastErr
	}

	if cfg.PublishableKey == "" {
		s.lastErr = fmt.Errorf("%w: empty publishable key", ErrConfigFetch)
		return nil, s.lastErr
	}

	s.session = &domain.ProcessorSession{PublishableKey: cfg.PublishableKey, Ready: true}
	s.lastErr = nil
	s.log.Info("Processor session initialized")
	sess := *s.session
	return &sess, nil
}

// Ready reports whether the processor session is usable. Dependents must not
// attempt submission while false.
func (s *SessionInitializer) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.session.Ready
}

// Session returns the current session, or nil when not initialized.
func (s *SessionInitializer) Session() *domain.ProcessorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

func (s *SessionInitializer) result() (*domain.ProcessorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		sess := *s.session
		return &sess, nil
	}
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	return nil, ErrConfigFetch
}

// fallback reports whether the statically configured key may be used. Never
// in production: a fetch failure there is a hard error.
func (s *SessionInitializer) fallback() (string, bool) {
	if s.fallbackKey == "" || s.environment == "production" {
		return "", false
	}
	return s.fallbackKey, true
}
