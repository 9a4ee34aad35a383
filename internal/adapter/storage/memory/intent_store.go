package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/seu-repo/loja-checkout/internal/domain"
)

// IntentStore is an in-memory ports.IntentRepository for dev and tests. A
// single RWMutex serializes all access, which satisfies the per-intent
// serialization requirement trivially.
type IntentStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.IntentRecord // keyed by provider intent id
	byIdem  map[string]string              // userID+key -> provider intent id
	ordered []string
}

func NewIntentStore() *IntentStore {
	return &IntentStore{
		byID:   make(map[string]domain.IntentRecord),
		byIdem: make(map[string]string),
	}
}

func (s *IntentStore) Save(ctx context.Context, rec *domain.IntentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ProviderID]; !exists {
		s.ordered = append(s.ordered, rec.ProviderID)
	}
	s.byID[rec.ProviderID] = *rec
	if rec.IdempotencyKey != "" {
		s.byIdem[rec.UserID+":"+rec.IdempotencyKey] = rec.ProviderID
	}
	return nil
}

func (s *IntentStore) FindByProviderID(ctx context.Context, providerID string) (*domain.IntentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[providerID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *IntentStore) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.IntentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providerID, ok := s.byIdem[userID+":"+key]
	if !ok {
		return nil, nil
	}
	rec, ok := s.byID[providerID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *IntentStore) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.IntentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []domain.IntentRecord
	for _, id := range s.ordered {
		rec := s.byID[id]
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	if offset >= len(recs) {
		return nil, nil
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs, nil
}
