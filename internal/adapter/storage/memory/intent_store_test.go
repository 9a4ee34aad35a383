package memory

import (
	"context"
	"testing"
	"time"

	"github.com/seu-repo/loja-checkout/internal/domain"
)

func record(providerID, userID, idemKey string, createdAt time.Time) *domain.IntentRecord {
	return &domain.IntentRecord{
		ID:             "rec-" + providerID,
		UserID:         userID,
		ProviderID:     providerID,
		IdempotencyKey: idemKey,
		Amount:         50.0,
		Currency:       "brl",
		Status:         domain.IntentStatusRequiresConfirmation,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestSaveAndFindByProviderID(t *testing.T) {
	store := NewIntentStore()
	ctx := context.Background()

	if err := store.Save(ctx, record("pi_1", "user-1", "", time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := store.FindByProviderID(ctx, "pi_1")
	if err != nil {
		t.Fatalf("FindByProviderID failed: %v", err)
	}
	if rec == nil || rec.UserID != "user-1" {
		t.Fatalf("Unexpected record: %+v", rec)
	}

	missing, err := store.FindByProviderID(ctx, "pi_missing")
	if err != nil {
		t.Fatalf("FindByProviderID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown id, got %+v", missing)
	}
}

func TestSaveUpdatesExistingRecord(t *testing.T) {
	store := NewIntentStore()
	ctx := context.Background()

	rec := record("pi_1", "user-1", "", time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec.Status = domain.IntentStatusSucceeded
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.FindByProviderID(ctx, "pi_1")
	if got.Status != domain.IntentStatusSucceeded {
		t.Errorf("Expected updated status, got %s", got.Status)
	}

	recs, _ := store.FindByUserID(ctx, "user-1", 0, 0)
	if len(recs) != 1 {
		t.Errorf("Expected 1 record after update, got %d", len(recs))
	}
}

func TestFindByIdempotencyKeyIsUserScoped(t *testing.T) {
	store := NewIntentStore()
	ctx := context.Background()

	if err := store.Save(ctx, record("pi_1", "user-1", "idem-1", time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := store.FindByIdempotencyKey(ctx, "user-1", "idem-1")
	if err != nil {
		t.Fatalf("FindByIdempotencyKey failed: %v", err)
	}
	if rec == nil || rec.ProviderID != "pi_1" {
		t.Fatalf("Unexpected record: %+v", rec)
	}

	other, err := store.FindByIdempotencyKey(ctx, "user-2", "idem-1")
	if err != nil {
		t.Fatalf("FindByIdempotencyKey failed: %v", err)
	}
	if other != nil {
		t.Errorf("Expected no record for another user, got %+v", other)
	}
}

func TestFindByUserIDNewestFirstWithPaging(t *testing.T) {
	store := NewIntentStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"pi_1", "pi_2", "pi_3"} {
		rec := record(id, "user-1", "", base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := store.Save(ctx, record("pi_other", "user-2", "", base)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	recs, err := store.FindByUserID(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("FindByUserID failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[0].ProviderID != "pi_3" || recs[1].ProviderID != "pi_2" {
		t.Errorf("Expected newest first, got %s, %s", recs[0].ProviderID, recs[1].ProviderID)
	}

	page2, err := store.FindByUserID(ctx, "user-1", 2, 2)
	if err != nil {
		t.Fatalf("FindByUserID failed: %v", err)
	}
	if len(page2) != 1 || page2[0].ProviderID != "pi_1" {
		t.Errorf("Unexpected second page: %+v", page2)
	}

	empty, err := store.FindByUserID(ctx, "user-1", 2, 10)
	if err != nil {
		t.Fatalf("FindByUserID failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty page past the end, got %d", len(empty))
	}
}

func TestMutatingReturnedRecordDoesNotAffectStore(t *testing.T) {
	store := NewIntentStore()
	ctx := context.Background()

	if err := store.Save(ctx, record("pi_1", "user-1", "", time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, _ := store.FindByProviderID(ctx, "pi_1")
	rec.Status = domain.IntentStatusCanceled

	again, _ := store.FindByProviderID(ctx, "pi_1")
	if again.Status == domain.IntentStatusCanceled {
		t.Error("Store must return copies, not shared state")
	}
}
