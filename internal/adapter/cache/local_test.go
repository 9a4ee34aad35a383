package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLocalCacheSetGet(t *testing.T) {
	c := NewLocalCache(time.Minute, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", "value-1", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "value-1" {
		t.Errorf("Expected value-1, got %q", got)
	}

	if _, err := c.Get(ctx, "missing"); err == nil {
		t.Error("Expected an error for a missing key")
	}
}

func TestLocalCacheExpiration(t *testing.T) {
	c := NewLocalCache(time.Minute, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", "value-1", 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := c.Get(ctx, "key-1"); err == nil {
		t.Error("Expected the entry to be expired")
	}
}

func TestLocalCacheExpiredKeyCanBeReserved(t *testing.T) {
	// Sweep interval far in the future: expiry must hold on access alone.
	c := NewLocalCache(time.Hour, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "payment:idem:user-1:k1", "pi_old", 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := c.Get(ctx, "payment:idem:user-1:k1"); err == nil {
		t.Fatal("Expected the expired reservation to be gone")
	}

	if err := c.Set(ctx, "payment:idem:user-1:k1", "pi_new", time.Hour); err != nil {
		t.Fatalf("Re-reserve failed: %v", err)
	}
	got, err := c.Get(ctx, "payment:idem:user-1:k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "pi_new" {
		t.Errorf("Expected the new reservation, got %q", got)
	}
}

func TestLocalCacheDelete(t *testing.T) {
	c := NewLocalCache(time.Minute, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", "value-1", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Delete(ctx, "key-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "key-1"); err == nil {
		t.Error("Expected the key to be gone")
	}
}

func TestLocalCacheMarshalsStructs(t *testing.T) {
	c := NewLocalCache(time.Minute, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", map[string]string{"a": "b"}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `{"a":"b"}` {
		t.Errorf("Unexpected serialized value: %q", got)
	}
}
