package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/ports"
)

// LocalCache is the in-process ports.Cache used when Redis is not
// configured. Its main tenant is the payment service's idempotency-key
// reservations, so expired entries must become invisible on access: a stale
// reservation served past its TTL would wrongly replay an old intent.
type LocalCache struct {
	mu    sync.Mutex
	items map[string]localItem
	log   *zap.Logger
	done  chan struct{}
}

type localItem struct {
	value    string
	deadline time.Time
}

func (it localItem) expired(now time.Time) bool {
	return !it.deadline.IsZero() && now.After(it.deadline)
}

// NewLocalCache creates an in-process cache. sweepInterval only bounds how
// long dead entries occupy memory; correctness does not depend on the sweep
// because Get drops stale items itself.
func NewLocalCache(sweepInterval time.Duration, log *zap.Logger) ports.Cache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	c := &LocalCache{
		items: make(map[string]localItem),
		log:   log,
		done:  make(chan struct{}),
	}
	go c.sweep(sweepInterval)

	log.Info("In-process cache initialized",
		zap.Duration("sweep_interval", sweepInterval),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if item.expired(time.Now()) {
		delete(c.items, key)
		return "", fmt.Errorf("key not found: %s", key)
	}
	return item.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	item := localItem{value: encoded}
	if expiration > 0 {
		item.deadline = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	close(c.done)
	return nil
}

// encodeValue normalizes values to strings the same way the Redis adapter
// stores them, so switching cache backends does not change what Get returns.
func encodeValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal value: %w", err)
		}
		return string(data), nil
	}
}

func (c *LocalCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			dropped := 0
			for key, item := range c.items {
				if item.expired(now) {
					delete(c.items, key)
					dropped++
				}
			}
			c.mu.Unlock()
			if dropped > 0 {
				c.log.Debug("Swept expired cache entries", zap.Int("dropped", dropped))
			}
		case <-c.done:
			return
		}
	}
}
