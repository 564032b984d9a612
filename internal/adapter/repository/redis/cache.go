package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// DefaultBalanceTTL bounds how stale a cached balance can get if an
// invalidation is lost.
const DefaultBalanceTTL = 30 * time.Second

// BalanceCache implements usecase.BalanceCache using Redis.
type BalanceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewBalanceCache creates a new BalanceCache.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &BalanceCache{
		client: client,
		prefix: "balance:",
		ttl:    ttl,
	}
}

type cachedBalance struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Version       int64           `json:"version"`
	LastUpdated   time.Time       `json:"last_updated"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Get returns the cached balance of a store, if any.
func (c *BalanceCache) Get(ctx context.Context, storeID string) (*domain.BalanceAccount, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+storeID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached cachedBalance
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("corrupt cached balance for store %s: %w", storeID, err)
	}

	return &domain.BalanceAccount{
		ID:            cached.ID,
		StoreID:       cached.StoreID,
		CurrentAmount: cached.CurrentAmount,
		Version:       cached.Version,
		LastUpdated:   cached.LastUpdated,
		CreatedAt:     cached.CreatedAt,
	}, true, nil
}

// Set stores a balance snapshot.
func (c *BalanceCache) Set(ctx context.Context, account *domain.BalanceAccount) error {
	raw, err := json.Marshal(cachedBalance{
		ID:            account.ID,
		StoreID:       account.StoreID,
		CurrentAmount: account.CurrentAmount,
		Version:       account.Version,
		LastUpdated:   account.LastUpdated,
		CreatedAt:     account.CreatedAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+account.StoreID, raw, c.ttl).Err()
}

// Invalidate drops the cached balance of a store.
func (c *BalanceCache) Invalidate(ctx context.Context, storeID string) error {
	return c.client.Del(ctx, c.prefix+storeID).Err()
}
