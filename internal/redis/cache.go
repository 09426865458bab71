package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// WalletCacheTTL is deliberately short: the balance is mutated by payments,
// withdrawals and settlements, and stale reads are only tolerable for the
// read-only wallet endpoint.
const WalletCacheTTL = 10 * time.Second

const walletCachePrefix = "cache:wallet:"

// CachedWallet represents a cached wallet entity. The balance is kept as a
// string to avoid float drift in the cache round-trip.
type CachedWallet struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

// GetWallet retrieves a wallet from cache.
func (s *CacheStore) GetWallet(ctx context.Context, userID string) (*CachedWallet, error) {
	key := walletCachePrefix + userID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var wallet CachedWallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// SetWallet stores a wallet in cache.
func (s *CacheStore) SetWallet(ctx context.Context, wallet *CachedWallet) error {
	key := walletCachePrefix + wallet.UserID
	data, err := json.Marshal(wallet)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, WalletCacheTTL).Err()
}

// InvalidateWallet removes a wallet from cache. Called after every credit
// and debit so the read path never serves a settled-over balance.
func (s *CacheStore) InvalidateWallet(ctx context.Context, userID string) error {
	key := walletCachePrefix + userID
	return s.client.Del(ctx, key).Err()
}
