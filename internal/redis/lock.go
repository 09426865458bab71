package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireWalletLock attempts to acquire a lock for the given user's wallet.
// Returns true if the lock was acquired, false if already held. The lock
// serializes the multi-step funding sequences (debit, payment record,
// dispatch) per user.
func (s *LockStore) AcquireWalletLock(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:wallet:%s", userID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseWalletLock releases the lock for the given user's wallet.
func (s *LockStore) ReleaseWalletLock(ctx context.Context, userID string) error {
	key := fmt.Sprintf("lock:wallet:%s", userID)

	return s.client.Del(ctx, key).Err()
}
