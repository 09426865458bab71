package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireWalletLock(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ReleaseWalletLock(ctx context.Context, userID string) error
}

// CacheStoreInterface defines the interface for wallet caching.
type CacheStoreInterface interface {
	GetWallet(ctx context.Context, userID string) (*CachedWallet, error)
	SetWallet(ctx context.Context, wallet *CachedWallet) error
	InvalidateWallet(ctx context.Context, userID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
