package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire is returned when Redis fails while acquiring a lease.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

const lockPollInterval = 100 * time.Millisecond

// unlockScript deletes the key only if we still own it.
var unlockScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// renewScript extends the key only if we still own it.
var renewScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Locker implements ports.RenewableLocker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

func (l *Locker) key(key string) string {
	return l.prefix + "lock:" + key
}

// Lock polls until the lease for key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		unlock, err := l.TryLock(ctx, key, ttl)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, domain.ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TryLock makes a single attempt at the lease for key.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lease, err := l.TryLease(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lease.Unlock, nil
}

// TryLease makes a single attempt at the lease for key and returns it with a renewer.
func (l *Locker) TryLease(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	lockKey := l.key(key)
	val := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
	if err != nil {
		return ports.Lease{}, fmt.Errorf("%w: %v", ErrLockAcquire, err)
	}
	if !ok {
		return ports.Lease{}, fmt.Errorf("%w: %s", domain.ErrLockHeld, key)
	}

	return ports.Lease{
		Unlock: func(ctx context.Context) error {
			return unlockScript.Run(ctx, l.client, []string{lockKey}, val).Err()
		},
		Renew: func(ctx context.Context, ttl time.Duration) error {
			n, err := renewScript.Run(ctx, l.client, []string{lockKey}, val, ttl.Milliseconds()).Int()
			if err != nil {
				return fmt.Errorf("renew lease %s: %w", key, err)
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", domain.ErrLeaseLost, key)
			}
			return nil
		},
	}, nil
}
