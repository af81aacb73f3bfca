package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// RenewFunc extends a held lease by ttl.
// Returns domain.ErrLeaseLost (wrapped) if the lease is no longer owned.
type RenewFunc func(ctx context.Context, ttl time.Duration) error

// Lease is an owned claim on a key.
type Lease struct {
	Unlock UnlockFunc
	Renew  RenewFunc
}

// DistributedLocker claims exclusive ownership of a key across processes.
// The driver uses it to lease a presentation topic so a second presenter cannot drive it.
type DistributedLocker interface {
	// Lock acquires the lease for key, blocking until acquired or ctx is done.
	// The lease expires after ttl unless released earlier with the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

	// TryLock acquires the lease for key without waiting.
	// Returns domain.ErrLockHeld (wrapped) if another owner holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// RenewableLocker hands out leases their owner can keep alive.
type RenewableLocker interface {
	DistributedLocker

	// TryLease acquires the lease for key without waiting.
	// Returns domain.ErrLockHeld (wrapped) if another owner holds it.
	TryLease(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
