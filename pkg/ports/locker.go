package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired by a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work across processes, e.g. two sweeps writing the same
// run id.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done. The lock expires
	// after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
