package driven

import (
	"context"
	"time"
)

// DistributedLock serialises indexing runs against the same project root.
// Lock names are "index:" followed by the absolute root.
type DistributedLock interface {
	// Acquire takes name for ttl. acquired is false when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops name. Releasing a lock that is not held is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock to ttl from now and fails when
	// the lock is no longer held. Backends without expiry only check ownership.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks the lock backend
	Ping(ctx context.Context) error
}
