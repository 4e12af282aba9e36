package port

import (
	"context"

	"github.com/rl1809/itemstore/internal/core/domain"
)

type SequenceAllocator interface {
	// NextValue atomically creates-or-increments the named counter and returns the new value
	NextValue(ctx context.Context, name string) (int64, error)
}

type CounterReader interface {
	// Counter returns the last value handed out for name, zero if none yet
	Counter(ctx context.Context, name string) (domain.Counter, error)
}
