package availability

import (
	"context"
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("availability record not found")

type Repository interface {
	Get(ctx context.Context, day time.Time) (*Record, error)
	Upsert(ctx context.Context, rec Record) (*Record, error)
	// ListRange returns stored records with start <= date <= end.
	ListRange(ctx context.Context, start, end time.Time) ([]Record, error)
}

// Cache is an optional read-through cache of lookups keyed by day.
type Cache interface {
	Get(ctx context.Context, day time.Time) (Lookup, bool, error)
	Put(ctx context.Context, day time.Time, l Lookup) error
	Invalidate(ctx context.Context, day time.Time) error
}
