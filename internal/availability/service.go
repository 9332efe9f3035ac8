package availability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

var ErrInvalidRange = errors.New("range start is after range end")

// Gate decides whether the practitioner accepts appointments on a day and
// controls when that decision may change.
type Gate struct {
	repo   Repository
	cache  Cache
	policy *schedule.Policy
}

// NewGate builds a gate. cache may be nil.
func NewGate(repo Repository, cache Cache, policy *schedule.Policy) *Gate {
	return &Gate{
		repo:   repo,
		cache:  cache,
		policy: policy,
	}
}

// Lookup resolves the tagged availability of a day without writing anything.
func (g *Gate) Lookup(ctx context.Context, date time.Time) (Lookup, error) {
	day := g.policy.Normalize(date)

	if g.cache != nil {
		l, ok, err := g.cache.Get(ctx, day)
		if err != nil {
			log.Printf("availability cache get date=%s: %v", schedule.DateKey(day), err)
		} else if ok {
			return l, nil
		}
	}

	rec, err := g.repo.Get(ctx, day)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return Lookup{}, fmt.Errorf("load availability: %w", err)
	}
	l := Resolve(rec)

	if g.cache != nil {
		if err := g.cache.Put(ctx, day, l); err != nil {
			log.Printf("availability cache put date=%s: %v", schedule.DateKey(day), err)
		}
	}

	return l, nil
}

// GetAvailability returns the stored record for the day, or the open default.
func (g *Gate) GetAvailability(ctx context.Context, date time.Time) (Record, error) {
	day := g.policy.Normalize(date)
	l, err := g.Lookup(ctx, day)
	if err != nil {
		return Record{}, err
	}
	return l.Record(day), nil
}

// SetAvailability upserts the flag for a day. It is rejected once the daily
// cutoff has passed, since the next booking window opens at the same time.
func (g *Gate) SetAvailability(ctx context.Context, date time.Time, available bool, actor *uuid.UUID) (*Record, error) {
	if err := g.policy.CheckAvailabilityEdit(); err != nil {
		return nil, err
	}

	day := g.policy.Normalize(date)
	rec, err := g.repo.Upsert(ctx, Record{
		Date:      day,
		Available: available,
		UpdatedBy: actor,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	if g.cache != nil {
		if err := g.cache.Invalidate(ctx, day); err != nil {
			log.Printf("availability cache invalidate date=%s: %v", schedule.DateKey(day), err)
		}
	}

	return rec, nil
}

// GetAvailabilityRange lists stored records only; days without a record are
// absent and callers apply the default themselves.
func (g *Gate) GetAvailabilityRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	from := g.policy.Normalize(start)
	to := g.policy.Normalize(end)
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	records, err := g.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return records, nil
}
