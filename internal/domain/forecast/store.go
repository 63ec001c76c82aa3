package forecast

import (
	"context"
	"time"
)

// Store defines the cache contract for raw forecast series. Lookup
// must report a miss once an entry's age reaches the validity period;
// entries are never evicted proactively.
type Store interface {
	Lookup(ctx context.Context, city string) (RawForecastSeries, bool, error)
	Save(ctx context.Context, city string, series RawForecastSeries, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// StoreFactory builds an independently owned cache store for one
// conversation session.
type StoreFactory func(sessionID string) Store
