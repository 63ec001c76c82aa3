package forecaststore

import (
	"context"
	"sync"
	"time"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
)

type cachedEntry struct {
	series    forecast.RawForecastSeries
	expiresAt time.Time
}

// MemoryStore is an in-memory forecast cache scoped to one session.
// Entries expire lazily on lookup; nothing evicts them proactively.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]cachedEntry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]cachedEntry),
		now:     time.Now,
	}
}

// Lookup returns the cached series when its age is still below the
// validity period used at save time.
func (s *MemoryStore) Lookup(_ context.Context, city string) (forecast.RawForecastSeries, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[city]
	s.mu.RUnlock()
	if !ok {
		return forecast.RawForecastSeries{}, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		return forecast.RawForecastSeries{}, false, nil
	}
	return entry.series, true, nil
}

// Save overwrites any prior entry for the city with a fresh timestamp.
func (s *MemoryStore) Save(_ context.Context, city string, series forecast.RawForecastSeries, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[city] = cachedEntry{
		series:    series,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Clear removes every entry; used only by the explicit reset path.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]cachedEntry)
	return nil
}

var _ forecast.Store = (*MemoryStore)(nil)
