package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const sunTimeLayout = "2006-01-02 15:04"

// Provider resolves city names and fetches raw forecast series from
// the upstream weather API.
type Provider interface {
	Resolve(ctx context.Context, city string) (Coordinates, error)
	FetchForecast(ctx context.Context, city string, coords Coordinates) (RawForecastSeries, error)
}

// Service is the session-scoped forecast facade: it gates upstream
// fetches through the cache and accumulates per-city summaries across
// conversation turns. Each conversation session owns one Service.
type Service struct {
	provider Provider
	cache    Store
	validity time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	known     map[string]struct{}
	forecasts map[string]CityForecast
}

// NewService builds a forecast service around a provider and a cache.
func NewService(provider Provider, cache Store, validity time.Duration, logger *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		cache:     cache,
		validity:  validity,
		logger:    logger.With("component", "forecast.service"),
		now:       time.Now,
		known:     make(map[string]struct{}),
		forecasts: make(map[string]CityForecast),
	}
}

// Merge folds newly mentioned cities into the accumulated session
// state and returns the full set of known cities plus their
// forecasts. Cities already known are never refetched within the
// session, even when their cache entry has expired; error-marked
// cities count as known too.
func (s *Service) Merge(ctx context.Context, cities []string) ([]string, map[string]CityForecast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]string, 0, len(cities))
	for _, city := range cities {
		if _, ok := s.known[city]; ok {
			continue
		}
		s.known[city] = struct{}{}
		fresh = append(fresh, city)
	}

	if len(fresh) > 0 {
		for city, result := range s.fetchBatch(ctx, fresh) {
			if result.Err != nil {
				s.forecasts[city] = CityForecast{Err: result.Err}
				continue
			}
			s.forecasts[city] = CityForecast{
				Sunrise: result.Series.Sunrise.Format(sunTimeLayout),
				Sunset:  result.Series.Sunset.Format(sunTimeLayout),
				Daily:   Aggregate(result.Series, s.now()),
			}
		}
	}

	return s.knownLocked(), s.forecastsLocked()
}

// Accumulated returns the session state without fetching anything.
func (s *Service) Accumulated() ([]string, map[string]CityForecast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownLocked(), s.forecastsLocked()
}

// Reset wipes the cache and the accumulated state atomically.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known = make(map[string]struct{})
	s.forecasts = make(map[string]CityForecast)
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("forecast cache clear failed", "error", err)
	}
}

// fetchBatch resolves and fetches each city independently; one city's
// failure never aborts the rest of the batch. Callers hold s.mu.
func (s *Service) fetchBatch(ctx context.Context, cities []string) map[string]FetchResult {
	results := make(map[string]FetchResult, len(cities))

	for _, city := range cities {
		if series, ok := s.cacheLookup(ctx, city); ok {
			results[city] = FetchResult{Series: series}
			continue
		}

		coords, err := s.provider.Resolve(ctx, city)
		if err != nil {
			s.logger.Warn("city could not be resolved", "city", city, "error", err)
			results[city] = FetchResult{Err: asFetchError(err, ErrUnresolvableLocation)}
			continue
		}

		series, err := s.provider.FetchForecast(ctx, city, coords)
		if err != nil {
			s.logger.Warn("forecast fetch failed", "city", city, "error", err)
			results[city] = FetchResult{Err: asFetchError(err, ErrUpstreamFetch)}
			continue
		}

		if err := s.cache.Save(ctx, city, series, s.validity); err != nil {
			s.logger.Warn("forecast cache save failed", "city", city, "error", err)
		}
		results[city] = FetchResult{Series: series}
	}

	return results
}

func (s *Service) cacheLookup(ctx context.Context, city string) (RawForecastSeries, bool) {
	series, ok, err := s.cache.Lookup(ctx, city)
	if err != nil {
		// A broken cache degrades to a miss rather than failing the city.
		s.logger.Warn("forecast cache lookup failed", "city", city, "error", err)
		return RawForecastSeries{}, false
	}
	return series, ok
}

func (s *Service) knownLocked() []string {
	cities := make([]string, 0, len(s.known))
	for city := range s.known {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

func (s *Service) forecastsLocked() map[string]CityForecast {
	out := make(map[string]CityForecast, len(s.forecasts))
	for city, fc := range s.forecasts {
		out[city] = fc
	}
	return out
}

func asFetchError(err error, fallback ErrorKind) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	return &FetchError{Kind: fallback, Detail: err.Error()}
}
