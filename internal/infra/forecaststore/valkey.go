package forecaststore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
)

// ValkeyStore keeps cached forecast series in a Valkey-compatible
// database. Expiry rides on the server-side TTL, so lookups after the
// validity period observe a miss without any sweeper. Keys carry a
// per-session prefix so concurrent sessions never share entries.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "forecast"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Lookup(ctx context.Context, city string) (forecast.RawForecastSeries, bool, error) {
	cmd := s.client.B().Get().Key(s.cityKey(city)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return forecast.RawForecastSeries{}, false, nil
		}
		return forecast.RawForecastSeries{}, false, err
	}
	var series forecast.RawForecastSeries
	if err := json.Unmarshal([]byte(payload), &series); err != nil {
		return forecast.RawForecastSeries{}, false, err
	}
	return series, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, city string, series forecast.RawForecastSeries, ttl time.Duration) error {
	payload, err := json.Marshal(series)
	if err != nil {
		return err
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.cityKey(city)).Value(string(payload)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return err
	}
	// Track the key so Clear can wipe the session without a scan.
	return s.client.Do(ctx, s.client.B().Sadd().Key(s.indexKey()).Member(city).Build()).Error()
}

func (s *ValkeyStore) Clear(ctx context.Context) error {
	cities, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.indexKey()).Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil
		}
		return err
	}
	keys := make([]string, 0, len(cities)+1)
	for _, city := range cities {
		keys = append(keys, s.cityKey(city))
	}
	keys = append(keys, s.indexKey())
	return s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error()
}

func (s *ValkeyStore) cityKey(city string) string {
	return s.prefix + ":city:" + city
}

func (s *ValkeyStore) indexKey() string {
	return s.prefix + ":cities"
}

var _ forecast.Store = (*ValkeyStore)(nil)
