package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	require.Equal(t, float32(0), cfg.LLM.Temperature)
	require.Equal(t, "https://api.openweathermap.org/geo/1.0/direct", cfg.Weather.GeoBaseURL)
	require.Equal(t, "https://api.openweathermap.org/data/2.5/forecast", cfg.Weather.ForecastBaseURL)
	require.Equal(t, time.Hour, cfg.Weather.CacheValidity)
	require.Equal(t, 2000, cfg.Chat.HistoryTokenBudget)
	require.Equal(t, 12*time.Hour, cfg.Session.TokenTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENWEATHERMAP_API_KEY", "owm-test")
	t.Setenv("WEATHER_CACHE_VALIDITY", "30m")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CHAT_HISTORY_TOKEN_BUDGET", "512")
	t.Setenv("SESSION_SECRET", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTP.Address)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, "owm-test", cfg.Weather.APIKey)
	require.Equal(t, 30*time.Minute, cfg.Weather.CacheValidity)
	require.InDelta(t, 0.7, float64(cfg.LLM.Temperature), 0.0001)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 512, cfg.Chat.HistoryTokenBudget)
	require.Equal(t, "super-secret", cfg.Session.Secret)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("http:\n  address: \":7070\"\nweather:\n  cacheValidity: 45m\nchat:\n  maxHistoryMessages: 10\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Address)
	require.Equal(t, 45*time.Minute, cfg.Weather.CacheValidity)
	require.Equal(t, 10, cfg.Chat.MaxHistoryMessages)
	// Untouched fields keep their defaults.
	require.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Weather.CacheValidity = 0
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.LLM.Model = " "
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Weather.Valkey.Enabled = true
	cfg.Weather.Valkey.Addr = ""
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.HTTP.RateLimit.Enabled = true
	cfg.HTTP.RateLimit.RequestsPerMinute = 0
	require.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList("a, b,"))
	require.Empty(t, splitList(" , "))
}
