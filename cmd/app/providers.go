package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/chatlog"
	"github.com/rblch/weather-chatbot/internal/infra/config"
	"github.com/rblch/weather-chatbot/internal/infra/forecaststore"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
	"github.com/rblch/weather-chatbot/internal/infra/tokenizer"
	"github.com/rblch/weather-chatbot/internal/infra/weather/openweather"
)

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Model:              cfg.LLM.Model,
		Temperature:        cfg.LLM.Temperature,
		HistoryTokenBudget: cfg.Chat.HistoryTokenBudget,
		MaxHistoryMessages: cfg.Chat.MaxHistoryMessages,
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideWeatherClient(cfg *config.Config) *openweather.Client {
	return openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.GeoBaseURL, cfg.Weather.ForecastBaseURL)
}

func provideSessionSettings(cfg *config.Config) chat.SessionSettings {
	return chat.SessionSettings{
		Secret:   cfg.Session.Secret,
		TokenTTL: cfg.Session.TokenTTL,
	}
}

func provideSessionManager(cfg *config.Config, settings chat.SessionSettings, provider forecast.Provider, stores forecast.StoreFactory, logger *slog.Logger) *chat.SessionManager {
	return chat.NewSessionManager(settings, provider, stores, cfg.Weather.CacheValidity, logger)
}

// provideStoreFactory hands each session its own forecast cache. When
// Valkey is reachable the caches share the client under per-session
// key prefixes, otherwise every session gets an in-process store.
func provideStoreFactory(cfg *config.Config, logger *slog.Logger) forecast.StoreFactory {
	memoryFactory := func(string) forecast.Store {
		return forecaststore.NewMemoryStore()
	}
	if !cfg.Weather.Valkey.Enabled {
		return memoryFactory
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory stores", "error", err)
		return memoryFactory
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory stores", "error", err)
		return memoryFactory
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory stores", "error", err)
		return memoryFactory
	}
	logger.Info("valkey forecast cache enabled", "addr", cfg.Weather.Valkey.Addr)
	return func(sessionID string) forecast.Store {
		return forecaststore.NewValkeyStore(client, "forecast:"+sessionID)
	}
}

func provideTurnLog(cfg *config.Config, logger *slog.Logger) chat.TurnLog {
	fallback := chatlog.NewMemoryLog()
	dsn := strings.TrimSpace(cfg.Chat.Postgres.DSN)
	if dsn == "" {
		logger.Info("chat postgres dsn not set, using memory turn log")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory turn log", "error", err)
		return fallback
	}
	if cfg.Chat.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Chat.Postgres.MaxConns
	}
	if cfg.Chat.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Chat.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory turn log", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory turn log", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("chat postgres turn log enabled")
	return chatlog.NewPostgresLog(pool)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) (chat.TokenCounter, error) {
	counter, err := tokenizer.NewCounter(cfg.LLM.Model)
	if err != nil {
		logger.Error("failed to initialize token counter", "model", cfg.LLM.Model, "error", err)
		return nil, err
	}
	return counter, nil
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Weather.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Weather.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Weather.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
