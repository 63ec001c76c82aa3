//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/rblch/weather-chatbot/internal/bootstrap"
	"github.com/rblch/weather-chatbot/internal/domain/chat"
	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/config"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
	"github.com/rblch/weather-chatbot/internal/infra/weather/openweather"
	httpiface "github.com/rblch/weather-chatbot/internal/interface/http"
	"github.com/rblch/weather-chatbot/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatConfig,
		provideSessionSettings,
		provideChatGPTClient,
		provideWeatherClient,
		provideStoreFactory,
		provideSessionManager,
		provideTurnLog,
		provideTokenCounter,
		chat.NewExtractor,
		chat.NewComposer,
		chat.NewService,
		wire.Bind(new(chat.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(forecast.Provider), new(*openweather.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
