package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/config"
	"github.com/rblch/weather-chatbot/internal/infra/forecaststore"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
)

type scriptedChatClient struct {
	responses []chatgpt.ChatCompletionResponse
	calls     int
}

func (s *scriptedChatClient) CreateChatCompletion(_ context.Context, _ chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	if s.calls >= len(s.responses) {
		return chatgpt.ChatCompletionResponse{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type staticProvider struct{}

func (staticProvider) Resolve(_ context.Context, _ string) (forecast.Coordinates, error) {
	return forecast.Coordinates{Lat: 48.85, Lon: 2.35}, nil
}

func (staticProvider) FetchForecast(_ context.Context, city string, _ forecast.Coordinates) (forecast.RawForecastSeries, error) {
	return forecast.RawForecastSeries{
		City:    city,
		Sunrise: time.Date(2026, 8, 31, 6, 24, 0, 0, time.UTC),
		Sunset:  time.Date(2026, 8, 31, 19, 58, 0, 0, time.UTC),
		Samples: []forecast.RawForecastSample{
			{Timestamp: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), Temp: 20, Description: "clear sky", PartOfDay: "d"},
		},
	}, nil
}

type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) }

func chatCompletion(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: content}}},
	}
}

func newTestServer(t *testing.T, client chat.ChatClient) (http.Handler, *chat.SessionManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		HTTP: config.HTTPConfig{Address: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second},
	}
	chatCfg := chat.Config{Model: "gpt-test", HistoryTokenBudget: 2000, MaxHistoryMessages: 40}

	sessions := chat.NewSessionManager(
		chat.SessionSettings{Secret: "test-secret", TokenTTL: time.Hour},
		staticProvider{},
		func(string) forecast.Store { return forecaststore.NewMemoryStore() },
		time.Hour,
		logger,
	)
	svc := chat.NewService(chatCfg, chat.NewExtractor(chatCfg, client, logger), chat.NewComposer(chatCfg, client, logger), sessions, nil, runeCounter{}, logger)
	server := NewRouter(cfg, NewHandler(svc, logger), sessions, logger)
	return server.Handler, sessions
}

func startSession(t *testing.T, handler http.Handler) (string, string) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.SessionID)
	require.NotEmpty(t, payload.Token)
	return payload.SessionID, payload.Token
}

func TestStartSessionEndpoint(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{})
	startSession(t, handler)
}

func TestChatEndpoint(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{responses: []chatgpt.ChatCompletionResponse{
		chatCompletion(`{"cities":["Paris"]}`),
		chatCompletion(`{"response":"Clear skies in Paris."}`),
	}})
	_, token := startSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"Weather in Paris?"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var payload struct {
		Reply  string   `json:"reply"`
		Cities []string `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "Clear skies in Paris.", payload.Reply)
	require.Equal(t, []string{"Paris"}, payload.Cities)
}

func TestChatEndpointRequiresAuth(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Authorization", "Bearer garbage")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestChatEndpointValidatesBody(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{})
	_, token := startSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "invalid_request")
}

func TestChatEndpointComposerFailure(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{responses: []chatgpt.ChatCompletionResponse{
		chatCompletion(`{"cities":[]}`),
		chatCompletion("not json"),
	}})
	_, token := startSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Contains(t, recorder.Body.String(), "composer_failure")
}

func TestResetAndHistoryEndpoints(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{responses: []chatgpt.ChatCompletionResponse{
		chatCompletion(`{"cities":[]}`),
		chatCompletion(`{"response":"Hello!"}`),
	}})
	_, token := startSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var history struct {
		Messages []chat.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat/reset", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	require.Empty(t, history.Messages)
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestServer(t, &scriptedChatClient{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
