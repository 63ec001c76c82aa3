package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
	apperrors "github.com/rblch/weather-chatbot/pkg/errors"
)

func TestComposeSuccess(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		completionWith(`{"response":"Expect clear skies in Paris tomorrow."}`),
	}}
	composer := NewComposer(Config{Model: "gpt-test", Temperature: 0.0}, client, discardLogger())

	reply, err := composer.Compose(context.Background(), ComposeInput{
		Request: "What about tomorrow?",
		Cities:  []string{"Paris"},
		Forecasts: map[string]forecast.CityForecast{
			"Paris": {Sunrise: "2026-08-31 06:24", Sunset: "2026-08-31 19:58", Daily: map[string]forecast.DailySummary{}},
		},
		History: "user: weather in Paris?",
		Today:   time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "Expect clear skies in Paris tomorrow.", reply)

	require.Len(t, client.requests, 1)
	prompt := client.requests[0].Messages[1].Content
	require.Contains(t, prompt, "2026-08-31 (Monday)")
	require.Contains(t, prompt, "What about tomorrow?")
	require.Contains(t, prompt, "Paris")
	require.Contains(t, prompt, "user: weather in Paris?")
}

func TestComposePromptCarriesErrorMarkers(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		completionWith(`{"response":"I could not find that place."}`),
	}}
	composer := NewComposer(Config{}, client, discardLogger())

	_, err := composer.Compose(context.Background(), ComposeInput{
		Request: "weather in Nowhereville?",
		Cities:  []string{"Nowhereville"},
		Forecasts: map[string]forecast.CityForecast{
			"Nowhereville": {Err: &forecast.FetchError{Kind: forecast.ErrUnresolvableLocation, Detail: "no match"}},
		},
		Today: time.Now(),
	})
	require.NoError(t, err)
	require.Contains(t, client.requests[0].Messages[1].Content, "unresolvable_location")
}

func TestComposeFailureOnRequestError(t *testing.T) {
	client := &stubChatClient{errs: []error{errors.New("timeout")}}
	composer := NewComposer(Config{}, client, discardLogger())

	_, err := composer.Compose(context.Background(), ComposeInput{Request: "hi", Today: time.Now()})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "composer_failure"))
}

func TestComposeFailureOnEmptyChoices(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{{}}}
	composer := NewComposer(Config{}, client, discardLogger())

	_, err := composer.Compose(context.Background(), ComposeInput{Request: "hi", Today: time.Now()})
	require.True(t, apperrors.IsCode(err, "composer_failure"))
}

func TestComposeFailureOnMalformedReply(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		completionWith("plain text, not json"),
	}}
	composer := NewComposer(Config{}, client, discardLogger())

	_, err := composer.Compose(context.Background(), ComposeInput{Request: "hi", Today: time.Now()})
	require.True(t, apperrors.IsCode(err, "composer_failure"))
}

func TestParseReply(t *testing.T) {
	reply, err := parseReply("```json\n{\"response\":\"Sunny.\"}\n```")
	require.NoError(t, err)
	require.Equal(t, "Sunny.", reply)

	_, err = parseReply(`{"response":""}`)
	require.Error(t, err)
}
