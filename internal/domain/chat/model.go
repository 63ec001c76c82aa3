package chat

import (
	"context"
	"time"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
)

// Message is one conversation turn as seen by the session transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TurnResult is the outcome of one successful chat turn.
type TurnResult struct {
	Reply     string                           `json:"reply"`
	Cities    []string                         `json:"cities"`
	Forecasts map[string]forecast.CityForecast `json:"-"`
}

// SessionInfo is returned when a new conversation session starts.
type SessionInfo struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// Config carries the LLM and history settings for the chat pipeline.
type Config struct {
	Model              string
	Temperature        float32
	HistoryTokenBudget int
	MaxHistoryMessages int
}

// ChatClient is the language-model dependency of the extractor and
// the composer.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter reports prompt token counts for history budgeting.
type TokenCounter interface {
	Count(text string) int
}

// TurnRecord is an observational log entry for one message; failures
// to record never affect the turn.
type TurnRecord struct {
	SessionID string
	Role      string
	Content   string
	Tokens    int
	CreatedAt time.Time
}

// TurnLog receives every user and assistant message, best effort.
type TurnLog interface {
	Append(ctx context.Context, record TurnRecord) error
}
