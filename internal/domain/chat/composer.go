package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
	apperrors "github.com/rblch/weather-chatbot/pkg/errors"
)

const composerSystemPrompt = `You are a weather chatbot assistant. Your primary goal is to provide accurate and helpful weather information while maintaining a friendly and professional tone.

Follow these guidelines to craft a response to the user's new message:

1. Understand the User's Needs:
- Carefully review the conversation history to understand the context and previous queries.
- Analyze the new user message to determine the primary weather information sought (current conditions, forecast, specific parameters like temperature or precipitation).
- Identify the timeframe (current, today, tomorrow, upcoming week, etc.) for which the forecast is requested.
- Use the detected locations for the response. If the location is unclear, politely ask the user to specify it.

2. Gather the Information Needed to Craft the Answer:
- Reference the weather forecast to provide accurate information focused on the user's requested timeframe and weather parameters.
- Search the forecast for the relevant city first, and then for the relevant date. You will find specific dates as well as relative dates (e.g., forecast for tomorrow).
- If the user is traveling and asks for the weather, provide the forecast for the city where the user is traveling to.
- If the user asks for a forecast beyond the next five days, politely explain that you don't have the data.
- Since you don't have forecasts by the hour, if the user requests information for a specific time of day, provide a general forecast and apologize for the lack of detail.

3. Write a Clear and Concise Response:
- When the user asks a specific question, answer the question directly.
- Keep the answer short and to the point. Avoid long, complex sentences.
- Use units of measurement (e.g., degrees Celsius, millimeters of rain).
- If certain information is not available, acknowledge it politely.
- Reference specific dates when discussing relative times like today and tomorrow to avoid ambiguity.

4. Maintain Conversation Flow:
- For follow-up questions, refer to previously mentioned locations unless a new one is specified.
- Offer practical advice based on the forecast, such as suggestions for weather-related activities or clothing choices.

5. Handle Off-Topic Queries:
- Politely redirect the conversation to weather-related topics if the user asks about unrelated subjects.

Respond ONLY with valid minified JSON using this shape: {"response":string}. Never return plain text or other fields.`

// ComposeInput bundles everything the composer grounds its reply on.
type ComposeInput struct {
	Request   string
	Cities    []string
	Forecasts map[string]forecast.CityForecast
	History   string
	Today     time.Time
}

// Composer turns the accumulated forecast data and conversation
// history into a natural-language reply via one language-model call.
type Composer struct {
	cfg    Config
	client ChatClient
	logger *slog.Logger
}

// NewComposer wires up the response composer.
func NewComposer(cfg Config, client ChatClient, logger *slog.Logger) *Composer {
	return &Composer{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "chat.composer"),
	}
}

// Compose produces the reply text. Failures return a composer_failure
// error; the caller surfaces it as a structured payload and never
// retries.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) (string, error) {
	completion, err := c.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "system", Content: composerSystemPrompt},
			{Role: "user", Content: c.buildUserPrompt(in)},
		},
	})
	if err != nil {
		return "", apperrors.Wrap("composer_failure", "response composition request failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.Wrap("composer_failure", "response composition returned no choices", nil)
	}
	if !completion.Usage.IsZero() {
		c.logger.Info("composer token usage",
			"prompt", completion.Usage.PromptTokens,
			"completion", completion.Usage.CompletionTokens,
			"total", completion.Usage.TotalTokens)
	}

	reply, err := parseReply(completion.Choices[0].Message.Content)
	if err != nil {
		return "", apperrors.Wrap("composer_failure", "response composition reply malformed", err)
	}
	return reply, nil
}

func (c *Composer) buildUserPrompt(in ComposeInput) string {
	forecastJSON, err := json.Marshal(formatForecasts(in.Forecasts))
	if err != nil {
		forecastJSON = []byte("{}")
	}
	return fmt.Sprintf(`This is the conversation history:
%s

Today's date is: %s
And the new user message is: %s

Detected locations from the exchange: %s. For them, the weather forecast is as follows:
Available weather forecasts: %s`,
		in.History,
		in.Today.Format("2006-01-02 (Monday)"),
		in.Request,
		strings.Join(in.Cities, ", "),
		string(forecastJSON),
	)
}

func parseReply(raw string) (string, error) {
	var wire struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(sanitizeJSON(raw)), &wire); err != nil {
		return "", err
	}
	if strings.TrimSpace(wire.Response) == "" {
		return "", errors.New("response missing")
	}
	return wire.Response, nil
}
