package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rblch/weather-chatbot/internal/infra/llm/chatgpt"
)

const extractorPrompt = `Extract a list of unique cities from the following text.
Use obvious inferences for city names and handle common misspellings.
If no city can be identified, return an empty list.

Text: %s

Respond ONLY with valid minified JSON using this shape: {"cities":string[]}. Never return plain text or other fields.`

// Extractor pulls city names out of free-form user text via one
// language-model round trip.
type Extractor struct {
	cfg    Config
	client ChatClient
	logger *slog.Logger
}

// NewExtractor wires up the city extractor.
func NewExtractor(cfg Config, client ChatClient, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "chat.extractor"),
	}
}

// ExtractCities returns the unique cities mentioned in the text. Any
// failure degrades to zero detected cities so the turn can proceed.
func (e *Extractor) ExtractCities(ctx context.Context, text string) []string {
	completion, err := e.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "user", Content: fmt.Sprintf(extractorPrompt, text)},
		},
	})
	if err != nil {
		e.logger.Warn("city extraction request failed", "error", err)
		return nil
	}
	if len(completion.Choices) == 0 {
		e.logger.Warn("city extraction returned no choices")
		return nil
	}

	cities, err := parseCities(completion.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("city extraction response malformed", "error", err)
		return nil
	}
	return cities
}

func parseCities(raw string) ([]string, error) {
	var wire struct {
		Cities json.RawMessage `json:"cities"`
	}
	if err := json.Unmarshal([]byte(sanitizeJSON(raw)), &wire); err != nil {
		return nil, err
	}
	cities, err := coerceStringArray(wire.Cities)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))
	for _, city := range cities {
		clean := strings.TrimSpace(city)
		// Single characters are extraction noise, never city names.
		if len(clean) <= 1 {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out, nil
}

// sanitizeJSON strips markdown fences some models wrap around JSON.
func sanitizeJSON(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	return strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))
}

func coerceStringArray(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		if strings.TrimSpace(single) == "" {
			return nil, nil
		}
		return []string{single}, nil
	case '[':
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, err
		}
		return many, nil
	default:
		return nil, errors.New("unsupported cities format")
	}
}
