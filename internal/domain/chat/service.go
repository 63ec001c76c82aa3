package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Service runs the turn pipeline: extract cities, merge forecasts,
// compose a grounded reply.
type Service struct {
	cfg       Config
	extractor *Extractor
	composer  *Composer
	sessions  *SessionManager
	turnLog   TurnLog
	counter   TokenCounter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the chat pipeline.
func NewService(cfg Config, extractor *Extractor, composer *Composer, sessions *SessionManager, turnLog TurnLog, counter TokenCounter, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		extractor: extractor,
		composer:  composer,
		sessions:  sessions,
		turnLog:   turnLog,
		counter:   counter,
		logger:    logger.With("component", "chat.service"),
		now:       time.Now,
	}
}

// StartSession opens a fresh conversation session.
func (s *Service) StartSession(ctx context.Context) (SessionInfo, error) {
	session, token, err := s.sessions.Create()
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{SessionID: session.ID, Token: token}, nil
}

// Chat runs one conversation turn. A composer failure is returned to
// the caller as-is: the user message stays in the transcript and any
// forecast state accumulated earlier in the turn is kept.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (TurnResult, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	s.appendMessage(ctx, session, RoleUser, message)

	history := s.renderHistory(session.history)
	cities := s.extractor.ExtractCities(ctx, message)
	locations, forecasts := session.Forecast.Merge(ctx, cities)

	reply, err := s.composer.Compose(ctx, ComposeInput{
		Request:   message,
		Cities:    locations,
		Forecasts: forecasts,
		History:   history,
		Today:     s.now(),
	})
	if err != nil {
		return TurnResult{}, err
	}

	s.appendMessage(ctx, session, RoleAssistant, reply)
	s.logger.Info("turn completed", "session_id", session.ID, "detected_cities", len(cities), "known_cities", len(locations))

	return TurnResult{
		Reply:     reply,
		Cities:    locations,
		Forecasts: forecasts,
	}, nil
}

// Reset wipes the transcript, the forecast cache and the accumulated
// city state of one session atomically.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.history = nil
	session.Forecast.Reset(ctx)
	s.logger.Info("session reset", "session_id", session.ID)
	return nil
}

// History returns the session transcript.
func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	out := make([]Message, len(session.history))
	copy(out, session.history)
	return out, nil
}

// appendMessage records the turn in the transcript and, best effort,
// in the external turn log. Callers hold the session lock.
func (s *Service) appendMessage(ctx context.Context, session *Session, role, content string) {
	msg := Message{Role: role, Content: content, CreatedAt: s.now()}
	session.history = append(session.history, msg)

	if s.turnLog == nil {
		return
	}
	record := TurnRecord{
		SessionID: session.ID,
		Role:      role,
		Content:   content,
		Tokens:    s.counter.Count(content),
		CreatedAt: msg.CreatedAt,
	}
	if err := s.turnLog.Append(ctx, record); err != nil {
		s.logger.Warn("turn log append failed", "session_id", session.ID, "error", err)
	}
}

// renderHistory flattens the transcript to the prompt form, trimming
// the oldest turns once the token budget or message cap is exceeded.
func (s *Service) renderHistory(history []Message) string {
	budget := s.cfg.HistoryTokenBudget
	maxMessages := s.cfg.MaxHistoryMessages

	selected := make([]Message, 0, len(history))
	totalTokens := 0
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if maxMessages > 0 && len(selected) >= maxMessages {
			break
		}
		tokens := s.counter.Count(msg.Role + ": " + msg.Content)
		if budget > 0 && totalTokens+tokens > budget && len(selected) > 0 {
			break
		}
		totalTokens += tokens
		selected = append(selected, msg)
	}

	lines := make([]string, 0, len(selected))
	for i := len(selected) - 1; i >= 0; i-- {
		lines = append(lines, selected[i].Role+": "+selected[i].Content)
	}
	return strings.Join(lines, "\n")
}
