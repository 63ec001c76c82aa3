package chat

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
	apperrors "github.com/rblch/weather-chatbot/pkg/errors"
)

// Session owns one conversation: its transcript and its forecast
// service (cache plus accumulator). State never crosses sessions, and
// the mutex serializes turns so only one pipeline runs at a time.
type Session struct {
	ID        string
	Forecast  *forecast.Service
	CreatedAt time.Time

	mu      sync.Mutex
	history []Message
}

// SessionSettings drives token issuance for the session registry.
type SessionSettings struct {
	Secret   string
	TokenTTL time.Duration
}

// SessionManager is the in-process registry of live sessions.
type SessionManager struct {
	settings SessionSettings
	provider forecast.Provider
	stores   forecast.StoreFactory
	validity time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager builds the registry. When no signing secret is
// configured a random one is generated, which invalidates tokens on
// restart.
func NewSessionManager(settings SessionSettings, provider forecast.Provider, stores forecast.StoreFactory, validity time.Duration, logger *slog.Logger) *SessionManager {
	log := logger.With("component", "chat.sessions")
	if settings.Secret == "" {
		settings.Secret = randomSecret()
		log.Warn("session secret not configured, generated an ephemeral one")
	}
	return &SessionManager{
		settings: settings,
		provider: provider,
		stores:   stores,
		validity: validity,
		logger:   log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session with an independently owned forecast
// service and returns it alongside its bearer token.
func (m *SessionManager) Create() (*Session, string, error) {
	id := uuid.NewString()
	session := &Session{
		ID:        id,
		Forecast:  forecast.NewService(m.provider, m.stores(id), m.validity, m.logger),
		CreatedAt: m.now(),
	}

	token, err := m.issueToken(id)
	if err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id)
	return session, token, nil
}

// Get returns the live session behind an ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap("session_not_found", "unknown or expired session", nil)
	}
	return session, nil
}

// Resolve validates a bearer token and returns its session.
func (m *SessionManager) Resolve(token string) (*Session, error) {
	id, err := m.parseToken(token)
	if err != nil {
		return nil, err
	}
	return m.Get(id)
}

func (m *SessionManager) issueToken(sessionID string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.settings.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.settings.Secret))
	if err != nil {
		return "", apperrors.Wrap("session_error", "failed to sign session token", err)
	}
	return signed, nil
}

func (m *SessionManager) parseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(m.settings.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", apperrors.Wrap("invalid_token", "session token validation failed", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", apperrors.Wrap("invalid_token", "session token invalid", nil)
	}
	return claims.Subject, nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
