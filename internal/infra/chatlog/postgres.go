package chatlog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
)

// PostgresLog persists conversation turns in the chat_turns table.
// The log is observational: sessions never rehydrate from it.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog constructs the adapter.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

// Append inserts a turn record.
func (l *PostgresLog) Append(ctx context.Context, record chat.TurnRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO chat_turns (session_id, role, content, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, record.SessionID, record.Role, record.Content, record.Tokens, record.CreatedAt)
	return err
}

var _ chat.TurnLog = (*PostgresLog)(nil)
