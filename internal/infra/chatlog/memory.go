package chatlog

import (
	"context"
	"sync"
	"time"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
)

// MemoryLog keeps conversation turns in process memory; the default
// when no Postgres DSN is configured.
type MemoryLog struct {
	mu      sync.RWMutex
	records map[string][]chat.TurnRecord
}

// NewMemoryLog constructs the in-memory turn log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		records: make(map[string][]chat.TurnRecord),
	}
}

// Append stores a turn record.
func (l *MemoryLog) Append(_ context.Context, record chat.TurnRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[record.SessionID] = append(l.records[record.SessionID], record)
	return nil
}

// Recorded returns the records logged for a session, oldest first.
func (l *MemoryLog) Recorded(sessionID string) []chat.TurnRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]chat.TurnRecord, len(l.records[sessionID]))
	copy(out, l.records[sessionID])
	return out
}

var _ chat.TurnLog = (*MemoryLog)(nil)
