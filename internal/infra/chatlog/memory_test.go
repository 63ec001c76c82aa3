package chatlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
)

func TestMemoryLogAppend(t *testing.T) {
	log := NewMemoryLog()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	require.NoError(t, log.Append(context.Background(), chat.TurnRecord{
		SessionID: "s1", Role: chat.RoleUser, Content: "hello", Tokens: 1, CreatedAt: now,
	}))
	require.NoError(t, log.Append(context.Background(), chat.TurnRecord{
		SessionID: "s1", Role: chat.RoleAssistant, Content: "hi", Tokens: 1, CreatedAt: now,
	}))
	require.NoError(t, log.Append(context.Background(), chat.TurnRecord{
		SessionID: "s2", Role: chat.RoleUser, Content: "other", Tokens: 1, CreatedAt: now,
	}))

	first := log.Recorded("s1")
	require.Len(t, first, 2)
	require.Equal(t, chat.RoleUser, first[0].Role)
	require.Equal(t, chat.RoleAssistant, first[1].Role)

	require.Len(t, log.Recorded("s2"), 1)
	require.Empty(t, log.Recorded("unknown"))
}
