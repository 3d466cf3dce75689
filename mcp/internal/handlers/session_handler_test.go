package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/final0920/mcp-worklog/internal/model"
)

type stubCollector struct {
	src      model.Source
	sessions []model.Session
}

func (s stubCollector) Source() model.Source { return s.src }
func (s stubCollector) Collect(context.Context, time.Time) []model.Session {
	return s.sessions
}

func manyMessages(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("message %03d", i)
	}
	return out
}

func decodePayload(t *testing.T, text string) sessionsPayload {
	t.Helper()
	var p sessionsPayload
	require.NoError(t, json.Unmarshal([]byte(text), &p), text)
	return p
}

func TestCollectSessions_Pages(t *testing.T) {
	c := stubCollector{src: model.SourceClaudeCode, sessions: []model.Session{{
		Source:       model.SourceClaudeCode,
		SessionID:    "s1",
		StartTime:    fixedNow,
		Title:        "refactor",
		MessageCount: 120,
		Messages:     manyMessages(120),
	}}}
	sh := NewSessionHandler(newService(t, c))
	ctx := context.Background()

	res, err := sh.handleCollect(ctx, call(map[string]any{"date": "2025-07-14"}))
	require.NoError(t, err)
	p := decodePayload(t, resultText(t, res))
	assert.True(t, p.Found)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 120, p.TotalMessages)
	assert.Len(t, p.Messages, 50)
	assert.True(t, p.HasMore)
	assert.Contains(t, p.Hint, "page=2")
	require.Len(t, p.Sessions, 1)
	assert.Equal(t, "[claude_code] refactor (120 messages)", p.Sessions[0].Summary)
	content := strings.Split(p.Sessions[0].Content, "\n")
	assert.Len(t, content, 20)
	assert.Equal(t, "- message 000", content[0])
	assert.Equal(t, "- message 019", content[19])

	res, err = sh.handleCollect(ctx, call(map[string]any{"page": float64(3)}))
	require.NoError(t, err)
	p = decodePayload(t, resultText(t, res))
	assert.Len(t, p.Messages, 20)
	assert.False(t, p.HasMore)
	assert.Empty(t, p.Hint)

	res, err = sh.handleCollect(ctx, call(map[string]any{"page": float64(4)}))
	require.NoError(t, err)
	p = decodePayload(t, resultText(t, res))
	assert.True(t, p.OutOfRange)
	assert.Empty(t, p.Messages)
	assert.NotNil(t, p.Messages)
}

func TestCollectSessions_NothingFound(t *testing.T) {
	sh := NewSessionHandler(newService(t))

	res, err := sh.handleCollect(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	p := decodePayload(t, resultText(t, res))
	assert.False(t, p.Found)
	assert.Equal(t, "2025-07-14", p.Date)
	assert.Empty(t, p.Sessions)
	assert.Zero(t, p.TotalMessages)
	assert.Contains(t, p.Hint, "No AI sessions")
}

func TestCollectSessions_InvalidDate(t *testing.T) {
	sh := NewSessionHandler(newService(t))

	res, err := sh.handleCollect(context.Background(), call(map[string]any{"date": "2025-13-40"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
