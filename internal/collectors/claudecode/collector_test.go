package claudecode

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/final0920/mcp-worklog/internal/model"
)

func writeTranscript(t *testing.T, base, project, name string, lines ...string) {
	t.Helper()
	dir := filepath.Join(base, project)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

var day = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

func TestCollect_FiltersByDayAndExtractsUserMessages(t *testing.T) {
	base := t.TempDir()
	writeTranscript(t, base, "proj-a", "abc123.jsonl",
		`{"type":"user","timestamp":"2025-06-02T23:00:00Z","message":{"role":"user","content":"from yesterday"}}`,
		`{"type":"user","timestamp":"2025-06-03T09:00:00Z","message":{"role":"user","content":"  fix the login bug  "}}`,
		`{"type":"assistant","timestamp":"2025-06-03T09:00:05Z","message":{"role":"assistant","content":[{"type":"text","text":"on it"}]}}`,
		`not json at all`,
		`{"type":"user","timestamp":"2025-06-03T09:01:00Z","message":{"role":"user","content":[{"type":"tool_result","content":"ok"}]}}`,
		`{"type":"human","timestamp":1748941500000,"message":{"content":[{"type":"text","text":"now add tests"}]}}`,
	)

	got := New(base, time.UTC).Collect(context.Background(), day)

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, model.SourceClaudeCode, s.Source)
	assert.Equal(t, "abc123", s.SessionID)
	assert.Equal(t, "fix the login bug", s.Title)
	assert.Equal(t, 4, s.MessageCount)
	assert.Equal(t, []string{"fix the login bug", "now add tests"}, s.Messages)
	assert.True(t, s.StartTime.Equal(time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)))
}

func TestCollect_SkipsTranscriptsWithoutLinesOnDay(t *testing.T) {
	base := t.TempDir()
	writeTranscript(t, base, "p", "old.jsonl",
		`{"type":"user","timestamp":"2025-06-01T10:00:00Z","message":{"content":"old"}}`)
	writeTranscript(t, base, "p", "empty.jsonl")

	assert.Empty(t, New(base, time.UTC).Collect(context.Background(), day))
}

func TestCollect_TruncatesTitleAndMessages(t *testing.T) {
	base := t.TempDir()
	long := strings.Repeat("a", 500)
	writeTranscript(t, base, "p", "long.jsonl",
		`{"type":"user","timestamp":"2025-06-03T10:00:00Z","message":{"content":"`+long+`"}}`)

	got := New(base, time.UTC).Collect(context.Background(), day)

	require.Len(t, got, 1)
	assert.Len(t, got[0].Title, model.MaxTitleRunes)
	assert.Len(t, got[0].Messages[0], model.MaxMessageRunes)
}

func TestCollect_MissingBaseReturnsNothing(t *testing.T) {
	got := New(filepath.Join(t.TempDir(), "missing"), time.UTC).Collect(context.Background(), day)
	assert.Empty(t, got)
}

func TestCollect_IgnoresFilesOutsideProjectDirs(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "stray.jsonl"),
		[]byte(`{"type":"user","timestamp":"2025-06-03T10:00:00Z","message":{"content":"x"}}`), 0o644))

	assert.Empty(t, New(base, time.UTC).Collect(context.Background(), day))
}
