package codex

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

var day = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

func writeRollout(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
}

func TestCollect_ParsesRollout(t *testing.T) {
	base := t.TempDir()
	writeRollout(t, filepath.Join(base, "2025", "06", "03", "rollout-2025-06-03T10-00-00-abc.jsonl"),
		`{"timestamp":"2025-06-03T10:00:00Z","type":"session_meta","payload":{"id":"0198-abc","cwd":"/src/app"}}`,
		`{"timestamp":"2025-06-03T10:00:01Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"<environment_context>cwd</environment_context>"}]}}`,
		`{"timestamp":"2025-06-03T10:00:02Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"add retry to the uploader"}]}}`,
		`{"timestamp":"2025-06-03T10:00:09Z","type":"response_item","payload":{"type":"reasoning","summary":[]}}`,
		`{"timestamp":"2025-06-03T10:00:10Z","type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"done"}]}}`,
		`{"timestamp":"2025-06-03T10:00:11Z","type":"event_msg","payload":{"type":"token_count"}}`,
	)

	got := New(base, time.UTC).Collect(context.Background(), day)

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, model.SourceCodex, s.Source)
	assert.Equal(t, "0198-abc", s.SessionID)
	assert.Equal(t, "add retry to the uploader", s.Title)
	assert.Equal(t, 3, s.MessageCount)
	assert.Equal(t, []string{"add retry to the uploader"}, s.Messages)
	assert.True(t, s.StartTime.Equal(time.Date(2025, 6, 3, 10, 0, 1, 0, time.UTC)))
}

func TestCollect_SkipsOtherDays(t *testing.T) {
	base := t.TempDir()
	writeRollout(t, filepath.Join(base, "2025", "06", "02", "rollout-old.jsonl"),
		`{"timestamp":"2025-06-02T10:00:00Z","type":"session_meta","payload":{"id":"old"}}`,
		`{"timestamp":"2025-06-02T10:00:02Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"hi"}]}}`,
	)
	writeRollout(t, filepath.Join(base, "notes.txt"), "ignored")

	assert.Empty(t, New(base, time.UTC).Collect(context.Background(), day))
}

func TestCollect_FallsBackToFileStem(t *testing.T) {
	base := t.TempDir()
	writeRollout(t, filepath.Join(base, "r.jsonl"),
		`{"timestamp":"2025-06-03T11:00:00Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"hello"}]}}`,
	)

	got := New(base, time.UTC).Collect(context.Background(), day)

	require.Len(t, got, 1)
	assert.Equal(t, "r", got[0].SessionID)
}

func TestCollect_MissingBase(t *testing.T) {
	assert.Empty(t, New(filepath.Join(t.TempDir(), "missing"), time.UTC).Collect(context.Background(), day))
}

func TestCollect_SkipsOnlyInjectedHeaders(t *testing.T) {
	base := t.TempDir()
	userTurn := func(ts, text string) string {
		return `{"timestamp":"` + ts + `","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"` + text + `"}]}}`
	}
	writeRollout(t, filepath.Join(base, "r.jsonl"),
		userTurn("2025-06-03T09:00:00Z", `# AGENTS.md instructions for /src/app\n\nUse make.`),
		userTurn("2025-06-03T09:00:01Z", `  <user_instructions>be terse</user_instructions>`),
		userTurn("2025-06-03T09:00:02Z", `<permissions instructions>sandbox</permissions instructions>`),
		userTurn("2025-06-03T09:00:03Z", `update AGENTS.md with the build steps`),
		userTurn("2025-06-03T09:00:04Z", `explain the <environment_context> block`),
	)

	got := New(base, time.UTC).Collect(context.Background(), day)

	require.Len(t, got, 1)
	assert.Equal(t, []string{
		"update AGENTS.md with the build steps",
		"explain the <environment_context> block",
	}, got[0].Messages)
}
