// Package codex reads OpenAI Codex CLI rollouts, stored as JSONL files under
// <base>/YYYY/MM/DD/.
package codex

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/collectors"
	"github.com/final0920/mcp-worklog/internal/model"
)

// Headers of the context blocks Codex sends as user turns. A turn starting with
// one of them was not typed by the user.
var injectedPrefixes = []string{
	"<environment_context>",
	"<user_instructions>",
	"<permissions",
	"# AGENTS.md instructions",
}

// Collector implements session.Collector for Codex.
type Collector struct {
	base string
	loc  *time.Location
}

// New returns a collector rooted at base (normally ~/.codex/sessions).
func New(base string, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{base: base, loc: loc}
}

func (c *Collector) Source() model.Source { return model.SourceCodex }

// Collect walks base recursively and returns one session per rollout that has
// conversation items on day.
func (c *Collector) Collect(ctx context.Context, day time.Time) []model.Session {
	if _, err := os.Stat(c.base); err != nil {
		log.Debug().Err(err).Str("source", string(model.SourceCodex)).Str("path", c.base).Msg("session source unavailable")
		return nil
	}

	var sessions []model.Session
	_ = filepath.WalkDir(c.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		if s, ok := c.parse(path, day); ok {
			sessions = append(sessions, s)
		}
		return nil
	})
	return collectors.Record(model.SourceCodex, sessions)
}

type line struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Payload   struct {
		ID      string          `json:"id"`
		Type    string          `json:"type"`
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"payload"`
}

func (c *Collector) parse(path string, day time.Time) (model.Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skip codex rollout")
		return model.Session{}, false
	}
	defer f.Close()

	s := model.Session{
		Source:    model.SourceCodex,
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	}
	err = collectors.EachLine(f, func(raw []byte) bool {
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return true
		}
		switch l.Type {
		case "session_meta":
			if l.Payload.ID != "" {
				s.SessionID = l.Payload.ID
			}
			return true
		case "response_item":
		default:
			return true
		}
		if l.Payload.Type != "" && l.Payload.Type != "message" {
			return true
		}
		ts, ok := collectors.ParseTimestamp(l.Timestamp)
		if !ok || !collectors.OnDay(ts, day, c.loc) {
			return true
		}
		if s.MessageCount == 0 {
			s.StartTime = ts
		}
		s.MessageCount++
		if l.Payload.Role != "user" {
			return true
		}
		text := collectors.Text(l.Payload.Content)
		if strings.TrimSpace(text) == "" || injected(text) {
			return true
		}
		if s.Title == "" {
			s.Title = collectors.Title(text)
		}
		s.Messages = append(s.Messages, collectors.Message(text))
		return true
	})
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("read codex rollout")
		return model.Session{}, false
	}
	if s.MessageCount == 0 {
		return model.Session{}, false
	}
	return s, true
}

func injected(text string) bool {
	text = strings.TrimSpace(text)
	for _, p := range injectedPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
