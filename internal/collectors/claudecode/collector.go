// Package claudecode reads Claude Code session transcripts: one JSON object
// per line in <base>/<project>/<session>.jsonl.
package claudecode

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/collectors"
	"github.com/final0920/mcp-worklog/internal/model"
)

// Collector implements session.Collector for Claude Code.
type Collector struct {
	base string
	loc  *time.Location
}

// New returns a collector rooted at base (normally ~/.claude/projects).
// Days are matched in loc.
func New(base string, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{base: base, loc: loc}
}

func (c *Collector) Source() model.Source { return model.SourceClaudeCode }

// Collect returns one session per transcript that has at least one line on day.
func (c *Collector) Collect(ctx context.Context, day time.Time) []model.Session {
	projects, err := os.ReadDir(c.base)
	if err != nil {
		log.Debug().Err(err).Str("source", string(model.SourceClaudeCode)).Str("path", c.base).Msg("session source unavailable")
		return nil
	}

	var sessions []model.Session
	for _, p := range projects {
		if !p.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(c.base, p.Name(), "*.jsonl"))
		if err != nil {
			continue
		}
		for _, f := range files {
			if ctx.Err() != nil {
				return collectors.Record(model.SourceClaudeCode, sessions)
			}
			if s, ok := c.parse(f, day); ok {
				sessions = append(sessions, s)
			}
		}
	}
	return collectors.Record(model.SourceClaudeCode, sessions)
}

type line struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Message   struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

func (l line) isUser() bool {
	return l.Type == "user" || l.Type == "human"
}

func (c *Collector) parse(path string, day time.Time) (model.Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skip claude code transcript")
		return model.Session{}, false
	}
	defer f.Close()

	s := model.Session{
		Source:    model.SourceClaudeCode,
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	}
	err = collectors.EachLine(f, func(raw []byte) bool {
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
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
		if !l.isUser() {
			return true
		}
		text := collectors.Text(l.Message.Content)
		if strings.TrimSpace(text) == "" {
			return true
		}
		if s.Title == "" {
			s.Title = collectors.Title(text)
		}
		s.Messages = append(s.Messages, collectors.Message(text))
		return true
	})
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("read claude code transcript")
		return model.Session{}, false
	}
	if s.MessageCount == 0 {
		return model.Session{}, false
	}
	return s, true
}
