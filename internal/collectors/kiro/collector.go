// Package kiro reads Kiro agent chats stored as <base>/<workspace>/<id>.chat JSON documents.
package kiro

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

const systemPromptPrefix = "# System Prompt"

// Collector implements session.Collector for Kiro.
type Collector struct {
	base string
	loc  *time.Location
}

// New returns a collector rooted at base
// (normally %APPDATA%/Kiro/User/globalStorage/kiro.kiroagent).
func New(base string, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{base: base, loc: loc}
}

func (c *Collector) Source() model.Source { return model.SourceKiro }

// Collect returns the chats whose start time falls on day.
func (c *Collector) Collect(ctx context.Context, day time.Time) []model.Session {
	workspaces, err := os.ReadDir(c.base)
	if err != nil {
		log.Debug().Err(err).Str("source", string(model.SourceKiro)).Str("path", c.base).Msg("session source unavailable")
		return nil
	}

	var sessions []model.Session
	for _, ws := range workspaces {
		if !ws.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(c.base, ws.Name(), "*.chat"))
		if err != nil {
			continue
		}
		for _, f := range files {
			if ctx.Err() != nil {
				return collectors.Record(model.SourceKiro, sessions)
			}
			if s, ok := c.parse(f, day); ok {
				sessions = append(sessions, s)
			}
		}
	}
	return collectors.Record(model.SourceKiro, sessions)
}

type chatFile struct {
	Metadata struct {
		StartTime json.RawMessage `json:"startTime"`
	} `json:"metadata"`
	Chat []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"chat"`
}

func (c *Collector) parse(path string, day time.Time) (model.Session, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skip kiro chat")
		return model.Session{}, false
	}
	var doc chatFile
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skip kiro chat")
		return model.Session{}, false
	}
	start, ok := collectors.ParseTimestamp(doc.Metadata.StartTime)
	if !ok || !collectors.OnDay(start, day, c.loc) {
		return model.Session{}, false
	}

	s := model.Session{
		Source:       model.SourceKiro,
		SessionID:    strings.TrimSuffix(filepath.Base(path), ".chat"),
		StartTime:    start,
		MessageCount: len(doc.Chat),
	}
	for _, m := range doc.Chat {
		if m.Role != "user" && m.Role != "human" {
			continue
		}
		text := collectors.Text(m.Content)
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, systemPromptPrefix) {
			continue
		}
		if s.Title == "" {
			s.Title = collectors.Title(text)
		}
		s.Messages = append(s.Messages, collectors.Message(text))
	}
	return s, true
}
