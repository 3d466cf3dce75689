package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxMessageRunes bounds the length of each collected user message.
	MaxMessageRunes = 200
	// MaxTitleRunes bounds session titles derived from the first user message.
	MaxTitleRunes = 50

	contentSummaryLimit = 20
)

// Source identifies the AI coding tool a session was recorded by.
type Source string

const (
	SourceClaudeCode Source = "claude_code"
	SourceKiro       Source = "kiro"
	SourceCursor     Source = "cursor"
	SourceCodex      Source = "codex"
)

// AllSources lists every supported source in default collection order.
var AllSources = []Source{SourceClaudeCode, SourceKiro, SourceCursor, SourceCodex}

// ParseSource maps a configured name onto a Source.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSources {
		if src == known {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown session source %q", s)
}

// Session is one recorded AI tool interaction for a single day.
type Session struct {
	Source       Source    `json:"source"`
	SessionID    string    `json:"sessionId"`
	StartTime    time.Time `json:"startTime"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"messageCount"`
	Messages     []string  `json:"messages,omitempty"`
}

// Summary is a one-line description of the session.
func (s Session) Summary() string {
	title := s.Title
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("[%s] %s (%d messages)", s.Source, title, s.MessageCount)
}

// ContentSummary lists up to the first 20 messages as "- msg" lines.
func (s Session) ContentSummary() string {
	if len(s.Messages) == 0 {
		return ""
	}
	msgs := s.Messages
	if len(msgs) > contentSummaryLimit {
		msgs = msgs[:contentSummaryLimit]
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = "- " + m
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
