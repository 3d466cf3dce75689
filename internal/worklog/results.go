package worklog

import (
	"time"

	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/session"
)

// AppendResult reports a successful append.
type AppendResult struct {
	Location    string `json:"location"`
	Date        string `json:"date"`
	EntryNumber int    `json:"entryNumber"`
	Message     string `json:"message"`
}

// DigestResult is the rendered digest for a date. Found is false when nothing
// was ever recorded for that date, which differs from an existing empty digest.
type DigestResult struct {
	Date       string `json:"date"`
	Content    string `json:"content"`
	EntryCount int    `json:"entryCount"`
	Found      bool   `json:"found"`
}

// PolishResult reports the effect of dedup and renumbering.
type PolishResult struct {
	Date          string `json:"date"`
	Content       string `json:"content"`
	OriginalCount int    `json:"originalCount"`
	PolishedCount int    `json:"polishedCount"`
	Location      string `json:"location"`
}

// RewriteResult reports a wholesale replacement.
type RewriteResult struct {
	Date       string `json:"date"`
	Content    string `json:"content"`
	EntryCount int    `json:"entryCount"`
	Replaced   bool   `json:"replaced"`
	Location   string `json:"location"`
}

// SessionInfo is the per-session part of a SessionsResult. Content lists the
// session's first messages; the full feed lives in Page.
type SessionInfo struct {
	Source       model.Source `json:"source"`
	SessionID    string       `json:"sessionId"`
	StartTime    time.Time    `json:"startTime"`
	Title        string       `json:"title,omitempty"`
	MessageCount int          `json:"messageCount"`
	Summary      string       `json:"summary"`
	Content      string       `json:"content,omitempty"`
}

// SessionsResult is one page of the deduplicated message feed for a date.
type SessionsResult struct {
	Date     string        `json:"date"`
	Found    bool          `json:"found"`
	Sessions []SessionInfo `json:"sessions"`
	Page     session.Page  `json:"page"`
}
