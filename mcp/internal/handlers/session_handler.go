package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/worklog"
)

// SessionService is the part of worklog.Service collect_sessions calls.
type SessionService interface {
	CollectSessions(ctx context.Context, date time.Time, page int) (worklog.SessionsResult, error)
}

// SessionHandler exposes collect_sessions.
type SessionHandler struct {
	svc SessionService
}

// NewSessionHandler returns a new handler.
func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type sessionSummary struct {
	Source       string    `json:"source"`
	SessionID    string    `json:"session_id"`
	StartTime    time.Time `json:"start_time"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"message_count"`
	Summary      string    `json:"summary"`
	Content      string    `json:"content,omitempty"`
}

type sessionsPayload struct {
	Date          string           `json:"date"`
	Found         bool             `json:"found"`
	Sessions      []sessionSummary `json:"sessions"`
	Messages      []string         `json:"messages"`
	Page          int              `json:"page"`
	PageSize      int              `json:"page_size"`
	TotalPages    int              `json:"total_pages"`
	TotalMessages int              `json:"total_messages"`
	HasMore       bool             `json:"has_more"`
	OutOfRange    bool             `json:"out_of_range"`
	Hint          string           `json:"hint,omitempty"`
}

// RegisterTools registers collect_sessions.
func (sh *SessionHandler) RegisterTools(s *server.MCPServer) error {
	collect := mcp.NewTool("collect_sessions",
		mcp.WithDescription("Collect the user messages of AI coding sessions (Claude Code, Kiro, Cursor, Codex) for a date, deduplicated and paginated. Summarize them and call rewrite_digest to produce the daily digest."),
		mcp.WithString("date", mcp.Description(dateDescription)),
		mcp.WithNumber("page", mcp.Description("1-based page number, default 1")),
	)
	s.AddTool(collect, sh.handleCollect)
	return nil
}

func (sh *SessionHandler) handleCollect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := newRequestID()
	date, err := dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := req.GetInt("page", 1)

	log.Debug().Str("request_id", reqID).Int("page", page).Msg("handling collect_sessions request")

	start := time.Now()
	res, err := sh.svc.CollectSessions(ctx, date, page)
	elapsed := observe("collect_sessions", start, err != nil)

	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Dur("elapsed", elapsed).Msg("collect_sessions failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect sessions: %v", err)), nil
	}

	payload := newSessionsPayload(res)
	body, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode sessions: %v", err)), nil
	}

	log.Debug().
		Str("request_id", reqID).
		Str("date", res.Date).
		Int("sessions", len(res.Sessions)).
		Int("messages", len(payload.Messages)).
		Bool("has_more", payload.HasMore).
		Dur("elapsed", elapsed).
		Msg("collect_sessions completed")

	return mcp.NewToolResultText(string(body)), nil
}

func newSessionsPayload(res worklog.SessionsResult) sessionsPayload {
	p := sessionsPayload{
		Date:          res.Date,
		Found:         res.Found,
		Sessions:      make([]sessionSummary, 0, len(res.Sessions)),
		Messages:      res.Page.Messages,
		Page:          res.Page.Number,
		PageSize:      res.Page.Size,
		TotalPages:    res.Page.TotalPages,
		TotalMessages: res.Page.TotalMessages,
		HasMore:       res.Page.HasMore,
		OutOfRange:    res.Page.OutOfRange,
	}
	if p.Messages == nil {
		p.Messages = []string{}
	}
	for _, s := range res.Sessions {
		p.Sessions = append(p.Sessions, sessionSummary{
			Source:       string(s.Source),
			SessionID:    s.SessionID,
			StartTime:    s.StartTime,
			Title:        s.Title,
			MessageCount: s.MessageCount,
			Summary:      s.Summary,
			Content:      s.Content,
		})
	}
	switch {
	case !res.Found:
		p.Hint = fmt.Sprintf("No AI sessions found for %s", res.Date)
	case p.HasMore:
		p.Hint = fmt.Sprintf("More messages available: call collect_sessions with page=%d", p.Page+1)
	case p.OutOfRange:
		p.Hint = fmt.Sprintf("Page %d is past the last page (%d)", p.Page, p.TotalPages)
	}
	return p
}
