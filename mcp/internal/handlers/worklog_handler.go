package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/worklog"
)

// DigestService is the part of worklog.Service the digest tools call.
type DigestService interface {
	Append(ctx context.Context, text string) (worklog.AppendResult, error)
	Query(ctx context.Context, date time.Time) (worklog.DigestResult, error)
	Polish(ctx context.Context, date time.Time) (worklog.PolishResult, error)
	Rewrite(ctx context.Context, date time.Time, entries []string) (worklog.RewriteResult, error)
}

// WorklogHandler exposes append_worklog, get_daily_digest, polish_digest and rewrite_digest.
type WorklogHandler struct {
	svc DigestService
}

// NewWorklogHandler returns a new handler.
func NewWorklogHandler(svc DigestService) *WorklogHandler {
	return &WorklogHandler{svc: svc}
}

const dateDescription = "Date in YYYY-MM-DD format; defaults to today"

// RegisterTools registers the digest tools.
func (wh *WorklogHandler) RegisterTools(s *server.MCPServer) error {
	appendTool := mcp.NewTool("append_worklog",
		mcp.WithDescription("Append a work entry to today's daily digest. Each call adds one numbered line."),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Short summary of the work done")),
	)
	s.AddTool(appendTool, wh.handleAppend)

	getTool := mcp.NewTool("get_daily_digest",
		mcp.WithDescription("Get the daily digest for a date"),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(getTool, wh.handleGet)

	polishTool := mcp.NewTool("polish_digest",
		mcp.WithDescription("Polish a daily digest: trim entries, drop exact duplicates and renumber"),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(polishTool, wh.handlePolish)

	rewriteTool := mcp.NewTool("rewrite_digest",
		mcp.WithDescription("Replace every entry of a daily digest with the given list, e.g. after summarizing collected sessions"),
		mcp.WithString("date", mcp.Description(dateDescription)),
		mcp.WithArray("entries",
			mcp.Required(),
			mcp.Description("New entries in order; blank items are dropped"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.AddTool(rewriteTool, wh.handleRewrite)

	return nil
}

func (wh *WorklogHandler) handleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := newRequestID()
	summary, err := req.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Debug().Str("request_id", reqID).Int("summary_len", len(summary)).Msg("handling append_worklog request")

	start := time.Now()
	res, err := wh.svc.Append(ctx, summary)
	elapsed := observe("append_worklog", start, err != nil)

	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Dur("elapsed", elapsed).Msg("append_worklog failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to append worklog: %v", err)), nil
	}

	log.Debug().
		Str("request_id", reqID).
		Str("date", res.Date).
		Int("entry_number", res.EntryNumber).
		Dur("elapsed", elapsed).
		Msg("append_worklog completed")

	return mcp.NewToolResultText(res.Message), nil
}

func (wh *WorklogHandler) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := newRequestID()
	date, err := dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	res, err := wh.svc.Query(ctx, date)
	elapsed := observe("get_daily_digest", start, err != nil)

	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Dur("elapsed", elapsed).Msg("get_daily_digest failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get digest: %v", err)), nil
	}

	log.Debug().
		Str("request_id", reqID).
		Str("date", res.Date).
		Bool("found", res.Found).
		Int("entries", res.EntryCount).
		Dur("elapsed", elapsed).
		Msg("get_daily_digest completed")

	if !res.Found {
		return mcp.NewToolResultText(noEntriesText(res.Date)), nil
	}
	return mcp.NewToolResultText(res.Content), nil
}

func (wh *WorklogHandler) handlePolish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := newRequestID()
	date, err := dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	res, err := wh.svc.Polish(ctx, date)
	notFound := errors.Is(err, model.ErrNotFound)
	elapsed := observe("polish_digest", start, err != nil && !notFound)

	if notFound {
		log.Debug().Str("request_id", reqID).Str("date", res.Date).Dur("elapsed", elapsed).Msg("polish_digest: nothing to polish")
		return mcp.NewToolResultText(noEntriesText(res.Date)), nil
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Dur("elapsed", elapsed).Msg("polish_digest failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to polish digest: %v", err)), nil
	}

	log.Debug().
		Str("request_id", reqID).
		Str("date", res.Date).
		Int("original_count", res.OriginalCount).
		Int("polished_count", res.PolishedCount).
		Dur("elapsed", elapsed).
		Msg("polish_digest completed")

	return mcp.NewToolResultText(fmt.Sprintf("Polished: %d -> %d entries\n\n%s", res.OriginalCount, res.PolishedCount, res.Content)), nil
}

func (wh *WorklogHandler) handleRewrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := newRequestID()
	date, err := dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := req.RequireStringSlice("entries")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Debug().Str("request_id", reqID).Int("entries", len(entries)).Msg("handling rewrite_digest request")

	start := time.Now()
	res, err := wh.svc.Rewrite(ctx, date, entries)
	elapsed := observe("rewrite_digest", start, err != nil)

	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Dur("elapsed", elapsed).Msg("rewrite_digest failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to rewrite digest: %v", err)), nil
	}

	log.Debug().
		Str("request_id", reqID).
		Str("date", res.Date).
		Int("entries", res.EntryCount).
		Bool("replaced", res.Replaced).
		Dur("elapsed", elapsed).
		Msg("rewrite_digest completed")

	return mcp.NewToolResultText(res.Content), nil
}
