package handlers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/final0920/mcp-worklog/internal/model"
)

var (
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "MCP tool calls by tool and outcome.",
	}, []string{"tool", "outcome"})

	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worklog",
		Subsystem: "mcp",
		Name:      "tool_duration_seconds",
		Help:      "MCP tool call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
)

// observe records one tool call. outcome is "ok" unless failed.
func observe(tool string, start time.Time, failed bool) time.Duration {
	elapsed := time.Since(start)
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	toolCalls.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
	return elapsed
}

func newRequestID() string {
	return uuid.NewString()
}

// dateArg reads the optional "date" argument. Absent or blank means today,
// reported as the zero time.
func dateArg(req mcp.CallToolRequest) (time.Time, error) {
	raw := strings.TrimSpace(req.GetString("date", ""))
	if raw == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(raw)
}

func noEntriesText(date string) string {
	return date + ": no worklog entries"
}
