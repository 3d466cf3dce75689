// Package collectors holds the helpers shared by the per-tool session
// collectors: timestamp decoding, day matching, message text extraction and
// collection metrics.
package collectors

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/final0920/mcp-worklog/internal/model"
)

var sessionsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "worklog",
	Subsystem: "collector",
	Name:      "sessions_total",
	Help:      "Sessions returned by each session source.",
}, []string{"source"})

// Record counts the sessions a collector returned and passes them through.
func Record(src model.Source, sessions []model.Session) []model.Session {
	sessionsCollected.WithLabelValues(string(src)).Add(float64(len(sessions)))
	return sessions
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp decodes a JSON timestamp that is either an ISO-8601 string or
// a number of epoch milliseconds. Zone-less strings are read as UTC.
func ParseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return ParseISO(s)
	}
	ms, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	return FromMillis(int64(ms)), true
}

// ParseISO parses an ISO-8601 timestamp string.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FromMillis converts epoch milliseconds to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// OnDay reports whether t falls on the calendar day day when read in loc.
// day is a model.Day value.
func OnDay(t time.Time, day time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return model.Day(t.In(loc)).Equal(model.Day(day))
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text extracts the human-readable text of a message content field. Content is
// either a plain string or an array of typed blocks, of which only "text" and
// "input_text" blocks are kept.
func Text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var blocks []contentBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return ""
		}
		var parts []string
		for _, b := range blocks {
			if (b.Type == "text" || b.Type == "input_text") && strings.TrimSpace(b.Text) != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// Message normalizes a user message for the feed: trimmed and truncated.
func Message(text string) string {
	return model.Truncate(strings.TrimSpace(text), model.MaxMessageRunes)
}

// Title derives a session title from the first user message.
func Title(text string) string {
	return model.Truncate(strings.TrimSpace(text), model.MaxTitleRunes)
}

// EachLine calls fn for every non-blank line of r. Lines may be arbitrarily
// long. It stops early when fn returns false.
func EachLine(r io.Reader, fn func(line []byte) bool) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if !fn(trimmed) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
