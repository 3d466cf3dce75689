package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for digest headers, file names and tool arguments.
const DateLayout = "2006-01-02"

// Entry is one immutable line of a daily digest.
type Entry struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry builds an Entry, rejecting content that is blank after trimming.
// The content itself is stored as given.
func NewEntry(content string) (Entry, error) {
	if strings.TrimSpace(content) == "" {
		return Entry{}, fmt.Errorf("entry content: %w", ErrEmptyInput)
	}
	return Entry{Content: content, CreatedAt: time.Now()}, nil
}

// Digest holds every entry recorded for one calendar day. Numbering is positional.
type Digest struct {
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// EmptyDigest returns a digest with no entries for the given day.
func EmptyDigest(date time.Time) *Digest {
	return &Digest{Date: Day(date), Entries: []Entry{}}
}

// Append pushes e to the end of the digest.
func (d *Digest) Append(e Entry) {
	d.Entries = append(d.Entries, e)
}

// Count returns the number of entries.
func (d *Digest) Count() int {
	return len(d.Entries)
}

// Contents returns entry contents in display order.
func (d *Digest) Contents() []string {
	out := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		out[i] = e.Content
	}
	return out
}

// DateString formats the digest date as YYYY-MM-DD.
func (d *Digest) DateString() string {
	return d.Date.Format(DateLayout)
}

// Day truncates t to its calendar day, keeping the wall-clock date of t's location
// and normalizing to midnight UTC so equal days compare equal.
func Day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}
