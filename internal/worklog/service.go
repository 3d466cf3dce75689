// Package worklog orchestrates the daily digest use cases: every call loads
// the digest for one date, mutates it in memory and saves it whole.
package worklog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/final0920/mcp-worklog/internal/digest"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/session"
)

// Service implements append, query, polish, rewrite and session collection.
// It keeps no state between calls beyond what Storage persists.
type Service struct {
	storage    Storage
	collectors []session.Collector
	serializer Serializer
	loc        *time.Location
	now        func() time.Time
	pageSize   int
	log        zerolog.Logger
}

// NewService returns a Service backed by storage.
func NewService(storage Storage, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage must not be nil")
	}
	s := &Service{
		storage:    storage,
		serializer: directSerializer{},
		loc:        time.Local,
		now:        time.Now,
		pageSize:   session.DefaultPageSize,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Today returns the current calendar day in the service's time zone.
func (s *Service) Today() time.Time {
	return model.Day(s.now().In(s.loc))
}

// resolve maps a zero date to today.
func (s *Service) resolve(date time.Time) time.Time {
	if date.IsZero() {
		return s.Today()
	}
	return model.Day(date)
}

// Append adds text as a new entry to today's digest, creating it if needed.
func (s *Service) Append(ctx context.Context, text string) (AppendResult, error) {
	content := singleLine(text)
	if content == "" {
		return AppendResult{}, fmt.Errorf("append: %w", model.ErrEmptyInput)
	}
	entry, err := model.NewEntry(content)
	if err != nil {
		return AppendResult{}, err
	}

	today := s.Today()
	var res AppendResult
	err = s.serializer.Do(ctx, dateKey(today), func(ctx context.Context) error {
		d, err := s.loadOrEmpty(ctx, today)
		if err != nil {
			return err
		}
		d.Append(entry)
		loc, err := s.storage.Save(ctx, d)
		if err != nil {
			return fmt.Errorf("save digest %s: %w", d.DateString(), err)
		}
		res = AppendResult{
			Location:    loc,
			Date:        d.DateString(),
			EntryNumber: d.Count(),
			Message:     fmt.Sprintf("Added entry #%d to %s", d.Count(), d.DateString()),
		}
		return nil
	})
	if err != nil {
		return AppendResult{}, err
	}

	s.log.Debug().Str("date", res.Date).Int("entry_number", res.EntryNumber).Msg("worklog entry appended")
	return res, nil
}

// Query renders the digest for date (zero means today).
func (s *Service) Query(ctx context.Context, date time.Time) (DigestResult, error) {
	date = s.resolve(date)
	res := DigestResult{Date: date.Format(model.DateLayout)}

	d, err := s.storage.Load(ctx, date)
	if errors.Is(err, model.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return DigestResult{}, fmt.Errorf("load digest %s: %w", res.Date, err)
	}

	res.Content = digest.Format(d)
	res.EntryCount = d.Count()
	res.Found = true
	return res, nil
}

// Polish trims, deduplicates and renumbers the digest for date and saves it.
// It returns model.ErrNotFound when no digest exists for date.
func (s *Service) Polish(ctx context.Context, date time.Time) (PolishResult, error) {
	date = s.resolve(date)
	res := PolishResult{Date: date.Format(model.DateLayout)}

	err := s.serializer.Do(ctx, dateKey(date), func(ctx context.Context) error {
		d, err := s.storage.Load(ctx, date)
		if err != nil {
			return fmt.Errorf("polish %s: %w", res.Date, err)
		}
		polished := digest.Polish(d)
		loc, err := s.storage.Save(ctx, polished)
		if err != nil {
			return fmt.Errorf("save digest %s: %w", res.Date, err)
		}
		res.OriginalCount = d.Count()
		res.PolishedCount = polished.Count()
		res.Content = digest.Format(polished)
		res.Location = loc
		return nil
	})
	if err != nil {
		return PolishResult{Date: res.Date}, err
	}

	s.log.Debug().
		Str("date", res.Date).
		Int("original_count", res.OriginalCount).
		Int("polished_count", res.PolishedCount).
		Msg("digest polished")
	return res, nil
}

// Rewrite replaces every entry of the digest for date with entries. Blank items
// are dropped; model.ErrEmptyInput is returned, and nothing is written, when no
// item is left.
func (s *Service) Rewrite(ctx context.Context, date time.Time, entries []string) (RewriteResult, error) {
	date = s.resolve(date)

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = singleLine(e)
	}
	d, err := digest.Rewrite(date, lines)
	if err != nil {
		return RewriteResult{}, err
	}

	res := RewriteResult{Date: d.DateString()}
	err = s.serializer.Do(ctx, dateKey(date), func(ctx context.Context) error {
		existed, err := s.storage.Exists(ctx, date)
		if err != nil {
			return fmt.Errorf("check digest %s: %w", res.Date, err)
		}
		loc, err := s.storage.Save(ctx, d)
		if err != nil {
			return fmt.Errorf("save digest %s: %w", res.Date, err)
		}
		res.Replaced = existed
		res.Location = loc
		return nil
	})
	if err != nil {
		return RewriteResult{}, err
	}

	res.Content = digest.Format(d)
	res.EntryCount = d.Count()
	s.log.Debug().Str("date", res.Date).Int("entry_count", res.EntryCount).Bool("replaced", res.Replaced).Msg("digest rewritten")
	return res, nil
}

// CollectSessions aggregates the sessions of every configured source for date
// and returns page number page of the deduplicated user-message feed.
func (s *Service) CollectSessions(ctx context.Context, date time.Time, page int) (SessionsResult, error) {
	date = s.resolve(date)
	res := SessionsResult{Date: date.Format(model.DateLayout), Sessions: []SessionInfo{}}

	sessions := session.Aggregate(ctx, s.collectors, date)
	if err := ctx.Err(); err != nil {
		return SessionsResult{}, err
	}
	for _, ss := range sessions {
		res.Sessions = append(res.Sessions, SessionInfo{
			Source:       ss.Source,
			SessionID:    ss.SessionID,
			StartTime:    ss.StartTime,
			Title:        ss.Title,
			MessageCount: ss.MessageCount,
			Summary:      ss.Summary(),
			Content:      ss.ContentSummary(),
		})
	}
	res.Found = len(sessions) > 0
	res.Page = session.Paginate(session.FlattenMessages(sessions), page, s.pageSize)

	s.log.Debug().
		Str("date", res.Date).
		Int("sessions", len(sessions)).
		Int("messages", res.Page.TotalMessages).
		Int("page", res.Page.Number).
		Msg("sessions collected")
	return res, nil
}

func (s *Service) loadOrEmpty(ctx context.Context, date time.Time) (*model.Digest, error) {
	d, err := s.storage.Load(ctx, date)
	if errors.Is(err, model.ErrNotFound) {
		return model.EmptyDigest(date), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load digest %s: %w", date.Format(model.DateLayout), err)
	}
	return d, nil
}

func dateKey(date time.Time) string {
	return date.Format(model.DateLayout)
}

// singleLine trims text and folds line breaks into spaces; an entry spanning
// several lines would not survive the numbered-line text format.
func singleLine(text string) string {
	text = strings.TrimSpace(text)
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return strings.Join(strings.Fields(text), " ")
}
