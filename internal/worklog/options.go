package worklog

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/final0920/mcp-worklog/internal/session"
)

// Option configures a Service during construction in NewService.
type Option func(*Service) error

// WithCollectors sets the session sources used by CollectSessions. Their order
// breaks ties between sessions that start at the same instant.
func WithCollectors(cs ...session.Collector) Option {
	return func(s *Service) error {
		s.collectors = append([]session.Collector(nil), cs...)
		return nil
	}
}

// WithSerializer routes every load-mutate-save through ser, keyed by date.
func WithSerializer(ser Serializer) Option {
	return func(s *Service) error {
		if ser == nil {
			return fmt.Errorf("serializer must not be nil")
		}
		s.serializer = ser
		return nil
	}
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) error {
		if loc == nil {
			return fmt.Errorf("location must not be nil")
		}
		s.loc = loc
		return nil
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		s.now = now
		return nil
	}
}

// WithPageSize sets the number of messages per CollectSessions page.
func WithPageSize(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return fmt.Errorf("page size must be > 0")
		}
		s.pageSize = n
		return nil
	}
}

// WithLogger sets the logger used for service-level events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) error {
		s.log = l
		return nil
	}
}
