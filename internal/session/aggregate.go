// Package session merges AI tool sessions from several collectors into one
// ordered, deduplicated and paginated message feed.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/model"
)

// Collector reads the sessions one AI tool recorded on a given day.
// Implementations swallow read and parse failures and return what they could
// collect, possibly nothing.
type Collector interface {
	Source() model.Source
	Collect(ctx context.Context, day time.Time) []model.Session
}

// Aggregate runs every collector concurrently, concatenates their results in
// collector order and stable-sorts the combined list by start time, so
// sessions with equal start times keep collector order. A collector that
// panics contributes nothing; the others are unaffected.
func Aggregate(ctx context.Context, collectors []Collector, day time.Time) []model.Session {
	results := make([][]model.Session, len(collectors))

	var wg sync.WaitGroup
	for i, c := range collectors {
		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("source", string(c.Source())).Interface("panic", r).Msg("session collector panic")
					results[i] = nil
				}
			}()
			results[i] = c.Collect(ctx, day)
		}(i, c)
	}
	wg.Wait()

	var all []model.Session
	for _, r := range results {
		all = append(all, r...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].StartTime.Before(all[j].StartTime)
	})
	return all
}

// FlattenMessages returns every session message in aggregation order with exact
// duplicates removed. Comparison is on the raw string.
func FlattenMessages(sessions []model.Session) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range sessions {
		for _, m := range s.Messages {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
