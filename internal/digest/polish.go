package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/final0920/mcp-worklog/internal/model"
)

// Polish returns a copy of d with contents trimmed and exact duplicates removed.
// The first occurrence of each trimmed content wins and order is preserved.
// Near-duplicates are left alone; callers wanting semantic merging use Rewrite.
func Polish(d *model.Digest) *model.Digest {
	out := model.EmptyDigest(d.Date)
	seen := make(map[string]struct{}, len(d.Entries))
	for _, e := range d.Entries {
		normalized := strings.TrimSpace(e.Content)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		entry, err := model.NewEntry(normalized)
		if err != nil {
			continue
		}
		out.Append(entry)
	}
	return out
}

// Rewrite builds a new digest for date from texts, dropping blank items.
// It returns model.ErrEmptyInput when nothing is left.
func Rewrite(date time.Time, texts []string) (*model.Digest, error) {
	out := model.EmptyDigest(date)
	for _, t := range texts {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			continue
		}
		entry, err := model.NewEntry(trimmed)
		if err != nil {
			continue
		}
		out.Append(entry)
	}
	if out.Count() == 0 {
		return nil, fmt.Errorf("rewrite %s: no non-blank entries: %w", out.DateString(), model.ErrEmptyInput)
	}
	return out, nil
}
