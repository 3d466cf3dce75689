package worklog

import (
	"context"
	"time"

	"github.com/final0920/mcp-worklog/internal/model"
)

// Storage persists whole digests keyed by calendar date. Save overwrites the
// stored digest for d.Date entirely and returns where it was written.
// Load returns model.ErrNotFound when no digest exists for date.
type Storage interface {
	Save(ctx context.Context, d *model.Digest) (string, error)
	Load(ctx context.Context, date time.Time) (*model.Digest, error)
	Exists(ctx context.Context, date time.Time) (bool, error)
}

// Serializer runs fn exclusively with respect to other calls sharing key.
type Serializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// directSerializer runs fn inline. Used when write serialization is disabled.
type directSerializer struct{}

func (directSerializer) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
