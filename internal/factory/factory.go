// Package factory wires configured components into a worklog.Service.
package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/final0920/mcp-worklog/internal/collectors/claudecode"
	"github.com/final0920/mcp-worklog/internal/collectors/codex"
	"github.com/final0920/mcp-worklog/internal/collectors/cursor"
	"github.com/final0920/mcp-worklog/internal/collectors/kiro"
	"github.com/final0920/mcp-worklog/internal/config"
	"github.com/final0920/mcp-worklog/internal/health"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/session"
	"github.com/final0920/mcp-worklog/internal/shardqueue"
	"github.com/final0920/mcp-worklog/internal/storage/file"
	"github.com/final0920/mcp-worklog/internal/storage/sqlite"
	"github.com/final0920/mcp-worklog/internal/worklog"
)

// Store is a digest store that can be health-checked and closed.
type Store interface {
	worklog.Storage
	health.HealthPinger
	io.Closer
}

// NewStore returns the digest store selected by cfg.StoreDriver.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		s, err := file.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER: %s", cfg.StoreDriver)
	}
}

// NewCollectors returns one collector per configured source, in configured order.
func NewCollectors(cfg *config.Config) []session.Collector {
	out := make([]session.Collector, 0, len(cfg.SourceList))
	for _, src := range cfg.SourceList {
		switch src {
		case model.SourceClaudeCode:
			out = append(out, claudecode.New(cfg.ClaudeProjectsDir, cfg.Location))
		case model.SourceKiro:
			out = append(out, kiro.New(cfg.KiroDir, cfg.Location))
		case model.SourceCursor:
			out = append(out, cursor.New(cfg.CursorWorkspaceDir, cfg.Location))
		case model.SourceCodex:
			out = append(out, codex.New(cfg.CodexSessionsDir, cfg.Location))
		}
	}
	return out
}

// Runtime bundles the service with the resources that must be released on shutdown.
type Runtime struct {
	Service *worklog.Service
	Store   Store

	executor *shardqueue.ShardExecutor
}

// NewRuntime builds the store, collectors and optional per-date executor and
// returns a ready Service.
func NewRuntime(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []worklog.Option{
		worklog.WithCollectors(NewCollectors(cfg)...),
		worklog.WithLocation(cfg.Location),
		worklog.WithPageSize(cfg.PageSize),
		worklog.WithLogger(log),
	}

	rt := &Runtime{Store: store}
	if cfg.SerializeWrites {
		sqCfg, err := shardqueue.LoadConfig()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		rt.executor = shardqueue.NewShardExecutor(sqCfg)
		opts = append(opts, worklog.WithSerializer(rt.executor))
	}

	svc, err := worklog.NewService(store, opts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Service = svc

	log.Debug().
		Str("driver", cfg.StoreDriver).
		Int("collectors", len(cfg.SourceList)).
		Bool("serialized", rt.executor != nil).
		Msg("worklog runtime ready")
	return rt, nil
}

// Close stops the executor, draining queued writes, and closes the store.
func (r *Runtime) Close() error {
	if r.executor != nil {
		r.executor.Stop()
	}
	return r.Store.Close()
}
