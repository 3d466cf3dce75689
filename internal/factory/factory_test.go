package factory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/final0920/mcp-worklog/internal/collectors/claudecode"
	"github.com/final0920/mcp-worklog/internal/collectors/codex"
	"github.com/final0920/mcp-worklog/internal/config"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/storage/file"
	"github.com/final0920/mcp-worklog/internal/storage/sqlite"
)

func TestNewStore_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	cfg := config.NewForTesting(t.TempDir())
	s, err := NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, s)
	require.NoError(t, s.Close())

	cfg.StoreDriver = config.DriverSQLite
	s, err = NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.Close())

	cfg.StoreDriver = "postgres"
	_, err = NewStore(ctx, cfg)
	assert.Error(t, err)
}

func TestNewCollectors_FollowsSourceOrder(t *testing.T) {
	cfg := config.NewForTesting(t.TempDir())
	cfg.SourceList = []model.Source{model.SourceCodex, model.SourceClaudeCode}

	got := NewCollectors(cfg)

	require.Len(t, got, 2)
	assert.IsType(t, &codex.Collector{}, got[0])
	assert.IsType(t, &claudecode.Collector{}, got[1])
}

func TestNewRuntime_AppendAndQuery(t *testing.T) {
	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.NewForTesting(t.TempDir())
			cfg.StoreDriver = driver

			rt, err := NewRuntime(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			defer func() { require.NoError(t, rt.Close()) }()

			res, err := rt.Service.Append(ctx, "wired end to end")
			require.NoError(t, err)
			assert.Equal(t, 1, res.EntryNumber)

			q, err := rt.Service.Query(ctx, rt.Service.Today())
			require.NoError(t, err)
			assert.True(t, q.Found)
			assert.Contains(t, q.Content, "1. wired end to end")
			assert.NoError(t, rt.Store.HealthPing(ctx))
		})
	}
}
