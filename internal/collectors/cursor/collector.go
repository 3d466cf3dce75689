// Package cursor reads Cursor composer sessions from the per-workspace
// state.vscdb SQLite databases.
package cursor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/collectors"
	"github.com/final0920/mcp-worklog/internal/model"
	sqlitestore "github.com/final0920/mcp-worklog/internal/storage/sqlite"
)

const (
	stateDB       = "state.vscdb"
	composerQuery = `SELECT value FROM ItemTable WHERE key = 'composer.composerData'`
)

// Collector implements session.Collector for Cursor.
type Collector struct {
	base string
	loc  *time.Location
}

// New returns a collector rooted at base
// (normally %APPDATA%/Cursor/User/workspaceStorage).
func New(base string, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{base: base, loc: loc}
}

func (c *Collector) Source() model.Source { return model.SourceCursor }

// Collect returns the composers created on day. Cursor does not keep message
// text in this table, so sessions carry no messages and a zero count.
func (c *Collector) Collect(ctx context.Context, day time.Time) []model.Session {
	workspaces, err := os.ReadDir(c.base)
	if err != nil {
		log.Debug().Err(err).Str("source", string(model.SourceCursor)).Str("path", c.base).Msg("session source unavailable")
		return nil
	}

	var sessions []model.Session
	for _, ws := range workspaces {
		if ctx.Err() != nil {
			break
		}
		if !ws.IsDir() {
			continue
		}
		dbPath := filepath.Join(c.base, ws.Name(), stateDB)
		if _, err := os.Stat(dbPath); err != nil {
			continue
		}
		found, err := c.readDB(ctx, dbPath, day)
		if err != nil {
			log.Debug().Err(err).Str("path", dbPath).Msg("skip cursor workspace")
			continue
		}
		sessions = append(sessions, found...)
	}
	return collectors.Record(model.SourceCursor, sessions)
}

type composerData struct {
	AllComposers []struct {
		ComposerID string `json:"composerId"`
		Name       string `json:"name"`
		CreatedAt  int64  `json:"createdAt"`
	} `json:"allComposers"`
}

func (c *Collector) readDB(ctx context.Context, path string, day time.Time) ([]model.Session, error) {
	db, err := sqlitestore.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var value []byte
	err = db.QueryRowContext(ctx, composerQuery).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data composerData
	if err := json.Unmarshal(value, &data); err != nil {
		return nil, err
	}

	var out []model.Session
	for _, comp := range data.AllComposers {
		if comp.CreatedAt == 0 {
			continue
		}
		start := collectors.FromMillis(comp.CreatedAt)
		if !collectors.OnDay(start, day, c.loc) {
			continue
		}
		out = append(out, model.Session{
			Source:    model.SourceCursor,
			SessionID: comp.ComposerID,
			StartTime: start,
			Title:     comp.Name,
		})
	}
	return out, nil
}
