package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/localstate"
	"github.com/final0920/mcp-worklog/internal/model"
)

// Prefix is the environment variable prefix, e.g. WORKLOG_STORE_DRIVER.
const Prefix = "WORKLOG"

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"

	TransportAuto  = "auto"
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the configuration for the worklog server and CLI.
// Environment variables are parsed from the WORKLOG_ prefix.
type Config struct {
	// Digest storage
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	StoragePath string `envconfig:"STORAGE_PATH"`
	SQLitePath  string `envconfig:"SQLITE_PATH"`

	// IANA zone deciding what "today" is and how session days are matched.
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	// Session collection
	PageSize           int      `envconfig:"PAGE_SIZE" default:"50"`
	Sources            []string `envconfig:"SOURCES" default:"claude_code,kiro,cursor,codex"`
	ClaudeProjectsDir  string   `envconfig:"CLAUDE_PROJECTS_DIR"`
	KiroDir            string   `envconfig:"KIRO_DIR"`
	CursorWorkspaceDir string   `envconfig:"CURSOR_WORKSPACE_DIR"`
	CodexSessionsDir   string   `envconfig:"CODEX_SESSIONS_DIR"`

	// Per-date write serialization
	SerializeWrites bool `envconfig:"SERIALIZE_WRITES" default:"true"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MCP server
	Transport         string        `envconfig:"TRANSPORT" default:"auto"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":11547"`
	ServerName        string        `envconfig:"SERVER_NAME" default:"mcp-worklog"`
	ServerVersion     string        `envconfig:"SERVER_VERSION" default:"0.1.0"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPReadTimeout   time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPIdleTimeout   time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`

	// Resolved by ResolveDefaults.
	Location   *time.Location `ignored:"true"`
	SourceList []model.Source `ignored:"true"`
}

// New creates a Config by parsing WORKLOG_* environment variables and resolving defaults.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("store_driver", cfg.StoreDriver).
		Str("storage_path", cfg.StoragePath).
		Str("sqlite_path", cfg.SQLitePath).
		Str("timezone", cfg.Location.String()).
		Int("page_size", cfg.PageSize).
		Strs("sources", cfg.Sources).
		Bool("serialize_writes", cfg.SerializeWrites).
		Str("transport", cfg.Transport).
		Msg("Configuration loaded")

	return &cfg, nil
}

// ResolveDefaults validates the settings and fills in paths and derived values
// that depend on the host.
func (c *Config) ResolveDefaults() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" {
		c.StoreDriver = DriverFile
	}
	switch c.StoreDriver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	if c.StoragePath == "" {
		dir, err := localstate.DigestsDir()
		if err != nil {
			return fmt.Errorf("resolve storage path: %w", err)
		}
		c.StoragePath = dir
	}
	if c.StoreDriver == DriverSQLite && c.SQLitePath == "" {
		p, err := localstate.DBPath()
		if err != nil {
			return fmt.Errorf("resolve sqlite path: %w", err)
		}
		c.SQLitePath = p
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return err
	}
	c.Location = loc

	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be > 0, got %d", c.PageSize)
	}

	c.SourceList = c.SourceList[:0]
	for _, s := range c.Sources {
		if strings.TrimSpace(s) == "" {
			continue
		}
		src, err := model.ParseSource(s)
		if err != nil {
			return err
		}
		c.SourceList = append(c.SourceList, src)
	}

	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case "":
		c.Transport = TransportAuto
	case TransportAuto, TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported TRANSPORT: %s", c.Transport)
	}

	c.resolveSourceDirs()
	return nil
}

func (c *Config) resolveSourceDirs() {
	home, _ := os.UserHomeDir()
	// %APPDATA% on Windows, ~/Library/Application Support on macOS, ~/.config elsewhere.
	appConfig, _ := os.UserConfigDir()

	if c.ClaudeProjectsDir == "" && home != "" {
		c.ClaudeProjectsDir = filepath.Join(home, ".claude", "projects")
	}
	if c.CodexSessionsDir == "" && home != "" {
		c.CodexSessionsDir = filepath.Join(home, ".codex", "sessions")
	}
	if c.KiroDir == "" && appConfig != "" {
		c.KiroDir = filepath.Join(appConfig, "Kiro", "User", "globalStorage", "kiro.kiroagent")
	}
	if c.CursorWorkspaceDir == "" && appConfig != "" {
		c.CursorWorkspaceDir = filepath.Join(appConfig, "Cursor", "User", "workspaceStorage")
	}
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// NewForTesting creates a config rooted at dir with no session sources.
func NewForTesting(dir string) *Config {
	cfg := &Config{
		StoreDriver:     DriverFile,
		StoragePath:     filepath.Join(dir, "digests"),
		SQLitePath:      filepath.Join(dir, "worklog.db"),
		Timezone:        "UTC",
		PageSize:        50,
		Sources:         []string{},
		SerializeWrites: true,
		LogLevel:        "debug",
		Transport:       TransportStdio,
		HTTPAddr:        "127.0.0.1:0",
		ServerName:      "mcp-worklog-test",
		ServerVersion:   "test",
		ShutdownTimeout: 2 * time.Second,
		HTTPReadTimeout: 5 * time.Second,
		HTTPIdleTimeout: 30 * time.Second,

		HeartbeatInterval: 30 * time.Second,

		ClaudeProjectsDir:  filepath.Join(dir, "claude"),
		KiroDir:            filepath.Join(dir, "kiro"),
		CursorWorkspaceDir: filepath.Join(dir, "cursor"),
		CodexSessionsDir:   filepath.Join(dir, "codex"),
	}
	if err := cfg.ResolveDefaults(); err != nil {
		panic(err)
	}
	return cfg
}
