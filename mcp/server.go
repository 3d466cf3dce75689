package mcp

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/final0920/mcp-worklog/internal/config"
	"github.com/final0920/mcp-worklog/internal/factory"
	"github.com/final0920/mcp-worklog/internal/health"
	"github.com/final0920/mcp-worklog/internal/httpapi"
	"github.com/final0920/mcp-worklog/internal/logger"
	"github.com/final0920/mcp-worklog/mcp/internal/handlers"
)

// Service is what the MCP tools need from the worklog.
type Service interface {
	handlers.DigestService
	handlers.SessionService
}

// loadConfig loads configuration from WORKLOG_* environment variables; command
// line flags override them.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("mcp-worklog", flag.ContinueOnError)
	fs.StringVar(&cfg.StoreDriver, "store-driver", cfg.StoreDriver, "Digest store: file|sqlite")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "Directory holding <date>.txt digests")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file for the sqlite store")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "IANA time zone deciding what today is")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: auto|stdio|http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Listen address for the HTTP transport")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger replaces the global logger; output goes to stderr.
func initLogger(cfg *config.Config) {
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	log.Logger = logger.New(cfg.ServerName).With().Caller().Logger()
}

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

func registerHandler(s *server.MCPServer, handler toolRegisterer, name string) error {
	if err := handler.RegisterTools(s); err != nil {
		log.Error().Err(err).Msgf("Failed to register %s tools", name)
		return err
	}
	return nil
}

// NewServer builds the MCP server with every worklog tool registered.
func NewServer(name, version string, svc Service) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	if err := registerHandler(s, handlers.NewWorklogHandler(svc), "worklog"); err != nil {
		return nil, err
	}
	if err := registerHandler(s, handlers.NewSessionHandler(svc), "session"); err != nil {
		return nil, err
	}
	return s, nil
}

// RunMCPServer starts the MCP server configured from the environment and os.Args.
func RunMCPServer() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := factory.NewRuntime(ctx, cfg, log.Logger)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to initialise worklog runtime")
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing worklog runtime")
		}
	}()

	s, err := NewServer(cfg.ServerName, cfg.ServerVersion, rt.Service)
	if err != nil {
		return err
	}

	if shouldUseStdio(cfg.Transport, os.Stdin) {
		log.Info().Str("driver", cfg.StoreDriver).Msg("Starting mcp-worklog (stdio transport)")
		return server.ServeStdio(s)
	}
	return serveHTTP(ctx, cfg, s, rt.Store)
}

func serveHTTP(ctx context.Context, cfg *config.Config, s *server.MCPServer, store health.HealthPinger) error {
	log.Info().Str("addr", cfg.HTTPAddr).Str("driver", cfg.StoreDriver).Msg("Starting mcp-worklog (Streamable HTTP)")

	streamSrv := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(cfg.HeartbeatInterval),
	)

	checker := health.NewChecker("store", store, log.Logger)
	go checker.Start(ctx, cfg.HeartbeatInterval)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(streamSrv, checker),
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      0, // No deadline - required for SSE streaming
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	shutdownComplete := make(chan struct{})
	go func() {
		defer close(shutdownComplete)
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
		if err := streamSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during MCP server shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("HTTP server error")
		return err
	}

	<-shutdownComplete
	log.Info().Msg("MCP server shutdown complete")
	return nil
}

// shouldUseStdio resolves the transport. In auto mode stdio is used when stdin
// is not a terminal, which is the case when an MCP host launched the process.
func shouldUseStdio(transport string, stdin *os.File) bool {
	switch transport {
	case config.TransportStdio:
		return true
	case config.TransportHTTP:
		return false
	}
	fd := stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}
