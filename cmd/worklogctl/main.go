package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/final0920/mcp-worklog/internal/config"
	"github.com/final0920/mcp-worklog/internal/factory"
	"github.com/final0920/mcp-worklog/internal/model"
)

type rootOptions struct {
	debug       bool
	output      string
	storeDriver string
	storagePath string
	sqlitePath  string
	timezone    string
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "worklogctl",
		Short:         "Inspect and edit the local daily worklog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if opts.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			switch opts.output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unsupported --output %q (want text|json|yaml)", opts.output)
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.debug, "debug", "d", false, "Enable verbose debug output")
	pf.StringVarP(&opts.output, "output", "o", outputText, "Output format: text|json|yaml")
	pf.StringVar(&opts.storeDriver, "store-driver", "", "Digest store: file|sqlite (default from WORKLOG_STORE_DRIVER)")
	pf.StringVar(&opts.storagePath, "storage-path", "", "Directory holding <date>.txt digests")
	pf.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file for the sqlite store")
	pf.StringVar(&opts.timezone, "timezone", "", "IANA time zone deciding what today is")

	rootCmd.AddCommand(newAppendCmd(opts))
	rootCmd.AddCommand(newShowCmd(opts))
	rootCmd.AddCommand(newPolishCmd(opts))
	rootCmd.AddCommand(newRewriteCmd(opts))
	rootCmd.AddCommand(newSessionsCmd(opts))

	return rootCmd
}

// loadConfig reads WORKLOG_* variables and applies non-empty flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if o.storeDriver != "" {
		cfg.StoreDriver = o.storeDriver
	}
	if o.storagePath != "" {
		cfg.StoragePath = o.storagePath
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	if o.timezone != "" {
		cfg.Timezone = o.timezone
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRuntime builds the worklog runtime, runs fn and releases the runtime.
func (o *rootOptions) withRuntime(ctx context.Context, fn func(ctx context.Context, rt *factory.Runtime) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	rt, err := factory.NewRuntime(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("close runtime")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return fn(ctx, rt)
}

func parseDateFlag(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}
