package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/final0920/mcp-worklog/internal/factory"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/worklog"
)

func newAppendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "append <summary...>",
		Short: "Append an entry to today's digest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := strings.Join(args, " ")
			return opts.withRuntime(cmd.Context(), func(ctx context.Context, rt *factory.Runtime) error {
				start := time.Now()
				res, err := rt.Service.Append(ctx, summary)
				if err != nil {
					return err
				}
				log.Debug().Str("date", res.Date).Str("location", res.Location).Dur("elapsed", time.Since(start)).Msg("append completed")
				return render(cmd.OutOrStdout(), opts.output, res, res.Message)
			})
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the digest for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd.Context(), func(ctx context.Context, rt *factory.Runtime) error {
				res, err := rt.Service.Query(ctx, d)
				if err != nil {
					return err
				}
				text := res.Content
				if !res.Found {
					text = res.Date + ": no worklog entries"
				}
				return render(cmd.OutOrStdout(), opts.output, res, text)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (default today)")
	return cmd
}

func newPolishCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "polish",
		Short: "Trim, deduplicate and renumber a digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd.Context(), func(ctx context.Context, rt *factory.Runtime) error {
				res, err := rt.Service.Polish(ctx, d)
				if errors.Is(err, model.ErrNotFound) {
					return render(cmd.OutOrStdout(), opts.output, res, res.Date+": no worklog entries")
				}
				if err != nil {
					return err
				}
				text := fmt.Sprintf("Polished: %d -> %d entries\n\n%s", res.OriginalCount, res.PolishedCount, res.Content)
				return render(cmd.OutOrStdout(), opts.output, res, text)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (default today)")
	return cmd
}

func newRewriteCmd(opts *rootOptions) *cobra.Command {
	var date string
	var entries []string

	cmd := &cobra.Command{
		Use:   "rewrite --entry <text> [--entry <text>...]",
		Short: "Replace every entry of a digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd.Context(), func(ctx context.Context, rt *factory.Runtime) error {
				res, err := rt.Service.Rewrite(ctx, d, entries)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, res, res.Content)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (default today)")
	cmd.Flags().StringArrayVar(&entries, "entry", nil, "Entry text; repeat for each entry (required)")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var date string
	var page int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List AI tool sessions and one page of their user messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd.Context(), func(ctx context.Context, rt *factory.Runtime) error {
				res, err := rt.Service.CollectSessions(ctx, d, page)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, res, sessionsText(res))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (default today)")
	cmd.Flags().IntVar(&page, "page", 1, "1-based page of the message feed")
	return cmd
}

func sessionsText(res worklog.SessionsResult) string {
	var b strings.Builder
	if !res.Found {
		return res.Date + ": no AI sessions"
	}
	fmt.Fprintf(&b, "%s: %d sessions\n", res.Date, len(res.Sessions))
	for _, s := range res.Sessions {
		fmt.Fprintf(&b, "  %s %s\n", s.StartTime.Format("15:04"), s.Summary)
		for _, line := range strings.Split(s.Content, "\n") {
			if line != "" {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
	}
	p := res.Page
	fmt.Fprintf(&b, "\nMessages (page %d/%d, %d total)\n", p.Number, p.TotalPages, p.TotalMessages)
	for _, m := range p.Messages {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	if p.HasMore {
		fmt.Fprintf(&b, "\nMore: --page %d\n", p.Number+1)
	}
	return strings.TrimRight(b.String(), "\n")
}
