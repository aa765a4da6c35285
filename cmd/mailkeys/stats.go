package main

import (
	"fmt"
	"io"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ajramos/mailkeys/internal/db"
	"github.com/spf13/cobra"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var (
		days  int
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how often each shortcut was used",
		Long: heredoc.Doc(`
			Prints the local usage counters kept when stats are enabled in the
			configuration. Only operation names are stored, never anything read from
			the page.
		`),
		Example: heredoc.Doc(`
			mailkeys stats
			mailkeys stats --days 7
			mailkeys stats --reset
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			ctx := cmd.Context()
			store, err := db.Open(ctx, root.cfg.StatsPath())
			if err != nil {
				return fmt.Errorf("open stats store: %w", err)
			}
			defer store.Close()
			stats := db.NewStatsStore(store)

			if reset {
				if err := stats.Reset(ctx); err != nil {
					return fmt.Errorf("reset stats: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Usage counters cleared")
				return nil
			}

			var counts []db.OpCount
			if days > 0 {
				counts, err = stats.CountsSince(ctx, days)
			} else {
				counts, err = stats.Counts(ctx)
			}
			if err != nil {
				return fmt.Errorf("read stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), counts, days > 0)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Only count the last N days (0 for all time)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete every counter")
	return cmd
}

func printStats(out io.Writer, counts []db.OpCount, windowed bool) {
	if len(counts) == 0 {
		fmt.Fprintln(out, "No usage recorded")
		return
	}
	for _, c := range counts {
		if windowed || c.LastUsed == 0 {
			fmt.Fprintf(out, "%-14s %6d\n", c.Op, c.Count)
			continue
		}
		last := time.Unix(c.LastUsed, 0).Format("2006-01-02 15:04")
		fmt.Fprintf(out, "%-14s %6d  last %s\n", c.Op, c.Count, last)
	}
}
