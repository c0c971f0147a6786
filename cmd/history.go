package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently stored emails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalOpts.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}

			st, err := store.Open(cfg.DBPath, logging.WithOperation(slog.Default(), "history"))
			if err != nil {
				return err
			}
			defer st.Close()

			total, err := st.Count(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := st.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return printHistory(cmd.OutOrStdout(), total, recs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of emails to show")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: "+config.DefaultDBPath()+")")
	return cmd
}

func printHistory(w io.Writer, total int, recs []store.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STORED\tFROM\tSUBJECT\tRUN")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.StoredAt.Local().Format(time.DateTime),
			logging.Truncate(r.Sender, 40),
			logging.Truncate(r.Subject, 60),
			shortID(r.RunID))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d stored emails\n", len(recs), total)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
