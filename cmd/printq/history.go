package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"
	"time"

	"github.com/cuemby/printq/pkg/storage"
	"github.com/cuemby/printq/pkg/types"
	"github.com/spf13/cobra"
)

// reportSink stores run reports and keeps the store bounded. The database
// is opened for each save so readers such as printq history are only
// locked out while a report is written.
type reportSink struct {
	dataDir string
	keep    int
}

func (s *reportSink) SaveReport(report *types.RunReport) error {
	store, err := storage.NewBoltStore(s.dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveReport(report); err != nil {
		return err
	}
	if s.keep > 0 {
		_, err := store.Prune(s.keep)
		return err
	}
	return nil
}

func openHistory() (*storage.BoltStore, error) {
	store, err := storage.OpenReadOnly(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	return store, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored run reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openHistory()
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.ListReports(limit)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		if len(reports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTARTED\tDURATION\tCHANGED\tFAILED\tSOURCE")
		for _, r := range reports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID,
				r.StartedAt.Format(time.RFC3339),
				r.Duration().Round(time.Millisecond),
				r.Changed(),
				r.Failed(),
				r.Source,
			)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one run report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := store.GetReport(args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var historyBackupCmd = &cobra.Command{
	Use:   "backup PATH",
	Short: "Copy the report database to PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Backup(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup written to %s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyBackupCmd)

	rootCmd.AddCommand(historyCmd)
}
