package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/config"
	"github.com/uialign/uialign/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored alignment runs",
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryExportCmd(),
	)

	return cmd
}

// openRunStore loads config just far enough to reach the database.
// History commands never need the vision client.
func openRunStore(root string) (*store.SQLiteStore, error) {
	conf, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(conf.DBPath(root))
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			runStore, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer runStore.Close()

			summaries, err := runStore.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				if summaries == nil {
					summaries = []store.RunSummary{}
				}
				return printJSON(cmd, map[string]any{
					"runs":  summaries,
					"count": len(summaries),
				})
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			fmt.Fprintf(out, "Stored runs (%d):\n\n", len(summaries))
			for i, summary := range summaries {
				fmt.Fprintf(out, "%d. %s\n", i+1, summary.RunID)
				fmt.Fprintf(out, "   %s  %d button(s), %d cycle(s), %d vision call(s)\n",
					summary.ImagePath, summary.Buttons, summary.Cycles, summary.VisionCalls)
				fmt.Fprintf(out, "   %s  %s\n",
					summary.StartedAt.Local().Format(time.RFC3339), summary.TerminationReason)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum runs to list (0 = all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its full cycle history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			runStore, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer runStore.Close()

			run, err := runStore.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, run)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", run.RunID)
			fmt.Fprintf(out, "  Image:       %s (%dx%d)\n", run.ImagePath, run.ImageWidth, run.ImageHeight)
			fmt.Fprintf(out, "  Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "  Finished:    %s\n", run.FinishedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "  Termination: %s\n", run.TerminationReason)
			fmt.Fprintf(out, "  Vision calls: %d\n", run.VisionCalls)

			fmt.Fprintf(out, "\nFinal buttons (%d):\n", len(run.Buttons))
			for i, button := range run.Buttons {
				box := button.BoundingBox
				fmt.Fprintf(out, "%d. %s  x=%d y=%d w=%d h=%d\n",
					i+1, button.ReferenceName, box.X, box.Y, box.Width, box.Height)
				if button.CorrectedInCycle > 0 {
					fmt.Fprintf(out, "   Moved in cycle %d: %s\n", button.CorrectedInCycle, button.LastIssue)
				}
			}

			fmt.Fprintf(out, "\nCycles (%d):\n", len(run.History))
			for _, record := range run.History {
				fmt.Fprintf(out, "%d. %s", record.Cycle, record.ResponseType)
				if record.ParsingSuccessful {
					fmt.Fprintf(out, "  corrections=%d confidence=%d accuracy=%d",
						record.CorrectionsApplied, record.Confidence, record.OverallAccuracy)
				}
				if record.Attempts > 1 {
					fmt.Fprintf(out, "  attempts=%d", record.Attempts)
				}
				if record.TerminationReason != "" {
					fmt.Fprintf(out, "  [%s]", record.TerminationReason)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all runs as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			outPath, _ := cmd.Flags().GetString("out")

			runStore, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer runStore.Close()

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			written, err := runStore.ExportJSONL(cmd.Context(), w)
			if err != nil {
				return err
			}

			// When streaming to stdout the JSONL is the output; only
			// report the count when it went to a file.
			if outPath != "" {
				if jsonOut {
					return printJSON(cmd, map[string]any{
						"exported": written,
						"path":     outPath,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d run(s) to %s\n", written, outPath)
			}
			return nil
		},
	}

	cmd.Flags().String("out", "", "Write to this file instead of stdout")

	return cmd
}
