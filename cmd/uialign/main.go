package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/config"
	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/vision"
)

var version = "0.1.0-dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Error loading .env file", "err", err)
	}

	rootCmd := &cobra.Command{
		Use:   "uialign",
		Short: "Vision-guided alignment of UI bounding boxes",
		Long: `uialign draws candidate bounding boxes onto a screenshot, shows the
result to a vision model, and applies the model's corrections until the
boxes enclose their UI elements.

It can detect buttons from scratch, refine boxes you already have, and
answer single-box alignment questions. Runs are stored locally so past
refinements can be listed and exported.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newAlignCmd(),
		newDetectCmd(),
		newCheckCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				printJSON(cmd, map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "uialign version %s\n", version)
			}
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize alignment tracking in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			created, err := config.Init(root)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				status := "initialized"
				if !created {
					status = "already initialized"
				}
				return printJSON(cmd, map[string]string{
					"status": status,
					"path":   config.Dir(root),
				})
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s/ in %s\n", config.StateDirName, root)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/ already present in %s\n", config.StateDirName, root)
			}
			return nil
		},
	}
}

// runtime bundles the pieces most commands need. Logs go to stderr so
// stdout stays clean for --json output.
type runtime struct {
	conf   config.Config
	log    *slog.Logger
	traces *logging.Trace
	client vision.Client
}

func loadRuntime(root string) (*runtime, error) {
	conf, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	logger, trace, err := logging.New(logging.Options{
		Level:     conf.Log.Level,
		Console:   os.Stderr,
		TracePath: conf.TracePath(root),
	})
	if err != nil {
		return nil, err
	}

	client, err := vision.NewOpenAIClient(vision.ClientConfig{
		BaseURL: conf.API.BaseURL,
		APIKey:  conf.APIKey(),
		Model:   conf.API.Model,
		Detail:  conf.API.Detail,
		Proxy:   conf.API.Proxy,
		Timeout: conf.Timeout(),
	}, logger, trace)
	if err != nil {
		trace.Close()
		return nil, err
	}

	return &runtime{conf: conf, log: logger, traces: trace, client: client}, nil
}

func (rt *runtime) close() {
	rt.traces.Close()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
