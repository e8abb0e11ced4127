package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/feedback"
	"github.com/uialign/uialign/internal/handlers"
	"github.com/uialign/uialign/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the alignment API over HTTP",
		Long: `Start an HTTP server exposing the alignment loop:

  POST /api/align      - run the loop for a screenshot
  GET  /api/runs       - list stored runs
  GET  /api/runs/{id}  - one run with its cycle history
  GET  /healthcheck    - liveness probe

Screenshots are accepted as server-side paths or inline base64.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			addr, _ := cmd.Flags().GetString("addr")

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}
			defer rt.close()

			if addr == "" {
				addr = rt.conf.Serve.Addr
			}

			orchestrator, err := feedback.NewOrchestrator(rt.client, feedback.FromConfig(rt.conf), rt.log, rt.traces)
			if err != nil {
				return err
			}

			runStore, err := store.NewSQLiteStore(rt.conf.DBPath(root))
			if err != nil {
				return err
			}
			defer runStore.Close()

			handler := handlers.New(orchestrator, runStore, rt.log)
			mux := http.NewServeMux()
			handler.Register(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("ok")); err != nil {
					rt.log.Error("Unable to write healthcheck", "err", err)
				}
			})

			rt.log.Info("Starting server", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to the configured serve.addr)")

	return cmd
}
