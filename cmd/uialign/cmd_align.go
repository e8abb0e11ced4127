package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/detect"
	"github.com/uialign/uialign/internal/feedback"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/store"
	"github.com/uialign/uialign/internal/tokens"
)

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align button bounding boxes on a screenshot",
		Long: `Run the full feedback loop against a screenshot.

Without --buttons the vision model first detects the buttons itself;
with --buttons the given boxes are taken as the starting point. Each
cycle draws the current boxes onto the screenshot, asks the model to
critique them, and applies its corrections.

Example:
  uialign align --image login.png
  uialign align --image login.png --buttons boxes.json --out annotated.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			imagePath, _ := cmd.Flags().GetString("image")
			buttonsPath, _ := cmd.Flags().GetString("buttons")
			outPath, _ := cmd.Flags().GetString("out")
			noStore, _ := cmd.Flags().GetBool("no-store")

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}
			defer rt.close()

			img, format, err := overlay.Decode(imagePath)
			if err != nil {
				return fmt.Errorf("load screenshot: %w", err)
			}
			bounds := img.Bounds()
			rt.log.Debug("screenshot loaded",
				"path", imagePath,
				"format", format,
				"width", bounds.Dx(),
				"height", bounds.Dy(),
				"image_tokens_est", tokens.EstimateImage(bounds.Dx(), bounds.Dy(), rt.conf.API.Detail))

			var initial []models.Button
			if buttonsPath != "" {
				initial, err = detect.LoadFile(buttonsPath)
				if err != nil {
					return fmt.Errorf("load buttons: %w", err)
				}
			}

			orchestrator, err := feedback.NewOrchestrator(rt.client, feedback.FromConfig(rt.conf), rt.log, rt.traces)
			if err != nil {
				return err
			}

			result, err := orchestrator.Run(cmd.Context(), img, imagePath, initial)
			if err != nil {
				return err
			}

			if !noStore {
				runStore, err := store.NewSQLiteStore(rt.conf.DBPath(root))
				if err != nil {
					return err
				}
				defer runStore.Close()
				if err := runStore.SaveRun(cmd.Context(), result); err != nil {
					return err
				}
			}

			if outPath != "" {
				annotated := overlay.Render(img, result.Buttons, feedback.FromConfig(rt.conf).Overlay)
				data, err := overlay.EncodePNG(annotated)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("write annotated image: %w", err)
				}
			}

			if jsonOut {
				return printJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %s after %d cycle(s), %d vision call(s)\n\n",
				result.RunID, result.TerminationReason, len(result.History), result.VisionCalls)

			fmt.Fprintf(out, "Buttons (%d):\n", len(result.Buttons))
			for i, button := range result.Buttons {
				box := button.BoundingBox
				center := result.Centered[i]
				fmt.Fprintf(out, "%d. %s\n", i+1, button.ReferenceName)
				fmt.Fprintf(out, "   Box:    x=%d y=%d w=%d h=%d\n", box.X, box.Y, box.Width, box.Height)
				fmt.Fprintf(out, "   Center: (%d, %d)\n", center.CenterX, center.CenterY)
				if button.CorrectedInCycle > 0 {
					fmt.Fprintf(out, "   Moved in cycle %d: %s\n", button.CorrectedInCycle, button.LastIssue)
				}
			}

			fmt.Fprintf(out, "\nCycles:\n")
			for _, record := range result.History {
				fmt.Fprintf(out, "%d. %s", record.Cycle, record.ResponseType)
				if record.ParsingSuccessful {
					fmt.Fprintf(out, "  corrections=%d accuracy=%d", record.CorrectionsApplied, record.OverallAccuracy)
				}
				if record.Attempts > 1 {
					fmt.Fprintf(out, "  attempts=%d", record.Attempts)
				}
				fmt.Fprintln(out)
			}

			if outPath != "" {
				fmt.Fprintf(out, "\nAnnotated screenshot written to %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().String("image", "", "Screenshot to align against (required)")
	cmd.Flags().String("buttons", "", "JSON file with starting boxes (skips detection)")
	cmd.Flags().String("out", "", "Write the final annotated screenshot to this path")
	cmd.Flags().Bool("no-store", false, "Skip persisting the run")
	cmd.MarkFlagRequired("image")

	return cmd
}
