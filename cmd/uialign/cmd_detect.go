package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/detect"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/vision"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect button bounding boxes on a screenshot",
		Long: `Ask the vision model to find every clickable element on a screenshot
and report a bounding box for each, without running refinement cycles.

The output can be saved and fed back into 'uialign align --buttons'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			imagePath, _ := cmd.Flags().GetString("image")

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}
			defer rt.close()

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("load screenshot: %w", err)
			}
			img, _, err := overlay.DecodeBytes(data)
			if err != nil {
				return fmt.Errorf("decode screenshot: %w", err)
			}
			bounds := img.Bounds()

			detector := detect.New(rt.client, rt.conf.RetryPolicy(), rt.log, rt.traces)
			buttons, err := detector.Detect(cmd.Context(), vision.DataURL(data), bounds.Dx(), bounds.Dy())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, map[string]any{
					"buttons": buttons,
					"count":   len(buttons),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Detected %d button(s) in %s:\n\n", len(buttons), imagePath)
			for i, button := range buttons {
				box := button.BoundingBox
				fmt.Fprintf(out, "%d. %s", i+1, button.ReferenceName)
				if button.ElementType != "" {
					fmt.Fprintf(out, " [%s]", button.ElementType)
				}
				fmt.Fprintln(out)
				fmt.Fprintf(out, "   Box: x=%d y=%d w=%d h=%d (confidence %.2f)\n",
					box.X, box.Y, box.Width, box.Height, button.Confidence)
				if button.Description != "" {
					fmt.Fprintf(out, "   %s\n", button.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("image", "", "Screenshot to scan (required)")
	cmd.MarkFlagRequired("image")

	return cmd
}
