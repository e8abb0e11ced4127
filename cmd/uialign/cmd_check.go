package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/alignment"
	"github.com/uialign/uialign/internal/feedback"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether one bounding box encloses its element",
		Long: `Draw a single box onto the screenshot and ask the vision model a
yes/no question about it: does the box enclose the element, and if
not, which way should it move?

Example:
  uialign check --image login.png --x 30 --y 40 --width 120 --height 50 --name submit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			imagePath, _ := cmd.Flags().GetString("image")
			name, _ := cmd.Flags().GetString("name")
			x, _ := cmd.Flags().GetInt("x")
			y, _ := cmd.Flags().GetInt("y")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")

			box := models.BoundingBox{X: x, Y: y, Width: width, Height: height}
			if !box.IsValid() {
				return fmt.Errorf("invalid box: x=%d y=%d w=%d h=%d", x, y, width, height)
			}

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}
			defer rt.close()

			img, _, err := overlay.Decode(imagePath)
			if err != nil {
				return fmt.Errorf("load screenshot: %w", err)
			}

			cfg := alignment.DefaultCheckerConfig()
			cfg.NudgeStep = rt.conf.Loop.NudgeStep
			cfg.Overlay = feedback.FromConfig(rt.conf).Overlay
			checker, err := alignment.NewChecker(rt.client, cfg, rt.log, rt.traces)
			if err != nil {
				return err
			}

			check := checker.Check(cmd.Context(), img, models.Button{ReferenceName: name, BoundingBox: box})

			if jsonOut {
				return printJSON(cmd, check)
			}

			out := cmd.OutOrStdout()
			if check.IsAligned {
				fmt.Fprintln(out, "Aligned: the box encloses the element.")
			} else if check.NeedsMovement {
				fmt.Fprintf(out, "Misaligned: move the box %s.\n", check.Direction)
			} else {
				fmt.Fprintln(out, "Misaligned, but no direction was suggested.")
			}
			if check.Overlapping && !check.IsAligned {
				fmt.Fprintln(out, "The box does touch the element.")
			}
			fmt.Fprintf(out, "Verdict came from the %s parser.\n", check.ParseMethod)
			return nil
		},
	}

	cmd.Flags().String("image", "", "Screenshot to check against (required)")
	cmd.Flags().String("name", "element", "Name of the element inside the box")
	cmd.Flags().Int("x", 0, "Box left edge in pixels")
	cmd.Flags().Int("y", 0, "Box top edge in pixels")
	cmd.Flags().Int("width", 0, "Box width in pixels (required)")
	cmd.Flags().Int("height", 0, "Box height in pixels (required)")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")

	return cmd
}
