package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uialign/uialign/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run uialign as an MCP (Model Context Protocol) server",
		Long: `Start an MCP server that exposes alignment tools over stdio.

The MCP server lets AI tools (Continue.dev, Cursor, Cline, Windsurf,
GitHub Copilot) invoke uialign directly:

  • align_buttons   - Detect and refine button boxes on a screenshot
  • check_alignment - Ask whether one box encloses its element
  • list_runs       - List stored alignment runs

The server speaks the Model Context Protocol: JSON-RPC 2.0 over
stdin/stdout.

Example usage in Continue.dev config.json:

  {
    "mcpServers": {
      "uialign": {
        "command": "uialign",
        "args": ["mcp-server"],
        "cwd": "${workspaceFolder}"
      }
    }
  }
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "uialign",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			// Blocks until the client disconnects.
			if err := server.Run(context.Background()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}

	return cmd
}
