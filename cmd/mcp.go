/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/mcp"
	"github.com/wtthornton/LocalMCP/internal/telemetry"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI assistants",
	Long: `Start a Model Context Protocol (MCP) server over stdin/stdout so AI assistants such
as Claude Code and Cursor can enhance prompts with your project's context.

Tools:
  enhance      enhance a prompt with repo facts, code, docs and quality requirements
  cache_stats  report enhancement cache statistics

With --watch, manifest, docs and config changes invalidate cached enhancements
while the server runs.

The server runs until the client disconnects.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Bool("watch", false, "invalidate cached enhancements when project files change")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, _, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if watchFlag, _ := cmd.Flags().GetBool("watch"); watchFlag {
		w, err := svc.StartWatcher(ctx)
		if err != nil {
			slog.Warn("project watcher unavailable", "error", err)
		} else {
			defer w.Stop()
		}
	}

	handler := mcp.NewHandler(svc.Orchestrator, svc.Cache, mcp.Defaults{UseAI: svc.AIEnabled})
	server := mcp.NewServer(handler, version)

	svc.Telemetry.Track(telemetry.EventServerStarted, telemetry.Properties{"transport": "stdio"})
	slog.Info("MCP server starting", "root", svc.ProjectRoot, "capabilities", svc.Capabilities())
	return mcp.Serve(ctx, server)
}
