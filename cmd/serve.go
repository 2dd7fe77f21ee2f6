/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/server"
	"github.com/wtthornton/LocalMCP/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the enhancement API over HTTP",
	Long: `Serve a JSON API on localhost:

  POST   /api/enhance       enhance a prompt
  GET    /api/cache/stats   cache statistics
  DELETE /api/cache         clear the cache (?older_than=24h prunes instead)
  GET    /api/health        status, version and configured capabilities

Press Ctrl+C to stop.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", config.DefaultServerPort, "port to listen on")
	serveCmd.Flags().StringSlice("allow-origin", nil, "browser origins allowed to call the API")
	serveCmd.Flags().Bool("watch", false, "invalidate cached enhancements when project files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, _, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("port") && viper.IsSet("server.port") {
		port = viper.GetInt("server.port")
	}
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")
	srv, err := server.New(server.Config{
		Port:           port,
		Version:        version,
		Enhancer:       svc.Orchestrator,
		Cache:          svc.Cache,
		Capabilities:   svc.Capabilities(),
		UseAI:          svc.AIEnabled,
		AllowedOrigins: origins,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	if watchFlag, _ := cmd.Flags().GetBool("watch"); watchFlag {
		w, err := svc.StartWatcher(ctx)
		if err != nil {
			slog.Warn("project watcher unavailable", "error", err)
		} else {
			defer w.Stop()
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	svc.Telemetry.Track(telemetry.EventServerStarted, telemetry.Properties{"transport": "http"})

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "LocalMCP API listening on http://localhost:%d (project %s)\n", port, svc.ProjectRoot)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown error", "error", err)
	}
	wg.Wait()
	return runErr
}
