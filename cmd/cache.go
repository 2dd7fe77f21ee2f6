/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/app"
	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the enhancement cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, st)
			}
			return ui.RenderCacheStats(out, st, ui.RenderOptions{Styled: ui.IsTerminal(out)})
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached enhancement",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			if err := c.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"success": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached enhancements older than a duration",
	Example: `  localmcp cache prune --older-than 72h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return errors.New("--older-than must be positive")
		}
		return withCache(cmd, func(c *cache.Cache) error {
			n, err := c.Prune(cmd.Context(), age)
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"success": true, "removed": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %s.\n", n, age)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
	cachePruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "maximum entry age")
}

// withCache opens the configured cache store for a maintenance command.
func withCache(cmd *cobra.Command, fn func(*cache.Cache) error) error {
	cfg, err := config.LoadEnhanceConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Cache.Enabled {
		return app.ErrCacheDisabled
	}
	if cfg.Cache.Backend == config.CacheBackendMemory {
		cmd.PrintErrln("Note: the memory cache lives only inside a running server; this process starts empty.")
	}
	c, closer, err := app.OpenCache(cfg.Cache)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func(cl io.Closer) { _ = cl.Close() }(closer)
	}
	return fn(c)
}
