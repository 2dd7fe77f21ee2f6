/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage telemetry settings",
	Long: `View and manage LocalMCP's anonymous telemetry settings.

Telemetry is off until you enable it. When on, LocalMCP sends anonymous usage
counts such as which strategy was chosen and whether the cache hit. Prompts, file
paths and project names are never sent.`,
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current telemetry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := telemetryStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to read telemetry status: %w", err)
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), cfg)
		}
		out := cmd.OutOrStdout()
		switch {
		case cfg.NeedsConsent():
			fmt.Fprintln(out, "Telemetry: not configured (off)")
			fmt.Fprintln(out, "  To enable: localmcp telemetry enable")
		case cfg.IsEnabled():
			fmt.Fprintln(out, "Telemetry: enabled")
			fmt.Fprintf(out, "  Anonymous ID: %s\n", cfg.AnonymousID)
			fmt.Fprintln(out, "  To disable: localmcp telemetry disable")
		default:
			fmt.Fprintln(out, "Telemetry: disabled")
			fmt.Fprintln(out, "  To enable: localmcp telemetry enable")
		}
		return nil
	},
}

var telemetryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateTelemetry(cmd, true)
	},
}

var telemetryDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateTelemetry(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(telemetryStatusCmd, telemetryEnableCmd, telemetryDisableCmd)
}

func telemetryStore() (*telemetry.Store, error) {
	dir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	return telemetry.NewStore(afero.NewOsFs(), dir), nil
}

func updateTelemetry(cmd *cobra.Command, enabled bool) error {
	store, err := telemetryStore()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to read telemetry status: %w", err)
	}
	if enabled {
		cfg.Enable()
	} else {
		cfg.Disable()
	}
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("failed to save telemetry status: %w", err)
	}
	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Telemetry enabled. Thank you for helping improve LocalMCP!")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Telemetry disabled.")
	}
	return nil
}
