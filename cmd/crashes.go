/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/logger"
)

var crashesCmd = &cobra.Command{
	Use:   "crashes",
	Short: "List crash logs, or print the latest with --show",
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := logger.ListCrashLogs()
		if err != nil {
			return fmt.Errorf("list crash logs: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(logs) == 0 {
			fmt.Fprintln(out, "No crash logs.")
			return nil
		}
		if show, _ := cmd.Flags().GetBool("show"); show {
			content, err := logger.ReadCrashLog(logs[len(logs)-1])
			if err != nil {
				return fmt.Errorf("read crash log: %w", err)
			}
			fmt.Fprint(out, content)
			return nil
		}
		for _, l := range logs {
			fmt.Fprintln(out, l)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crashesCmd)
	crashesCmd.Flags().Bool("show", false, "print the most recent crash log")
}
