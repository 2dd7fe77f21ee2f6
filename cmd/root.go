/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// version is the application version, overridden at build time.
	version = "0.1.0"
)

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "localmcp",
	Short: "LocalMCP - context-aware prompt enhancement for coding assistants",
	Long: `LocalMCP turns short coding requests into prompts that carry your project's context:
repo facts, relevant code, framework documentation and quality requirements.

Use it from the command line with 'localmcp enhance', from an AI assistant with
'localmcp mcp', or over HTTP with 'localmcp serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log.level")
		if viper.GetBool("verbose") {
			level = "debug"
		}
		logger.Setup(logger.Options{Level: level, JSON: viper.GetBool("log.json"), Output: cmd.ErrOrStderr()})
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		if dir, err := config.GetGlobalConfigDir(); err == nil {
			logger.SetBasePath(dir)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.localmcp/.localmcp.yaml, $HOME/.localmcp.yaml or ./.localmcp.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
	rootCmd.PersistentFlags().String("project", "", "project root (default: detected from the working directory)")
}
