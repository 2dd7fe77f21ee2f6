/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/config"
)

const (
	configName = ".localmcp"
	envPrefix  = "LOCALMCP"
)

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	// Environment variables: LOCALMCP_CACHE_BACKEND overrides cache.backend.
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindFlags()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if _, err := os.Stat(config.LocalDirName); err == nil {
			viper.AddConfigPath(config.LocalDirName) // ./.localmcp/.localmcp.yaml
		}
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home) // $HOME/.localmcp.yaml
		}
		viper.AddConfigPath(".") // ./.localmcp.yaml
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFile == "":
			// No config file; defaults and environment apply.
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// bindFlags maps persistent flags onto config keys. It runs on every initialization so
// a viper.Reset between command runs keeps the bindings.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log.json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("json", flags.Lookup("json"))
	_ = viper.BindPFlag("project.root", flags.Lookup("project"))
}
