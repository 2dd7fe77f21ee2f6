package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalDirName is the per-project directory for cache and policies.
const LocalDirName = ".localmcp"

// GetGlobalConfigDir returns ~/.localmcp. It is a variable so tests can override it.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDirName), nil
}

// GetCachePath returns the SQLite cache file.
// Resolution order (first match wins):
// 1. Explicit config via "cache.path"
// 2. Project directory: <root>/.localmcp/cache.db, if <root>/.localmcp exists
// 3. XDG_DATA_HOME/localmcp/cache.db
// 4. ~/.localmcp/cache.db
func GetCachePath(projectRoot string) string {
	if path := viper.GetString("cache.path"); path != "" {
		return path
	}

	if projectRoot != "" {
		local := filepath.Join(projectRoot, LocalDirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return filepath.Join(local, DefaultCacheFile)
		}
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "localmcp", DefaultCacheFile)
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return filepath.Join(LocalDirName, DefaultCacheFile)
	}
	return filepath.Join(dir, DefaultCacheFile)
}
