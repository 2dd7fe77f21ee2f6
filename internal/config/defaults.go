// Package config loads LocalMCP settings from viper (flags, LOCALMCP_* environment
// variables and .localmcp.yaml) and supplies defaults for everything unset.
package config

import "time"

// DefaultMaxSnippets bounds the code snippets gathered for one request.
const DefaultMaxSnippets = 5

// Cache defaults.
const (
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"

	DefaultCacheBackend    = CacheBackendSQLite
	DefaultCacheMaxEntries = 1000
	DefaultCacheFile       = "cache.db"
)

// Documentation defaults. The Context7 server is started with npx on first use.
const (
	DefaultDocsCommand      = "npx"
	DefaultDocsMaxLibraries = 3
	DefaultDocsTokenBudget  = 4000
	DefaultDocsTimeout      = 30 * time.Second
	DefaultProjectDocsDir   = "docs"
)

// DefaultDocsArgs are the arguments passed to DefaultDocsCommand.
var DefaultDocsArgs = []string{"-y", "@upstash/context7-mcp"}

// AI defaults.
const (
	DefaultAITemperature   = 0.2
	DefaultAIContextTokens = 6000
)

// Server defaults.
const (
	DefaultServerPort = 3000
)

// DefaultPostHogAPIKey is empty in source builds; release builds set it with -ldflags.
var DefaultPostHogAPIKey = ""
