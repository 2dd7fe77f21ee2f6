package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/policy"
)

// CacheConfig selects and sizes the enhancement cache.
type CacheConfig struct {
	Enabled    bool
	Backend    string // memory or sqlite
	Path       string // sqlite file; empty means GetCachePath
	MaxEntries int
}

// DocsConfig controls documentation lookup.
type DocsConfig struct {
	Enabled      bool
	Command      string
	Args         []string
	APIKey       string // passed to the server as CONTEXT7_API_KEY
	Timeout      time.Duration
	MaxLibraries int
	TokenBudget  int
	ProjectDir   string // local docs directory, relative to the project root
	Curate       bool   // rank sections with embeddings before trimming
}

// AIConfig controls the model-driven passes.
type AIConfig struct {
	Enabled       bool
	Temperature   float32
	ContextTokens int
	Breakdown     bool
}

// EnhanceConfig is everything the enhancement pipeline needs besides the LLM config.
type EnhanceConfig struct {
	ProjectRoot string
	MaxSnippets int // upper bound on code snippets per request
	Cache       CacheConfig
	Docs        DocsConfig
	AI          AIConfig
	PoliciesDir string // empty means <root>/.localmcp/policies
	Telemetry   bool   // false disables telemetry regardless of consent
}

// DefaultEnhanceConfig returns the configuration used when nothing is set.
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{
		MaxSnippets: DefaultMaxSnippets,
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    DefaultCacheBackend,
			MaxEntries: DefaultCacheMaxEntries,
		},
		Docs: DocsConfig{
			Enabled:      true,
			Command:      DefaultDocsCommand,
			Args:         DefaultDocsArgs,
			Timeout:      DefaultDocsTimeout,
			MaxLibraries: DefaultDocsMaxLibraries,
			TokenBudget:  DefaultDocsTokenBudget,
			ProjectDir:   DefaultProjectDocsDir,
			Curate:       true,
		},
		AI: AIConfig{
			Enabled:       true,
			Temperature:   DefaultAITemperature,
			ContextTokens: DefaultAIContextTokens,
			Breakdown:     true,
		},
		Telemetry: true,
	}
}

// LoadEnhanceConfig reads the enhance settings from viper over DefaultEnhanceConfig.
// projectRoot falls back to "project.root" and then the working directory.
func LoadEnhanceConfig(projectRoot string) (EnhanceConfig, error) {
	d := DefaultEnhanceConfig()

	if projectRoot == "" {
		projectRoot = viper.GetString("project.root")
	}
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return EnhanceConfig{}, fmt.Errorf("resolve working directory: %w", err)
		}
		projectRoot = wd
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return EnhanceConfig{}, fmt.Errorf("resolve project root: %w", err)
	}

	cfg := EnhanceConfig{
		ProjectRoot: root,
		MaxSnippets: getIntWithDefault("context.maxSnippets", d.MaxSnippets),
		Cache: CacheConfig{
			Enabled:    getBoolWithDefault("cache.enabled", d.Cache.Enabled),
			Backend:    strings.ToLower(getStringWithDefault("cache.backend", d.Cache.Backend)),
			Path:       viper.GetString("cache.path"),
			MaxEntries: getIntWithDefault("cache.maxEntries", d.Cache.MaxEntries),
		},
		Docs: DocsConfig{
			Enabled:      getBoolWithDefault("docs.enabled", d.Docs.Enabled),
			Command:      getStringWithDefault("docs.command", d.Docs.Command),
			Args:         getStringSliceWithDefault("docs.args", d.Docs.Args),
			APIKey:       resolveContext7Key(),
			Timeout:      getDurationWithDefault("docs.timeout", d.Docs.Timeout),
			MaxLibraries: getIntWithDefault("docs.maxLibraries", d.Docs.MaxLibraries),
			TokenBudget:  getIntWithDefault("docs.tokenBudget", d.Docs.TokenBudget),
			ProjectDir:   getStringWithDefault("docs.projectDir", d.Docs.ProjectDir),
			Curate:       getBoolWithDefault("docs.curate", d.Docs.Curate),
		},
		AI: AIConfig{
			Enabled:       getBoolWithDefault("ai.enabled", d.AI.Enabled),
			Temperature:   float32(getFloat64WithDefault("ai.temperature", float64(d.AI.Temperature))),
			ContextTokens: getIntWithDefault("ai.contextTokens", d.AI.ContextTokens),
			Breakdown:     getBoolWithDefault("ai.breakdown", d.AI.Breakdown),
		},
		PoliciesDir: viper.GetString("policies.dir"),
		Telemetry:   getBoolWithDefault("telemetry.enabled", d.Telemetry),
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = GetCachePath(root)
	}
	if cfg.PoliciesDir == "" {
		cfg.PoliciesDir = policy.GetPoliciesPath(root)
	}

	if err := cfg.Validate(); err != nil {
		return EnhanceConfig{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c EnhanceConfig) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendSQLite:
	default:
		return fmt.Errorf("invalid cache.backend %q (want %s or %s)", c.Cache.Backend, CacheBackendMemory, CacheBackendSQLite)
	}
	if c.MaxSnippets < 1 {
		return fmt.Errorf("context.maxSnippets must be at least 1")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.maxEntries must not be negative")
	}
	if c.Docs.Enabled && c.Docs.Command == "" {
		return fmt.Errorf("docs.command is required when docs are enabled")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2")
	}
	return nil
}

func resolveContext7Key() string {
	if key := strings.TrimSpace(viper.GetString("docs.apiKey")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("CONTEXT7_API_KEY"))
}

// Helper functions for Viper with defaults

func getFloat64WithDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getBoolWithDefault(key string, defaultVal bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultVal
}

func getStringWithDefault(key string, defaultVal string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultVal
}

func getStringSliceWithDefault(key string, defaultVal []string) []string {
	if viper.IsSet(key) {
		return viper.GetStringSlice(key)
	}
	return defaultVal
}

func getDurationWithDefault(key string, defaultVal time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultVal
}
