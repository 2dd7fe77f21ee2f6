package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/llm"
)

func resetViperForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func withGlobalDir(t *testing.T, dir string) {
	t.Helper()
	prev := GetGlobalConfigDir
	GetGlobalConfigDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { GetGlobalConfigDir = prev })
}

func TestLoadLLMConfig_Defaults(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.Provider(llm.ProviderOpenAI), cfg.Provider)
	assert.Equal(t, llm.GetDefaultModelID(llm.ProviderOpenAI), cfg.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.True(t, cfg.Enabled())
}

func TestLoadLLMConfig_Ollama(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "ollama")
	viper.Set("llm.model", "qwen2.5-coder")
	viper.Set("llm.maxTokens", 2048)

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultOllamaURL, cfg.BaseURL)
	assert.Equal(t, "qwen2.5-coder", cfg.Model)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.True(t, cfg.Enabled())
}

func TestLoadLLMConfig_InvalidProvider(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "mainframe")
	_, err := LoadLLMConfig()
	assert.ErrorContains(t, err, "invalid provider")
}

func TestResolveAPIKey(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google")

	viper.Set("llm.apiKey", "sk-legacy")
	assert.Equal(t, "sk-legacy", ResolveAPIKey(llm.ProviderOpenAI))
	assert.Empty(t, ResolveAPIKey(llm.ProviderAnthropic), "legacy key never leaks to other providers")
	assert.Equal(t, "google", ResolveAPIKey(llm.ProviderGemini))

	viper.Set("llm.apiKeys.anthropic", " sk-ant ")
	assert.Equal(t, "sk-ant", ResolveAPIKey(llm.ProviderAnthropic))
}

func TestLoadEnhanceConfig_Defaults(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("CONTEXT7_API_KEY", "")
	global := t.TempDir()
	withGlobalDir(t, global)
	root := t.TempDir()

	cfg, err := LoadEnhanceConfig(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, DefaultMaxSnippets, cfg.MaxSnippets)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(global, DefaultCacheFile), cfg.Cache.Path)
	assert.Equal(t, DefaultCacheMaxEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, DefaultDocsArgs, cfg.Docs.Args)
	assert.Equal(t, DefaultDocsTimeout, cfg.Docs.Timeout)
	assert.Equal(t, filepath.Join(root, LocalDirName, "policies"), cfg.PoliciesDir)
	assert.InDelta(t, DefaultAITemperature, cfg.AI.Temperature, 1e-6)
	assert.True(t, cfg.Telemetry)
}

func TestLoadEnhanceConfig_Overrides(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("CONTEXT7_API_KEY", "ctx7-env")
	root := t.TempDir()

	viper.Set("cache.backend", "Memory")
	viper.Set("cache.maxEntries", 50)
	viper.Set("context.maxSnippets", 8)
	viper.Set("docs.args", []string{"context7"})
	viper.Set("docs.timeout", "5s")
	viper.Set("docs.maxLibraries", 1)
	viper.Set("ai.enabled", false)
	viper.Set("ai.temperature", 0.7)
	viper.Set("policies.dir", "/etc/localmcp/policies")
	viper.Set("telemetry.enabled", false)

	cfg, err := LoadEnhanceConfig(root)
	require.NoError(t, err)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, 8, cfg.MaxSnippets)
	assert.Equal(t, []string{"context7"}, cfg.Docs.Args)
	assert.Equal(t, 5*time.Second, cfg.Docs.Timeout)
	assert.Equal(t, 1, cfg.Docs.MaxLibraries)
	assert.Equal(t, "ctx7-env", cfg.Docs.APIKey)
	assert.False(t, cfg.AI.Enabled)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, "/etc/localmcp/policies", cfg.PoliciesDir)
	assert.False(t, cfg.Telemetry)
}

func TestLoadEnhanceConfig_Invalid(t *testing.T) {
	resetViperForTest(t)
	viper.Set("cache.backend", "redis")
	_, err := LoadEnhanceConfig(t.TempDir())
	assert.ErrorContains(t, err, "cache.backend")

	viper.Reset()
	viper.Set("ai.temperature", 3)
	_, err = LoadEnhanceConfig(t.TempDir())
	assert.ErrorContains(t, err, "ai.temperature")

	viper.Reset()
	viper.Set("context.maxSnippets", 0)
	_, err = LoadEnhanceConfig(t.TempDir())
	assert.ErrorContains(t, err, "context.maxSnippets")
}

func TestGetCachePath(t *testing.T) {
	resetViperForTest(t)
	global := t.TempDir()
	withGlobalDir(t, global)
	t.Setenv("XDG_DATA_HOME", "")

	root := t.TempDir()
	assert.Equal(t, filepath.Join(global, DefaultCacheFile), GetCachePath(root))

	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "localmcp", DefaultCacheFile), GetCachePath(root))

	require.NoError(t, os.Mkdir(filepath.Join(root, LocalDirName), 0o755))
	assert.Equal(t, filepath.Join(root, LocalDirName, DefaultCacheFile), GetCachePath(root))

	viper.Set("cache.path", "/explicit/cache.db")
	assert.Equal(t, "/explicit/cache.db", GetCachePath(root))
}
