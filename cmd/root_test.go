package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// resetFlags restores every flag to its default so runs do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupTest isolates config, home directory and flags, and keeps the pipeline offline.
func setupTest(t *testing.T) string {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	cfgFile = ""

	home := t.TempDir()
	t.Setenv("HOME", home)
	prev := config.GetGlobalConfigDir
	config.GetGlobalConfigDir = func() (string, error) { return filepath.Join(home, ".localmcp"), nil }
	t.Cleanup(func() {
		config.GetGlobalConfigDir = prev
		viper.Reset()
		resetFlags(rootCmd)
	})

	t.Setenv("LOCALMCP_DOCS_ENABLED", "false")
	t.Setenv("LOCALMCP_AI_ENABLED", "false")
	t.Setenv("LOCALMCP_CACHE_BACKEND", "memory")
	t.Setenv("LOCALMCP_TELEMETRY_ENABLED", "false")

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "package.json"),
		[]byte(`{"name":"web","dependencies":{"react":"^18.2.0"}}`), 0644))
	return project
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd(t *testing.T) {
	setupTest(t)

	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "LocalMCP - context-aware prompt enhancement")
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "enhance")
	assert.Contains(t, out, "mcp")
	assert.Contains(t, out, "serve")
}

func TestVersionCmd(t *testing.T) {
	setupTest(t)

	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "localmcp "+GetVersion()))

	out, _, err = execute(t, "", "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, GetVersion(), v["version"])
}

func TestEnhanceCmd_JSON(t *testing.T) {
	project := setupTest(t)

	out, _, err := execute(t, "", "enhance", "--json", "--project", project, "--framework", "react", "add a login form")
	require.NoError(t, err)

	var resp enhance.EnhancedResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.EnhancedPrompt, "add a login form")
	assert.Equal(t, []string{"react"}, resp.FrameworkDetection.DetectedFrameworks)
}

func TestEnhanceCmd_Stdin(t *testing.T) {
	project := setupTest(t)

	out, _, err := execute(t, "fix the flaky date test\n", "enhance", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, out, "== Enhanced prompt ==")
	assert.Contains(t, out, "fix the flaky date test")
}

func TestEnhanceCmd_Errors(t *testing.T) {
	project := setupTest(t)

	_, _, err := execute(t, "", "enhance", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a prompt is required")

	_, _, err = execute(t, "", "enhance", "--project", project, "--ai", "add tests")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ai needs an LLM provider")

	resetFlags(rootCmd)
	_, _, err = execute(t, "", "enhance", "--project", project, "--max-tasks", "99", "add tests")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
}

func TestEnhanceOptionsFromFlags(t *testing.T) {
	setupTest(t)

	require.NoError(t, enhanceCmd.ParseFlags([]string{
		"--framework", "react",
		"--file", "src/App.tsx",
		"--no-cache",
		"--quality-focus", "security,performance",
		"--strategy", "quality-focused",
		"--breakdown",
		"--max-tasks", "4",
	}))

	hints, opts, err := enhanceOptionsFromFlags(enhanceCmd, true)
	require.NoError(t, err)
	assert.Equal(t, "react", hints.Framework)
	assert.Equal(t, "src/App.tsx", hints.File)
	assert.False(t, opts.UseCache)
	assert.Equal(t, []string{"security", "performance"}, opts.QualityFocus)
	assert.Equal(t, enhance.StrategyQualityFocused, opts.EnhancementStrategy)
	assert.True(t, opts.IncludeBreakdown)
	assert.Equal(t, 4, opts.MaxTasks)
	assert.True(t, opts.UseAIEnhancement, "AI follows the configured default")
}

func TestCacheCmd_SQLite(t *testing.T) {
	setupTest(t)
	t.Setenv("LOCALMCP_CACHE_BACKEND", "sqlite")
	t.Setenv("LOCALMCP_CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	out, _, err := execute(t, "", "cache", "stats", "--json")
	require.NoError(t, err)
	var st cache.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 0, st.Entries)

	resetFlags(rootCmd)
	out, _, err = execute(t, "", "cache", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 entries older than 1h0m0s.")

	out, _, err = execute(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared.")
}

func TestTelemetryCmd(t *testing.T) {
	setupTest(t)

	out, _, err := execute(t, "", "telemetry", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Telemetry: not configured (off)")

	out, _, err = execute(t, "", "telemetry", "enable")
	require.NoError(t, err)
	assert.Contains(t, out, "Telemetry enabled.")

	out, _, err = execute(t, "", "telemetry", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Telemetry: enabled")

	_, _, err = execute(t, "", "telemetry", "disable")
	require.NoError(t, err)
	out, _, err = execute(t, "", "telemetry", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Telemetry: disabled")
}

func TestCrashesCmd_None(t *testing.T) {
	setupTest(t)

	out, _, err := execute(t, "", "crashes")
	require.NoError(t, err)
	assert.Equal(t, "No crash logs.\n", out)
}
