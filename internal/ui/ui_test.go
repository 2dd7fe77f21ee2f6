package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

func TestStyledOutput(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	var buf bytes.Buffer
	require.NoError(t, RenderCacheStats(&buf, cache.Stats{}, RenderOptions{Styled: true}))
	assert.Contains(t, buf.String(), "\x1b[", "forced profile adds ANSI codes")

	assert.Equal(t, " (cached)", cachedBadge(RenderOptions{}))
	assert.NotEqual(t, " (cached)", cachedBadge(RenderOptions{Styled: true}))
	assert.Contains(t, section("Tasks", RenderOptions{Styled: true}), "Tasks")
}

func TestTable(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Task"},
		Rows: [][]string{
			{"task-1", "Add login form"},
			{"task-2", "Write a very long description that will be cut"},
		},
		MaxWidth: 20,
		Plain:    true,
	}
	assert.Equal(t, []int{6, 20}, table.ColumnWidths())

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, " ID      Task                ", lines[0])
	assert.Equal(t, " task-1  Add login form", lines[2])
	assert.Contains(t, lines[3], "…")

	assert.Empty(t, (&Table{}).Render())
}

func TestTable_WideRunes(t *testing.T) {
	table := &Table{Headers: []string{"Name"}, Rows: [][]string{{"日本語"}}, Plain: true}
	assert.Equal(t, []int{6}, table.ColumnWidths())
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "hello world", WrapText("hello world", 20))
	assert.Equal(t, "hello\nworld foo\nbar", WrapText("hello world foo bar", 10))
	assert.Equal(t, "hello", WrapText("hello", 0))
}

func TestRunWithSpinner_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	got, err := RunWithSpinner(context.Background(), &buf, "enhancing", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Empty(t, buf.String(), "no spinner when output is not a terminal")

	_, err = RunWithSpinner(context.Background(), &buf, "enhancing", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func sampleResponse() *enhance.EnhancedResponse {
	return &enhance.EnhancedResponse{
		Success:        true,
		EnhancedPrompt: "Add a login form to the settings page.",
		ContextUsed: enhance.ContextUsed{
			RepoFacts:     []string{"Project: web", "Language: typescript"},
			CodeSnippets:  []string{"src/settings.tsx"},
			FrameworkDocs: []string{"react"},
			ProjectDocs:   []string{},
		},
		Breakdown: &enhance.Breakdown{
			MainTasks: []enhance.Task{
				{ID: "task-1", Title: "Build form", Priority: "high", EstimatedHours: 2},
				{ID: "task-2", Title: "Wire submit", Priority: "medium"},
			},
			Subtasks:     []enhance.Subtask{{ID: "task-1.1", ParentID: "task-1", Title: "Fields"}},
			Dependencies: []enhance.Dependency{{TaskID: "task-2", DependsOn: "task-1"}},
		},
		Strategy:        &enhance.EnhancementStrategy{Kind: enhance.StrategyFrameworkSpecific, Framework: "react"},
		Recommendations: []string{"Add tests for validation"},
		Metrics: enhance.Metrics{
			ResponseTimeMs:       120,
			QualityScore:         0.8,
			ConfidenceScore:      0.7,
			TokenRatio:           3.5,
			FrameworksDetected:   []string{"react"},
			AIEnhancementEnabled: true,
			Cost:                 0.0012,
		},
	}
}

func TestRenderResponse_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, sampleResponse(), RenderOptions{Width: 80}))
	out := buf.String()

	for _, want := range []string{
		"== Enhanced prompt ==",
		"strategy: framework-specific (react)",
		"Add a login form to the settings page.",
		"repo facts: 2",
		"code: src/settings.tsx",
		"framework docs: react",
		"== Tasks ==",
		"task-1  Build form",
		"task-2  Wire submit",
		"- Add tests for validation",
		"120ms · quality 0.80 · confidence 0.70 · ratio 3.5x · frameworks react · ai $0.0012",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "project docs")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderResponse_CachedMinimal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, RenderOptions{}))
	out := buf.String()
	assert.Contains(t, out, "== Enhanced prompt (cached) ==")
	assert.NotContains(t, out, "Context used")
	assert.NotContains(t, out, "Tasks")
}

func TestRenderCacheStats(t *testing.T) {
	var buf bytes.Buffer
	st := cache.Stats{
		StoreStats: cache.StoreStats{Entries: 3, TotalHits: 5},
		Hits:       2,
		Misses:     2,
		HitRate:    0.5,
		Generation: 1,
	}
	require.NoError(t, RenderCacheStats(&buf, st, RenderOptions{}))
	out := buf.String()
	assert.Contains(t, out, "Entries")
	assert.Contains(t, out, "50%")
	assert.NotContains(t, out, "Oldest entry")

	buf.Reset()
	st.Oldest = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st.Newest = st.Oldest.Add(time.Hour)
	require.NoError(t, RenderCacheStats(&buf, st, RenderOptions{}))
	assert.Contains(t, buf.String(), "2025-01-01T01:00:00Z")
}
