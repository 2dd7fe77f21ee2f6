package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

type fakeEnhancer struct {
	resp   *enhance.EnhancedResponse
	err    error
	prompt string
	hints  enhance.Hints
	opts   enhance.Options
}

func (f *fakeEnhancer) Enhance(_ context.Context, prompt string, hints enhance.Hints, opts enhance.Options) (*enhance.EnhancedResponse, error) {
	f.prompt, f.hints, f.opts = prompt, hints, opts
	return f.resp, f.err
}

func sampleResponse() *enhance.EnhancedResponse {
	return &enhance.EnhancedResponse{
		Success:        true,
		EnhancedPrompt: "Add a login form using React hooks.",
		ContextUsed: enhance.ContextUsed{
			RepoFacts:     []string{"Project name: web", "Uses TypeScript"},
			FrameworkDocs: []string{"react"},
		},
		FrameworkDetection: enhance.FrameworkDetectionResult{
			DetectedFrameworks: []string{"react"},
			Confidence:         0.9,
			DetectionMethod:    enhance.DetectionPattern,
		},
		Strategy:        &enhance.EnhancementStrategy{Kind: enhance.StrategyFrameworkSpecific},
		Todos:           []enhance.Todo{{ID: "task-1", Content: "Create form component", Priority: "high"}},
		Recommendations: []string{"Add tests for validation"},
		Metrics:         enhance.Metrics{ResponseTimeMs: 42, QualityScore: 0.8, ConfidenceScore: 0.7},
	}
}

func textOf(t *testing.T, res *mcpsdk.CallToolResultFor[any]) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func boolPtr(b bool) *bool { return &b }

func TestEnhanceParams_Options(t *testing.T) {
	p := EnhanceParams{Prompt: "x"}
	opts := p.Options(Defaults{UseAI: true})
	assert.True(t, opts.UseCache)
	assert.True(t, opts.UseAIEnhancement)

	p = EnhanceParams{
		Prompt:           "x",
		UseCache:         boolPtr(false),
		UseAI:            boolPtr(false),
		MaxTokens:        500,
		Strategy:         " quality-focused ",
		QualityFocus:     []string{"security"},
		ProjectType:      "frontend",
		IncludeBreakdown: true,
		MaxTasks:         3,
		ProjectID:        "web",
	}
	opts = p.Options(Defaults{UseAI: true})
	assert.False(t, opts.UseCache)
	assert.False(t, opts.UseAIEnhancement)
	assert.Equal(t, 500, opts.MaxTokens)
	assert.Equal(t, enhance.StrategyQualityFocused, opts.EnhancementStrategy)
	assert.Equal(t, enhance.ProjectType("frontend"), opts.ProjectType)
	assert.True(t, opts.IncludeBreakdown)
	assert.Equal(t, 3, opts.MaxTasks)
	assert.Equal(t, "web", opts.ProjectID)
}

func TestHandleEnhance_Markdown(t *testing.T) {
	fe := &fakeEnhancer{resp: sampleResponse()}
	h := NewHandler(fe, nil, Defaults{})

	res, err := h.HandleEnhance(context.Background(), EnhanceParams{Prompt: "add login", File: " src/App.tsx ", Framework: "react"})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := textOf(t, res)
	assert.Contains(t, text, "Add a login form using React hooks.")
	assert.Contains(t, text, "**Strategy**: framework-specific")
	assert.Contains(t, text, "**Frameworks**: react (pattern, 90%)")
	assert.Contains(t, text, "2 repo facts; docs for react")
	assert.Contains(t, text, "- [ ] Create form component (high)")
	assert.Contains(t, text, "- Add tests for validation")

	assert.Equal(t, "add login", fe.prompt)
	assert.Equal(t, "src/App.tsx", fe.hints.File)
	assert.Equal(t, "react", fe.hints.Framework)
}

func TestHandleEnhance_JSON(t *testing.T) {
	h := NewHandler(&fakeEnhancer{resp: sampleResponse()}, nil, Defaults{})

	res, err := h.HandleEnhance(context.Background(), EnhanceParams{Prompt: "add login", Format: "JSON"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var decoded enhance.EnhancedResponse
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &decoded))
	assert.Equal(t, "Add a login form using React hooks.", decoded.EnhancedPrompt)
	assert.Equal(t, []string{"react"}, decoded.FrameworkDetection.DetectedFrameworks)
}

func TestHandleEnhance_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params EnhanceParams
		err    error
		want   string
	}{
		{name: "empty prompt", params: EnhanceParams{Prompt: "  "}, want: "prompt is required"},
		{name: "bad format", params: EnhanceParams{Prompt: "x", Format: "xml"}, want: "format must be markdown or json"},
		{
			name:   "validation",
			params: EnhanceParams{Prompt: "x"},
			err:    &enhance.ValidationError{Problems: []string{"maxTasks must be at most 50"}},
			want:   "## Validation Error\n\n- maxTasks must be at most 50",
		},
		{name: "pipeline failure", params: EnhanceParams{Prompt: "x"}, err: errors.New("boom"), want: "**Details**: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeEnhancer{err: tt.err}, nil, Defaults{})
			res, err := h.HandleEnhance(context.Background(), tt.params)
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, textOf(t, res), tt.want)
		})
	}
}

func TestHandleCacheStats(t *testing.T) {
	h := NewHandler(&fakeEnhancer{}, nil, Defaults{})
	res, err := h.HandleCacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cache is disabled.", textOf(t, res))

	c := cache.New(cache.NewMemoryStore(10), cache.NewInvalidator())
	_, _ = c.Get(context.Background(), cache.Key{Key: "missing"})
	h = NewHandler(&fakeEnhancer{}, c, Defaults{})
	res, err = h.HandleCacheStats(context.Background())
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, "- **Entries**: 0")
	assert.Contains(t, text, "- **Hits / misses**: 0 / 1 (0% hit rate)")
}

func TestFormatEnhance_Nil(t *testing.T) {
	assert.Equal(t, "No enhancement produced.", FormatEnhance(nil))
}

func TestNewServer(t *testing.T) {
	server := NewServer(NewHandler(&fakeEnhancer{}, nil, Defaults{}), "test")
	assert.NotNil(t, server)
}
