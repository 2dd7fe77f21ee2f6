// Package mcp exposes the enhancement pipeline as Model Context Protocol tools.
package mcp

import (
	"strings"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// Tool names.
const (
	ToolEnhance    = "enhance"
	ToolCacheStats = "cache_stats"
)

// Output formats for the enhance tool.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// EnhanceParams defines the parameters for the enhance tool.
type EnhanceParams struct {
	// Prompt is the raw request to enhance. Required.
	Prompt string `json:"prompt"`

	// File, Framework and Style are optional hints about the request.
	File      string `json:"file,omitempty"`
	Framework string `json:"framework,omitempty"`
	Style     string `json:"style,omitempty"`

	// UseCache defaults to true.
	UseCache *bool `json:"use_cache,omitempty"`

	// MaxTokens bounds the enhanced prompt. 0 means no bound.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Strategy forces one of: general, framework-specific, quality-focused, project-aware.
	Strategy string `json:"strategy,omitempty"`

	QualityFocus []string `json:"quality_focus,omitempty"`
	ProjectType  string   `json:"project_type,omitempty"`

	// IncludeBreakdown adds a task breakdown; MaxTasks caps it.
	IncludeBreakdown bool `json:"include_breakdown,omitempty"`
	MaxTasks         int  `json:"max_tasks,omitempty"`

	// UseAI defaults to the server's configuration.
	UseAI *bool `json:"use_ai,omitempty"`

	ProjectID string `json:"project_id,omitempty"`

	// Format is markdown (default) or json.
	Format string `json:"format,omitempty"`
}

// CacheStatsParams defines the parameters for the cache_stats tool. It takes none.
type CacheStatsParams struct{}

// Defaults fill in parameters the caller left out.
type Defaults struct {
	UseAI bool
}

// Hints returns the request hints.
func (p EnhanceParams) Hints() enhance.Hints {
	return enhance.Hints{
		File:      strings.TrimSpace(p.File),
		Framework: strings.TrimSpace(p.Framework),
		Style:     strings.TrimSpace(p.Style),
	}
}

// Options converts the parameters into pipeline options.
func (p EnhanceParams) Options(d Defaults) enhance.Options {
	opts := enhance.DefaultOptions()
	if p.UseCache != nil {
		opts.UseCache = *p.UseCache
	}
	opts.UseAIEnhancement = d.UseAI
	if p.UseAI != nil {
		opts.UseAIEnhancement = *p.UseAI
	}
	opts.MaxTokens = p.MaxTokens
	opts.EnhancementStrategy = enhance.StrategyKind(strings.TrimSpace(p.Strategy))
	opts.QualityFocus = p.QualityFocus
	opts.ProjectType = enhance.ProjectType(strings.TrimSpace(p.ProjectType))
	opts.IncludeBreakdown = p.IncludeBreakdown
	opts.MaxTasks = p.MaxTasks
	opts.ProjectID = strings.TrimSpace(p.ProjectID)
	return opts
}
