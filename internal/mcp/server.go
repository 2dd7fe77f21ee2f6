package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/logger"
)

// Enhancer runs one enhancement. pipeline.Orchestrator satisfies it.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string, hints enhance.Hints, opts enhance.Options) (*enhance.EnhancedResponse, error)
}

// Handler implements the tools. Cache may be nil.
type Handler struct {
	enhancer Enhancer
	cache    *cache.Cache
	defaults Defaults
}

// NewHandler creates a tool handler.
func NewHandler(e Enhancer, c *cache.Cache, d Defaults) *Handler {
	return &Handler{enhancer: e, cache: c, defaults: d}
}

// NewServer creates an MCP server with the enhance and cache_stats tools registered.
func NewServer(h *Handler, version string) *mcpsdk.Server {
	impl := &mcpsdk.Implementation{Name: "localmcp", Version: version}
	opts := &mcpsdk.ServerOptions{
		InitializedHandler: func(context.Context, *mcpsdk.ServerSession, *mcpsdk.InitializedParams) {
			slog.Info("MCP connection established")
		},
	}
	server := mcpsdk.NewServer(impl, opts)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: ToolEnhance,
		Description: `Enhance a coding request with project context before acting on it. Adds repo facts, relevant code, framework documentation and quality requirements, and optionally an AI rewrite and a task breakdown.

Parameters: prompt (required); file, framework, style (hints); use_cache, max_tokens, strategy (general|framework-specific|quality-focused|project-aware), quality_focus, project_type, include_breakdown, max_tasks, use_ai, project_id; format (markdown|json).`,
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[EnhanceParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return h.HandleEnhance(ctx, params.Arguments)
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolCacheStats,
		Description: "Report enhancement cache statistics: entries, hits, misses and invalidations.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[CacheStatsParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return h.HandleCacheStats(ctx)
	})

	return server
}

// Serve runs server over stdio until the client disconnects or ctx ends.
// stdout MUST carry only JSON-RPC; everything else goes to stderr.
func Serve(ctx context.Context, server *mcpsdk.Server) error {
	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// HandleEnhance runs the enhance tool. Tool failures are reported in the result with
// IsError set so the calling model can see and correct them.
func (h *Handler) HandleEnhance(ctx context.Context, p EnhanceParams) (*mcpsdk.CallToolResultFor[any], error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return errorResult(FormatValidationError([]string{"prompt is required"})), nil
	}
	format := strings.ToLower(strings.TrimSpace(p.Format))
	if format != "" && format != FormatMarkdown && format != FormatJSON {
		return errorResult(FormatValidationError([]string{fmt.Sprintf("format must be %s or %s", FormatMarkdown, FormatJSON)})), nil
	}

	logger.SetLastInput(p.Prompt)
	resp, err := h.enhancer.Enhance(ctx, p.Prompt, p.Hints(), p.Options(h.defaults))
	if err != nil {
		var verr *enhance.ValidationError
		if errors.As(err, &verr) {
			return errorResult(FormatValidationError(verr.Problems)), nil
		}
		return errorResult(FormatError(err.Error())), nil
	}

	if format == FormatJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return errorResult(FormatError(fmt.Sprintf("encode response: %v", err))), nil
		}
		return textResult(string(data)), nil
	}
	return textResult(FormatEnhance(resp)), nil
}

// HandleCacheStats runs the cache_stats tool.
func (h *Handler) HandleCacheStats(ctx context.Context) (*mcpsdk.CallToolResultFor[any], error) {
	if h.cache == nil {
		return textResult("Cache is disabled."), nil
	}
	st, err := h.cache.Stats(ctx)
	if err != nil {
		return errorResult(FormatError(err.Error())), nil
	}
	return textResult(FormatCacheStats(st)), nil
}

func textResult(text string) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

func errorResult(text string) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}, IsError: true}
}
