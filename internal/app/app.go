// Package app wires configuration into a ready-to-use enhancement pipeline. CLI, MCP and
// HTTP surfaces are thin adapters over the Services it builds.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/ai"
	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/docs"
	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/frameworks"
	"github.com/wtthornton/LocalMCP/internal/llm"
	"github.com/wtthornton/LocalMCP/internal/pipeline"
	"github.com/wtthornton/LocalMCP/internal/planner"
	"github.com/wtthornton/LocalMCP/internal/policy"
	"github.com/wtthornton/LocalMCP/internal/project"
	"github.com/wtthornton/LocalMCP/internal/telemetry"
)

// FrameworkCatalogFile, inside .localmcp, extends the built-in framework catalog.
const FrameworkCatalogFile = "frameworks.yaml"

// Options adjust Build for callers and tests.
type Options struct {
	Version string
	// Fs is the project filesystem. Nil means the OS filesystem with project root
	// detection above cfg.ProjectRoot.
	Fs afero.Fs
	// Telemetry overrides the client built from the stored consent.
	Telemetry telemetry.Client
}

// Services holds the assembled pipeline and what its surfaces need besides it.
type Services struct {
	Orchestrator *pipeline.Orchestrator
	// Cache is nil when caching is disabled.
	Cache       *cache.Cache
	Telemetry   telemetry.Client
	ProjectRoot string
	// AIEnabled is the default for Options.UseAIEnhancement.
	AIEnabled bool

	closers []io.Closer
}

// Build assembles the pipeline. Only the project analyzer and the cache are mandatory;
// every other collaborator that cannot be built is logged and left out.
func Build(ctx context.Context, cfg config.EnhanceConfig, llmCfg llm.Config, opts Options) (*Services, error) {
	fs := opts.Fs
	var analyzer *project.Analyzer
	if fs == nil {
		fs = afero.NewOsFs()
		a, err := project.NewOsAnalyzer(cfg.ProjectRoot)
		if err != nil {
			return nil, fmt.Errorf("analyze project: %w", err)
		}
		analyzer = a
	} else {
		analyzer = project.NewAnalyzer(fs, cfg.ProjectRoot)
	}
	analyzer.WithMaxSnippets(cfg.MaxSnippets)
	root := analyzer.Root()

	svc := &Services{ProjectRoot: root}
	b := pipeline.NewBuilder().
		WithAnalyzer(analyzer).
		WithDetector(frameworks.NewDetector(loadCatalog(fs, root))).
		WithLimits(pipeline.Limits{MaxLibraries: cfg.Docs.MaxLibraries, DocTokenBudget: cfg.Docs.TokenBudget})

	if cfg.Docs.Enabled {
		if source := svc.docsSource(fs, root, cfg.Docs, opts.Version); source != nil {
			b.WithDocs(source, buildCurator(ctx, cfg.Docs, llmCfg))
		}
	}

	if cfg.AI.Enabled && llmCfg.Enabled() {
		gen := planner.NewGenerator(planner.GeneratorConfig{LLMConfig: llmCfg, Temperature: cfg.AI.Temperature})
		b.WithAI(ai.NewEnhancer(gen).WithContextTokens(cfg.AI.ContextTokens))
		if cfg.AI.Breakdown {
			b.WithBreakdown(planner.NewBreakdownService(gen).
				WithProjectContext(analyzer).
				WithPathCorrector(planner.NewPathCorrector(fs, root)))
		}
		svc.AIEnabled = true
	} else if cfg.AI.Enabled {
		slog.Debug("AI enhancement unavailable: no LLM provider configured")
	}

	engine, err := policy.NewEngine(ctx, policy.EngineConfig{Fs: fs, PoliciesDir: cfg.PoliciesDir})
	if err != nil {
		slog.Warn("quality policies unavailable, using built-in requirements", "error", err)
	} else {
		slog.Debug("quality policies loaded", "policies", engine.PolicyNames())
		b.WithPolicy(engine)
	}

	if cfg.Cache.Enabled {
		c, closer, err := OpenCache(cfg.Cache)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		if closer != nil {
			svc.closers = append(svc.closers, closer)
		}
		svc.Cache = c
		b.WithCache(c)
	}

	svc.Telemetry = opts.Telemetry
	if svc.Telemetry == nil {
		svc.Telemetry = newTelemetry(cfg.Telemetry, opts.Version)
	}
	b.WithTracker(svc.Telemetry)
	svc.closers = append(svc.closers, svc.Telemetry)

	orch, err := b.Build()
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.Orchestrator = orch
	slog.Debug("pipeline ready", "root", root, "capabilities", orch.Capabilities().Names())
	return svc, nil
}

// Capabilities lists the configured collaborators.
func (s *Services) Capabilities() []string {
	return s.Orchestrator.Capabilities().Names()
}

// Close releases the cache database, the documentation server and telemetry.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func loadCatalog(fs afero.Fs, root string) *frameworks.Catalog {
	catalog := frameworks.DefaultCatalog()
	path := filepath.Join(root, config.LocalDirName, FrameworkCatalogFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return catalog
	}
	extra, err := frameworks.ParseCatalog(data)
	if err != nil {
		slog.Warn("ignoring project framework catalog", "path", path, "error", err)
		return catalog
	}
	catalog.Merge(extra)
	return catalog
}

// docsSource chains the project's local docs ahead of Context7.
func (s *Services) docsSource(fs afero.Fs, root string, cfg config.DocsConfig, version string) enhance.DocumentationSource {
	var sources []enhance.DocumentationSource
	if cfg.ProjectDir != "" {
		dir := cfg.ProjectDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, config.LocalDirName, dir)
		}
		if ok, _ := afero.DirExists(fs, dir); ok {
			sources = append(sources, docs.NewDirSource(fs, dir))
		}
	}
	if cfg.Command != "" {
		c7cfg := docs.Context7Config{Command: cfg.Command, Args: cfg.Args, Timeout: cfg.Timeout}
		if cfg.APIKey != "" {
			c7cfg.Env = []string{"CONTEXT7_API_KEY=" + cfg.APIKey}
		}
		c7 := docs.NewContext7Source(c7cfg, version)
		s.closers = append(s.closers, c7)
		sources = append(sources, c7)
	}
	chain := docs.NewChain(sources...)
	if chain.Len() == 0 {
		return nil
	}
	return chain
}

// buildCurator returns nil, not a typed nil, when curation is off.
func buildCurator(ctx context.Context, cfg config.DocsConfig, llmCfg llm.Config) enhance.DocumentationCurator {
	if !cfg.Curate || !llmCfg.Enabled() {
		return nil
	}
	embedder, err := llm.NewEmbedder(ctx, llmCfg)
	if err != nil {
		slog.Debug("documentation curation by embeddings unavailable", "provider", llmCfg.Provider, "error", err)
		return nil
	}
	return docs.NewCurator(embedder)
}

// OpenCache opens the configured cache. The closer is nil for the memory backend.
func OpenCache(cfg config.CacheConfig) (*cache.Cache, io.Closer, error) {
	if cfg.Backend == config.CacheBackendMemory {
		return cache.New(cache.NewMemoryStore(cfg.MaxEntries), cache.NewInvalidator()), nil, nil
	}
	store, err := cache.NewSQLiteStore(cfg.Path, cfg.MaxEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", cfg.Path, err)
	}
	return cache.New(store, cache.NewInvalidator()), store, nil
}

// newTelemetry builds a client from the stored consent. Any failure means no telemetry.
func newTelemetry(enabled bool, version string) telemetry.Client {
	if !enabled || config.DefaultPostHogAPIKey == "" {
		return telemetry.NewNoopClient()
	}
	dir, err := config.GetGlobalConfigDir()
	if err != nil {
		return telemetry.NewNoopClient()
	}
	tcfg, err := telemetry.NewStore(afero.NewOsFs(), dir).Load()
	if err != nil || !tcfg.IsEnabled() {
		return telemetry.NewNoopClient()
	}
	client, err := telemetry.New(telemetry.Settings{
		APIKey:  config.DefaultPostHogAPIKey,
		Version: version,
		Consent: tcfg,
	})
	if err != nil {
		slog.Debug("telemetry unavailable", "error", err)
		return telemetry.NewNoopClient()
	}
	return client
}
