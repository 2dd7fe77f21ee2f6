// Package pipeline drives a prompt enhancement through its four phases: context
// gathering, context-aware analysis, context-informed processing and response generation.
package pipeline

import (
	"errors"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// ErrNoAnalyzer is returned by Build when no ProjectAnalyzer was configured.
var ErrNoAnalyzer = errors.New("pipeline: project analyzer is required")

// Tracker receives usage events. telemetry.Client satisfies it.
type Tracker interface {
	Track(event string, properties map[string]any)
}

// Event names sent to the Tracker.
const (
	EventPromptEnhanced = "prompt_enhanced"
	EventPromptCacheHit = "prompt_cache_hit"
)

// Capabilities is the set of collaborators an orchestrator runs with. Only Analyzer is
// mandatory; every other field may be nil and the orchestrator skips that step.
type Capabilities struct {
	Analyzer  enhance.ProjectAnalyzer
	Detector  enhance.FrameworkDetector
	Docs      enhance.DocumentationSource
	Curator   enhance.DocumentationCurator
	AI        enhance.AIEnhancementClient
	Breakdown enhance.TaskBreakdownService
	Policy    enhance.QualityPolicy
	Cache     *cache.Cache
	Tracker   Tracker
	Limits    Limits
}

// Limits cap the complexity-derived processing limits. Zero fields leave them as is.
type Limits struct {
	MaxLibraries   int
	DocTokenBudget int
}

func (l Limits) apply(a enhance.AdaptiveOptions) enhance.AdaptiveOptions {
	if l.MaxLibraries > 0 && a.MaxLibraries > l.MaxLibraries {
		a.MaxLibraries = l.MaxLibraries
	}
	if l.DocTokenBudget > 0 && a.DocTokenBudget > l.DocTokenBudget {
		a.DocTokenBudget = l.DocTokenBudget
	}
	return a
}

func (c Capabilities) HasDetector() bool  { return c.Detector != nil }
func (c Capabilities) HasDocs() bool      { return c.Docs != nil }
func (c Capabilities) HasAI() bool        { return c.AI != nil }
func (c Capabilities) HasBreakdown() bool { return c.Breakdown != nil }
func (c Capabilities) HasCache() bool     { return c.Cache != nil }

// Names lists configured optional capabilities, for startup logging.
func (c Capabilities) Names() []string {
	names := []string{"analyzer"}
	add := func(ok bool, name string) {
		if ok {
			names = append(names, name)
		}
	}
	add(c.HasDetector(), "detector")
	add(c.HasDocs(), "docs")
	add(c.Curator != nil, "curator")
	add(c.HasAI(), "ai")
	add(c.HasBreakdown(), "breakdown")
	add(c.Policy != nil, "policy")
	add(c.HasCache(), "cache")
	add(c.Tracker != nil, "telemetry")
	return names
}

// Builder assembles Capabilities into an Orchestrator.
type Builder struct {
	caps Capabilities
}

// NewBuilder starts an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithAnalyzer(a enhance.ProjectAnalyzer) *Builder {
	b.caps.Analyzer = a
	return b
}

func (b *Builder) WithDetector(d enhance.FrameworkDetector) *Builder {
	b.caps.Detector = d
	return b
}

// WithDocs sets the documentation source and an optional curator.
func (b *Builder) WithDocs(source enhance.DocumentationSource, curator enhance.DocumentationCurator) *Builder {
	b.caps.Docs = source
	b.caps.Curator = curator
	return b
}

func (b *Builder) WithAI(c enhance.AIEnhancementClient) *Builder {
	b.caps.AI = c
	return b
}

func (b *Builder) WithBreakdown(s enhance.TaskBreakdownService) *Builder {
	b.caps.Breakdown = s
	return b
}

func (b *Builder) WithPolicy(p enhance.QualityPolicy) *Builder {
	b.caps.Policy = p
	return b
}

func (b *Builder) WithCache(c *cache.Cache) *Builder {
	b.caps.Cache = c
	return b
}

func (b *Builder) WithTracker(t Tracker) *Builder {
	b.caps.Tracker = t
	return b
}

func (b *Builder) WithLimits(l Limits) *Builder {
	b.caps.Limits = l
	return b
}

// Build validates the capability set and returns the orchestrator.
func (b *Builder) Build() (*Orchestrator, error) {
	if b.caps.Analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	return &Orchestrator{
		caps:      b.caps,
		gatherer:  enhance.NewContextGatherer(b.caps.Analyzer),
		quality:   enhance.NewQualityDetector(b.caps.Policy),
		docs:      enhance.NewDocumentationRetriever(b.caps.Docs, b.caps.Curator),
		breakdown: enhance.NewTaskBreakdownAdapter(b.caps.Breakdown),
	}, nil
}
