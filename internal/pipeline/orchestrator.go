package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// Orchestrator runs enhancement requests. It holds no per-request state and is safe for
// concurrent use; the cache is the only thing requests share.
type Orchestrator struct {
	caps      Capabilities
	gatherer  *enhance.ContextGatherer
	quality   *enhance.QualityDetector
	docs      *enhance.DocumentationRetriever
	breakdown *enhance.TaskBreakdownAdapter
}

// Capabilities returns the collaborator set the orchestrator was built with.
func (o *Orchestrator) Capabilities() Capabilities {
	return o.caps
}

// analysis is the output of the context-aware analysis phase.
type analysis struct {
	detection   enhance.FrameworkDetectionResult
	complexity  enhance.PromptComplexity
	adaptive    enhance.AdaptiveOptions
	projectType enhance.ProjectType
	quality     []enhance.QualityRequirement
}

// Enhance turns prompt into an enhanced prompt. It fails only on invalid input or when
// the project context cannot be gathered at all; every optional collaborator failure
// degrades to an empty contribution.
func (o *Orchestrator) Enhance(ctx context.Context, prompt string, hints enhance.Hints, opts enhance.Options) (*enhance.EnhancedResponse, error) {
	if err := enhance.ValidateRequest(prompt, opts); err != nil {
		return nil, err
	}
	started := time.Now()
	requestID := uuid.NewString()
	log := slog.With("request_id", requestID)

	// Phase 1: CONTEXT_GATHERING
	pc, err := o.gatherer.Gather(ctx, prompt, hints.File, 0)
	if err != nil {
		log.Error("project context unavailable", "error", err)
		return nil, err
	}
	log.Debug("phase complete", "phase", "context_gathering", "elapsed", time.Since(started))

	// Phase 2: CONTEXT_AWARE_ANALYSIS
	a := o.analyze(ctx, prompt, hints, opts, &pc)
	log.Debug("phase complete", "phase", "context_aware_analysis",
		"frameworks", a.detection.DetectedFrameworks, "complexity", a.complexity.Level)

	// Phase 3: CONTEXT_INFORMED_PROCESSING
	strategy := enhance.SelectStrategy(opts, a.detection, a.projectType)
	key := cache.GenerateKey(cache.KeyInput{
		Prompt:      prompt,
		Context:     pc,
		Detection:   a.detection,
		Hints:       hints,
		ProjectType: a.projectType,
		Complexity:  a.complexity.Level,
		Quality:     a.quality,
		AIEnhanced:  opts.UseAIEnhancement && o.caps.HasAI(),
		MaxTokens:   opts.MaxTokens,
	})
	terms := enhance.PromptTerms(prompt)

	var signature string
	if o.caps.HasCache() {
		if inv := o.caps.Cache.Invalidator(); inv != nil {
			signature, _ = inv.Observe(cache.Observation{
				Context:     pc,
				ProjectType: a.projectType,
				Frameworks:  a.detection.DetectedFrameworks,
				PromptTerms: terms,
			})
		}
		if opts.UseCache {
			if entry, ok := o.caps.Cache.Get(ctx, key); ok {
				log.Debug("cache hit", "key", key.Key)
				o.track(EventPromptCacheHit, map[string]any{"frameworks": len(entry.FrameworkDetection.DetectedFrameworks)})
				return enhance.CachedResponse(prompt, entry.EnhancedPrompt, entry.QualityScore,
					entry.ContextSnapshot, entry.FrameworkDetection, requestID), nil
			}
		}
	}

	docs, bd, todos := o.retrieve(ctx, prompt, hints, opts, a)

	assembly := enhance.Assemble(enhance.AssemblyInput{
		Prompt:    prompt,
		Hints:     hints,
		Context:   pc,
		Detection: a.detection,
		Docs:      docs,
		Quality:   a.quality,
		Strategy:  strategy,
		Breakdown: bd,
		MaxTokens: opts.MaxTokens,
	})

	var ai *enhance.AIEnhancementResult
	if opts.UseAIEnhancement && o.caps.HasAI() {
		ai = o.runAI(ctx, prompt, enhance.EnhancementContext{
			AssembledPrompt: assembly.Prompt,
			ProjectContext:  pc,
			Frameworks:      a.detection.DetectedFrameworks,
			Docs:            docs,
			Quality:         a.quality,
			ProjectType:     a.projectType,
		}, strategy)
	}
	log.Debug("phase complete", "phase", "context_informed_processing",
		"strategy", strategy.Kind, "docs", len(docs), "ai", ai != nil)

	// Phase 4: RESPONSE_GENERATION
	final := assembly.Prompt
	quality := 0.0
	if ai != nil {
		final = ai.EnhancedPrompt
		quality = ai.Quality.Overall
	}

	if opts.UseCache && o.caps.HasCache() {
		o.caps.Cache.Put(ctx, &cache.Entry{
			Key:                key.Key,
			Fingerprint:        key.Fingerprint,
			EnhancedPrompt:     final,
			ContextSnapshot:    assembly.Used,
			FrameworkDetection: a.detection,
			QualityScore:       quality,
			ProjectSignature:   signature,
			PromptTerms:        terms,
		})
	}

	resp := enhance.AssembleResponse(enhance.ResponseInput{
		OriginalPrompt: prompt,
		FinalPrompt:    final,
		Used:           assembly.Used,
		Detection:      a.detection,
		Strategy:       strategy,
		AI:             ai,
		Breakdown:      bd,
		Todos:          todos,
		RequestID:      requestID,
		Started:        started,
	})

	o.track(EventPromptEnhanced, map[string]any{
		"strategy":          string(strategy.Kind),
		"complexity":        string(a.complexity.Level),
		"frameworks":        len(a.detection.DetectedFrameworks),
		"ai_enhanced":       resp.Metrics.AIEnhancementEnabled,
		"breakdown":         bd != nil,
		"response_ms":       resp.Metrics.ResponseTimeMs,
		"token_ratio":       resp.Metrics.TokenRatio,
		"fragments_dropped": assembly.Dropped,
	})
	log.Debug("enhancement complete", "response_ms", resp.Metrics.ResponseTimeMs, "token_ratio", resp.Metrics.TokenRatio)
	return resp, nil
}

// analyze runs framework detection and complexity scoring concurrently, then quality
// detection, which needs both. It trims pc's snippets to the adaptive limit.
func (o *Orchestrator) analyze(ctx context.Context, prompt string, hints enhance.Hints, opts enhance.Options, pc *enhance.ProjectContext) analysis {
	var a analysis
	a.detection = enhance.EmptyDetection()

	var wg sync.WaitGroup
	if o.caps.HasDetector() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverOptional("framework detection")
			a.detection = enhance.DetectFrameworks(ctx, o.caps.Detector, prompt, *pc, hints.Framework)
		}()
	}
	a.complexity = enhance.AnalyzeComplexity(prompt)
	a.adaptive = o.caps.Limits.apply(enhance.Adapt(a.complexity, opts))
	wg.Wait()

	if len(pc.CodeSnippets) > a.adaptive.MaxSnippets {
		pc.CodeSnippets = pc.CodeSnippets[:a.adaptive.MaxSnippets]
	}

	a.projectType = opts.ProjectType
	if a.projectType == "" {
		a.projectType = enhance.InferProjectType(pc.RepoFacts, a.detection.DetectedFrameworks)
	}
	a.quality = o.quality.Detect(ctx, prompt, *pc, a.detection.DetectedFrameworks, a.projectType, opts.QualityFocus)
	return a
}

// retrieve runs documentation retrieval and task breakdown concurrently; they share no data.
func (o *Orchestrator) retrieve(ctx context.Context, prompt string, hints enhance.Hints, opts enhance.Options, a analysis) ([]enhance.FrameworkDoc, *enhance.Breakdown, []enhance.Todo) {
	docs := []enhance.FrameworkDoc{}
	var (
		bd    *enhance.Breakdown
		todos []enhance.Todo
		wg    sync.WaitGroup
	)

	if o.caps.HasDocs() {
		libraries := enhance.SelectLibraries(a.detection, hints.Framework, a.adaptive.MaxLibraries)
		if len(libraries) > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer recoverOptional("documentation retrieval")
				docs = o.docs.Retrieve(ctx, prompt, libraries, a.adaptive.DocTokenBudget)
			}()
		}
	}
	if opts.IncludeBreakdown && o.caps.HasBreakdown() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverOptional("task breakdown")
			bd, todos = o.breakdown.Breakdown(ctx, prompt, opts.ProjectID, a.adaptive.MaxTasks)
		}()
	}
	wg.Wait()
	return docs, bd, todos
}

func (o *Orchestrator) runAI(ctx context.Context, prompt string, ec enhance.EnhancementContext, strategy enhance.EnhancementStrategy) (res *enhance.AIEnhancementResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("AI enhancement panicked, using assembled prompt", "panic", fmt.Sprint(r))
			res = nil
		}
	}()
	return enhance.RunAIEnhancement(ctx, o.caps.AI, prompt, ec, strategy)
}

func (o *Orchestrator) track(event string, props map[string]any) {
	if o.caps.Tracker != nil {
		o.caps.Tracker.Track(event, props)
	}
}

// recoverOptional turns a panic in an optional collaborator into a logged degradation.
// The step's result keeps the empty default it was initialized with.
func recoverOptional(step string) {
	if r := recover(); r != nil {
		slog.Warn("optional step panicked, continuing without it", "step", step, "panic", fmt.Sprint(r))
	}
}
