package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	facts    []string
	snippets []enhance.CodeSnippet
	err      error
}

func (f *fakeAnalyzer) AnalyzeProject(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.facts...), f.err
}

func (f *fakeAnalyzer) FindRelevantCodeSnippets(context.Context, string, string) ([]enhance.CodeSnippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]enhance.CodeSnippet{}, f.snippets...), f.err
}

func (f *fakeAnalyzer) setFacts(facts ...string) {
	f.mu.Lock()
	f.facts = facts
	f.mu.Unlock()
}

type fakeDetector struct {
	result enhance.FrameworkDetectionResult
	err    error
}

func (f fakeDetector) Detect(context.Context, string, enhance.ProjectContext, string) (enhance.FrameworkDetectionResult, error) {
	return f.result, f.err
}

type fakeDocs struct{}

func (fakeDocs) Resolve(_ context.Context, name string) ([]string, error) {
	return []string{"/lib/" + name}, nil
}

func (fakeDocs) Fetch(_ context.Context, id, topic string, _ int) (string, error) {
	return fmt.Sprintf("docs for %s about %s", id, topic), nil
}

type fakeAI struct {
	calls int
	err   error
}

func (f *fakeAI) Enhance(_ context.Context, prompt string, _ enhance.EnhancementContext, _ enhance.EnhancementStrategy) (*enhance.AIEnhancementResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &enhance.AIEnhancementResult{
		EnhancedPrompt: "AI: " + prompt,
		Quality:        enhance.QualityScores{Overall: 0.8},
		Confidence:     enhance.ConfidenceScores{Overall: 0.7},
		Cost:           0.002,
	}, nil
}

type fakeBreakdown struct{}

func (fakeBreakdown) Breakdown(context.Context, string, string) (*enhance.Breakdown, error) {
	return &enhance.Breakdown{
		MainTasks: []enhance.Task{
			{ID: "t1", Title: "Build the component", Priority: "high"},
			{ID: "t2", Title: "Write tests"},
		},
		Dependencies: []enhance.Dependency{{TaskID: "t2", DependsOn: "t1"}},
	}, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracker) Track(event string, _ map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func newOrchestrator(t *testing.T, configure func(*Builder)) *Orchestrator {
	t.Helper()
	b := NewBuilder().WithAnalyzer(&fakeAnalyzer{})
	if configure != nil {
		configure(b)
	}
	o, err := b.Build()
	require.NoError(t, err)
	return o
}

func TestBuild_RequiresAnalyzer(t *testing.T) {
	_, err := NewBuilder().WithAI(&fakeAI{}).Build()
	assert.ErrorIs(t, err, ErrNoAnalyzer)
}

func TestCapabilities_Names(t *testing.T) {
	o := newOrchestrator(t, func(b *Builder) {
		b.WithAI(&fakeAI{}).WithCache(cache.New(cache.NewMemoryStore(10), nil))
	})
	assert.Equal(t, []string{"analyzer", "ai", "cache"}, o.Capabilities().Names())
}

func TestEnhance_MinimalRequest(t *testing.T) {
	o := newOrchestrator(t, nil)

	resp, err := o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.EnhancedPrompt, "create a button component")
	assert.NotNil(t, resp.ContextUsed.RepoFacts)
	assert.NotNil(t, resp.ContextUsed.CodeSnippets)
	assert.NotNil(t, resp.ContextUsed.FrameworkDocs)
	assert.NotNil(t, resp.ContextUsed.ProjectDocs)
	assert.Empty(t, resp.FrameworkDetection.DetectedFrameworks)
	assert.False(t, resp.CacheHit)
	assert.False(t, resp.Metrics.AIEnhancementEnabled)
	assert.Positive(t, resp.Metrics.ResponseTimeMs)
	assert.NotEmpty(t, resp.RequestID)
	require.NotNil(t, resp.Strategy)
	assert.Equal(t, enhance.StrategyGeneral, resp.Strategy.Kind)
}

func TestEnhance_ContainsOriginalPrompt(t *testing.T) {
	const prompt = "  create a button component  "
	resp, err := newOrchestrator(t, nil).Enhance(context.Background(), prompt, enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)
	assert.Contains(t, resp.EnhancedPrompt, prompt)
}

func TestEnhance_SecondIdenticalCallHitsCache(t *testing.T) {
	tracker := &recordingTracker{}
	analyzer := &fakeAnalyzer{facts: []string{"Framework: react", "Language: TypeScript"}}
	o, err := NewBuilder().
		WithAnalyzer(analyzer).
		WithDetector(fakeDetector{result: enhance.FrameworkDetectionResult{
			DetectedFrameworks: []string{"react"}, Confidence: 0.9, DetectionMethod: enhance.DetectionProject,
		}}).
		WithDocs(fakeDocs{}, nil).
		WithCache(cache.New(cache.NewMemoryStore(10), cache.NewInvalidator())).
		WithTracker(tracker).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	opts := enhance.Options{UseCache: true}
	first, err := o.Enhance(ctx, "create a button component", enhance.Hints{}, opts)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, []string{"react"}, first.ContextUsed.FrameworkDocs)

	second, err := o.Enhance(ctx, "Create a button component!", enhance.Hints{}, opts)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Zero(t, second.Metrics.ResponseTimeMs)
	assert.Equal(t, first.EnhancedPrompt, second.EnhancedPrompt)
	assert.Equal(t, first.ContextUsed, second.ContextUsed)
	assert.NotEqual(t, first.RequestID, second.RequestID)

	assert.Equal(t, []string{EventPromptEnhanced, EventPromptCacheHit}, tracker.events)
}

func TestEnhance_ContextChangeMisses(t *testing.T) {
	analyzer := &fakeAnalyzer{facts: []string{"Framework: react"}}
	c := cache.New(cache.NewMemoryStore(10), cache.NewInvalidator())
	o, err := NewBuilder().WithAnalyzer(analyzer).WithCache(c).Build()
	require.NoError(t, err)

	ctx := context.Background()
	opts := enhance.Options{UseCache: true}
	_, err = o.Enhance(ctx, "create a button component", enhance.Hints{}, opts)
	require.NoError(t, err)

	analyzer.setFacts("Framework: react", "Framework: tailwind")
	resp, err := o.Enhance(ctx, "create a button component", enhance.Hints{}, opts)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Positive(t, resp.Metrics.ResponseTimeMs)
	assert.Contains(t, resp.ContextUsed.RepoFacts, "Framework: tailwind")

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Generation)
}

// The prompt and project stay the same, so the cache key does too; only drift can cause a miss.
func TestEnhance_DriftInvalidatesSameKey(t *testing.T) {
	ctx := context.Background()
	opts := enhance.Options{UseCache: true}
	const prompt = "create a button component"

	t.Run("hour elapsed", func(t *testing.T) {
		clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		c := cache.New(cache.NewMemoryStore(10), cache.NewInvalidatorWithClock(func() time.Time { return clock }))
		o := newOrchestrator(t, func(b *Builder) { b.WithCache(c) })

		first, err := o.Enhance(ctx, prompt, enhance.Hints{}, opts)
		require.NoError(t, err)
		require.False(t, first.CacheHit)

		clock = clock.Add(2 * time.Hour)
		resp, err := o.Enhance(ctx, prompt, enhance.Hints{}, opts)
		require.NoError(t, err)
		assert.False(t, resp.CacheHit)
		assert.Positive(t, resp.Metrics.ResponseTimeMs)

		st, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), st.StaleMisses)

		refilled, err := o.Enhance(ctx, prompt, enhance.Hints{}, opts)
		require.NoError(t, err)
		assert.True(t, refilled.CacheHit)
	})

	t.Run("manifest changed", func(t *testing.T) {
		clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		inv := cache.NewInvalidatorWithClock(func() time.Time { return clock })
		c := cache.New(cache.NewMemoryStore(10), inv)
		o := newOrchestrator(t, func(b *Builder) { b.WithCache(c) })

		_, err := o.Enhance(ctx, prompt, enhance.Hints{}, opts)
		require.NoError(t, err)

		clock = clock.Add(time.Minute)
		inv.MarkDrift("package.json changed")
		resp, err := o.Enhance(ctx, prompt, enhance.Hints{}, opts)
		require.NoError(t, err)
		assert.False(t, resp.CacheHit)
		assert.Positive(t, resp.Metrics.ResponseTimeMs)

		st, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), st.StaleMisses)
	})
}

func TestEnhance_RestartDoesNotServeEntriesFromEarlierHour(t *testing.T) {
	ctx := context.Background()
	opts := enhance.Options{UseCache: true}
	const prompt = "create a button component"
	store, err := cache.NewSQLiteStore(":memory:", 10)
	require.NoError(t, err)
	defer store.Close()

	process := func(at time.Time) (*Orchestrator, *cache.Cache) {
		c := cache.New(store, cache.NewInvalidatorWithClock(func() time.Time { return at }))
		return newOrchestrator(t, func(b *Builder) { b.WithCache(c) }), c
	}
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	first, _ := process(start)
	_, err = first.Enhance(ctx, prompt, enhance.Hints{}, opts)
	require.NoError(t, err)

	sameHour, _ := process(start.Add(15 * time.Minute))
	resp, err := sameHour.Enhance(ctx, prompt, enhance.Hints{}, opts)
	require.NoError(t, err)
	assert.True(t, resp.CacheHit)

	monthLater, c := process(start.Add(30 * 24 * time.Hour))
	resp, err = monthLater.Enhance(ctx, prompt, enhance.Hints{}, opts)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Positive(t, resp.Metrics.ResponseTimeMs)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.StaleMisses)
}

func TestEnhance_UseCacheFalseBypassesCache(t *testing.T) {
	c := cache.New(cache.NewMemoryStore(10), nil)
	o := newOrchestrator(t, func(b *Builder) { b.WithCache(c) })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		resp, err := o.Enhance(ctx, "create a button component", enhance.Hints{}, enhance.Options{})
		require.NoError(t, err)
		assert.False(t, resp.CacheHit)
	}
	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
}

func TestEnhance_DetectorFailureDegrades(t *testing.T) {
	o := newOrchestrator(t, func(b *Builder) {
		b.WithDetector(fakeDetector{err: errors.New("catalog corrupt")}).WithDocs(fakeDocs{}, nil)
	})

	resp, err := o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Metrics.FrameworksDetected)
	assert.NotNil(t, resp.Metrics.FrameworksDetected)
	assert.Empty(t, resp.ContextUsed.FrameworkDocs)
	assert.Equal(t, enhance.DetectionNone, resp.FrameworkDetection.DetectionMethod)
}

func TestEnhance_AIFailureFallsBackToAssembledPrompt(t *testing.T) {
	ctx := context.Background()
	opts := enhance.Options{UseAIEnhancement: true}

	baseline, err := newOrchestrator(t, nil).Enhance(ctx, "create a button component", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)

	ai := &fakeAI{err: errors.New("rate limited")}
	resp, err := newOrchestrator(t, func(b *Builder) { b.WithAI(ai) }).
		Enhance(ctx, "create a button component", enhance.Hints{}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, baseline.EnhancedPrompt, resp.EnhancedPrompt)
	assert.False(t, resp.Metrics.AIEnhancementEnabled)
	assert.Zero(t, resp.Metrics.Cost)
}

func TestEnhance_AISuccess(t *testing.T) {
	ai := &fakeAI{}
	o := newOrchestrator(t, func(b *Builder) { b.WithAI(ai) })

	resp, err := o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{UseAIEnhancement: true})
	require.NoError(t, err)
	assert.Equal(t, "AI: create a button component", resp.EnhancedPrompt)
	assert.True(t, resp.Metrics.AIEnhancementEnabled)
	assert.Equal(t, 0.8, resp.Metrics.QualityScore)
	assert.Equal(t, 0.002, resp.Metrics.Cost)

	_, err = o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, ai.calls, "AI runs only when requested")
}

func TestEnhance_Breakdown(t *testing.T) {
	o := newOrchestrator(t, func(b *Builder) { b.WithBreakdown(fakeBreakdown{}) })

	resp, err := o.Enhance(context.Background(), "build a login page with tests", enhance.Hints{},
		enhance.Options{IncludeBreakdown: true, ProjectID: "demo"})
	require.NoError(t, err)
	require.NotNil(t, resp.Breakdown)
	assert.Len(t, resp.Breakdown.MainTasks, 2)
	require.Len(t, resp.Todos, 2)
	assert.Equal(t, "pending", resp.Todos[0].Status)
	assert.Contains(t, resp.EnhancedPrompt, "Build the component")

	resp, err = o.Enhance(context.Background(), "build a login page with tests", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)
	assert.Nil(t, resp.Breakdown)
}

func TestEnhance_MandatoryContextFailure(t *testing.T) {
	unavailable := fmt.Errorf("read /missing: %w", enhance.ErrContextUnavailable)
	o, err := NewBuilder().WithAnalyzer(&fakeAnalyzer{err: unavailable}).Build()
	require.NoError(t, err)

	resp, err := o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{})
	assert.Nil(t, resp)
	assert.Same(t, unavailable, err)
}

func TestEnhance_PartialAnalyzerFailureDegrades(t *testing.T) {
	o, err := NewBuilder().WithAnalyzer(&fakeAnalyzer{err: errors.New("permission denied")}).Build()
	require.NoError(t, err)

	resp, err := o.Enhance(context.Background(), "create a button component", enhance.Hints{}, enhance.Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.ContextUsed.RepoFacts)
}

func TestEnhance_InvalidRequest(t *testing.T) {
	o := newOrchestrator(t, nil)

	_, err := o.Enhance(context.Background(), "   ", enhance.Hints{}, enhance.Options{})
	assert.ErrorIs(t, err, enhance.ErrInvalidOptions)

	_, err = o.Enhance(context.Background(), "ok", enhance.Hints{}, enhance.Options{MaxTasks: 500})
	var verr *enhance.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Problems)
}

func TestEnhance_ConcurrentRequests(t *testing.T) {
	c := cache.New(cache.NewMemoryStore(50), cache.NewInvalidator())
	o, err := NewBuilder().
		WithAnalyzer(&fakeAnalyzer{facts: []string{"Framework: vue"}}).
		WithDetector(fakeDetector{result: enhance.FrameworkDetectionResult{DetectedFrameworks: []string{"vue"}, Confidence: 0.8, DetectionMethod: enhance.DetectionProject}}).
		WithDocs(fakeDocs{}, nil).
		WithCache(c).
		Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := o.Enhance(context.Background(), fmt.Sprintf("add a form field %d", i%3), enhance.Hints{}, enhance.Options{UseCache: true})
			assert.NoError(t, err)
			assert.True(t, resp.Success)
		}(i)
	}
	wg.Wait()

	st, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Entries)
}

func TestLimits_Apply(t *testing.T) {
	a := enhance.AdaptiveOptions{DocTokenBudget: 4000, MaxSnippets: 5, MaxLibraries: 3, MaxTasks: 8}

	assert.Equal(t, a, Limits{}.apply(a))

	got := Limits{MaxLibraries: 1, DocTokenBudget: 9000}.apply(a)
	assert.Equal(t, 1, got.MaxLibraries)
	assert.Equal(t, 4000, got.DocTokenBudget)
	assert.Equal(t, 5, got.MaxSnippets)
}
