package enhance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ContextGatherer collects repo facts and code snippets for a prompt.
type ContextGatherer struct {
	analyzer ProjectAnalyzer
}

// NewContextGatherer creates a gatherer over analyzer.
func NewContextGatherer(analyzer ProjectAnalyzer) *ContextGatherer {
	return &ContextGatherer{analyzer: analyzer}
}

// Gather fetches facts and snippets concurrently and waits for both.
// A failure of either call yields an empty collection for that half. The only error
// returned is the analyzer's own, when both halves report ErrContextUnavailable.
func (g *ContextGatherer) Gather(ctx context.Context, prompt, file string, maxSnippets int) (ProjectContext, error) {
	pc := EmptyProjectContext()

	var (
		wg          sync.WaitGroup
		facts       []string
		snippets    []CodeSnippet
		factsErr    error
		snippetsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		facts, factsErr = g.analyzer.AnalyzeProject(ctx)
	}()
	go func() {
		defer wg.Done()
		snippets, snippetsErr = g.analyzer.FindRelevantCodeSnippets(ctx, prompt, file)
	}()
	wg.Wait()

	if errors.Is(factsErr, ErrContextUnavailable) && errors.Is(snippetsErr, ErrContextUnavailable) {
		return pc, factsErr
	}

	if factsErr != nil {
		slog.Warn("repo facts unavailable, continuing without them", "error", factsErr)
	} else {
		pc.RepoFacts = appendNonEmpty(pc.RepoFacts, facts)
	}

	if snippetsErr != nil {
		slog.Warn("code snippets unavailable, continuing without them", "error", snippetsErr)
	} else {
		for _, s := range snippets {
			if s.File == "" && s.Content == "" {
				continue
			}
			pc.CodeSnippets = append(pc.CodeSnippets, s)
		}
	}
	if maxSnippets > 0 && len(pc.CodeSnippets) > maxSnippets {
		pc.CodeSnippets = pc.CodeSnippets[:maxSnippets]
	}

	slog.Debug("context gathered", "facts", len(pc.RepoFacts), "snippets", len(pc.CodeSnippets))
	return pc, nil
}

func appendNonEmpty(dst, src []string) []string {
	for _, s := range src {
		if s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}
