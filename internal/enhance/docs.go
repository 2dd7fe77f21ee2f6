package enhance

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/wtthornton/LocalMCP/internal/llm"
)

// DocumentationRetriever selects libraries for a request, fetches their documentation
// and, when a curator is configured, reduces it to what the prompt needs.
type DocumentationRetriever struct {
	source  DocumentationSource
	curator DocumentationCurator
}

// NewDocumentationRetriever creates a retriever. curator may be nil.
func NewDocumentationRetriever(source DocumentationSource, curator DocumentationCurator) *DocumentationRetriever {
	return &DocumentationRetriever{source: source, curator: curator}
}

// SelectLibraries returns the libraries worth documenting: the caller's framework hint
// first, then detected frameworks in detection order, capped at limit.
func SelectLibraries(detection FrameworkDetectionResult, hint string, limit int) []string {
	libs := make([]string, 0, len(detection.DetectedFrameworks)+1)
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		libs = append(libs, name)
	}
	add(hint)
	for _, f := range detection.DetectedFrameworks {
		add(f)
	}
	if limit > 0 && len(libs) > limit {
		libs = libs[:limit]
	}
	return libs
}

// DocTopic derives a short topic for a documentation fetch from the prompt.
func DocTopic(prompt string) string {
	terms := PromptTerms(prompt)
	if len(terms) > 3 {
		terms = terms[:3]
	}
	return strings.Join(terms, " ")
}

// Retrieve fetches documentation for each selected library concurrently. Libraries that
// fail to resolve or fetch are skipped; the result is never nil.
func (r *DocumentationRetriever) Retrieve(ctx context.Context, prompt string, libraries []string, tokenBudget int) []FrameworkDoc {
	docs := []FrameworkDoc{}
	if r == nil || r.source == nil || len(libraries) == 0 {
		return docs
	}
	perLibrary := tokenBudget / len(libraries)
	if perLibrary <= 0 {
		perLibrary = 500
	}
	topic := DocTopic(prompt)

	results := make([]*FrameworkDoc, len(libraries))
	var wg sync.WaitGroup
	for i, lib := range libraries {
		wg.Add(1)
		go func(i int, lib string) {
			defer wg.Done()
			results[i] = r.fetchOne(ctx, prompt, lib, topic, perLibrary)
		}(i, lib)
	}
	wg.Wait()

	for _, d := range results {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs
}

func (r *DocumentationRetriever) fetchOne(ctx context.Context, prompt, lib, topic string, budget int) *FrameworkDoc {
	ids, err := r.source.Resolve(ctx, lib)
	if err != nil {
		slog.Warn("documentation resolve failed", "library", lib, "error", err)
		return nil
	}
	if len(ids) == 0 {
		slog.Debug("no documentation found", "library", lib)
		return nil
	}
	id := ids[0]

	content, err := r.source.Fetch(ctx, id, topic, budget)
	if err != nil {
		slog.Warn("documentation fetch failed", "library", lib, "id", id, "error", err)
		return nil
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if r.curator != nil {
		curated, err := r.curator.Curate(ctx, CurationRequest{Prompt: prompt, Library: lib, Content: content, TokenBudget: budget})
		switch {
		case err != nil:
			slog.Warn("documentation curation failed, using raw docs", "library", lib, "error", err)
		case strings.TrimSpace(curated) != "":
			content = strings.TrimSpace(curated)
		}
	}

	return &FrameworkDoc{Library: lib, LibraryID: id, Content: llm.TruncateToTokens(content, budget)}
}
