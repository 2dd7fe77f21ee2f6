package docs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/llm"
)

const (
	// maxEmbeddedSections bounds the embedding request per library.
	maxEmbeddedSections = 48
	minSectionChars     = 40
)

// Curator implements enhance.DocumentationCurator. It splits documentation into sections,
// ranks them against the prompt and keeps the best ones, in their original order, until
// the token budget is spent. Ranking uses embeddings when an embedder is configured and
// falls back to prompt-term overlap otherwise.
type Curator struct {
	embedder embedding.Embedder
}

// NewCurator creates a curator. embedder may be nil.
func NewCurator(embedder embedding.Embedder) *Curator {
	return &Curator{embedder: embedder}
}

type rankedSection struct {
	index int
	text  string
	score float64
}

func (c *Curator) Curate(ctx context.Context, req enhance.CurationRequest) (string, error) {
	sections := SplitSections(req.Content)
	if len(sections) == 0 {
		return "", nil
	}
	if req.TokenBudget <= 0 || llm.EstimateTokens(req.Content) <= req.TokenBudget {
		return strings.TrimSpace(req.Content), nil
	}

	ranked := make([]rankedSection, len(sections))
	for i, s := range sections {
		ranked[i] = rankedSection{index: i, text: s}
	}

	scored := false
	if c.embedder != nil {
		if err := c.scoreByEmbedding(ctx, req.Prompt, ranked); err != nil {
			slog.Warn("embedding curation failed, ranking by keywords", "library", req.Library, "error", err)
		} else {
			scored = true
		}
	}
	if !scored {
		scoreByTerms(req.Prompt, ranked)
	}

	return selectWithinBudget(ranked, req.TokenBudget), nil
}

func (c *Curator) scoreByEmbedding(ctx context.Context, prompt string, ranked []rankedSection) error {
	n := min(len(ranked), maxEmbeddedSections)
	texts := make([]string, 0, n+1)
	texts = append(texts, prompt)
	for _, r := range ranked[:n] {
		texts = append(texts, r.text)
	}

	vectors, err := c.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(texts))
	}
	for i := 0; i < n; i++ {
		ranked[i].score = cosine(vectors[0], vectors[i+1])
	}
	// Sections past the embedding window keep a zero score and only fill leftover budget.
	return nil
}

func scoreByTerms(prompt string, ranked []rankedSection) {
	terms := enhance.PromptTerms(prompt)
	for i := range ranked {
		lower := strings.ToLower(ranked[i].text)
		for _, t := range terms {
			if strings.Contains(lower, t) {
				ranked[i].score++
			}
		}
		// Code examples are worth more than prose with the same overlap.
		if strings.Contains(ranked[i].text, "```") {
			ranked[i].score += 0.5
		}
	}
}

func selectWithinBudget(ranked []rankedSection, budget int) string {
	byScore := append([]rankedSection(nil), ranked...)
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].score > byScore[j].score })

	var (
		keep  []rankedSection
		spent int
	)
	for _, r := range byScore {
		cost := llm.EstimateTokens(r.text)
		if spent+cost > budget {
			continue
		}
		keep = append(keep, r)
		spent += cost
	}
	if len(keep) == 0 {
		return llm.TruncateToTokens(byScore[0].text, budget)
	}

	sort.Slice(keep, func(i, j int) bool { return keep[i].index < keep[j].index })
	parts := make([]string, len(keep))
	for i, r := range keep {
		parts[i] = r.text
	}
	return strings.Join(parts, "\n\n")
}

// SplitSections splits markdown at headings. Fenced code blocks never split, and
// sections shorter than a sentence are merged into the next one.
func SplitSections(content string) []string {
	var (
		sections []string
		current  []string
		inFence  bool
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		sections = append(sections, text)
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(trimmed, "#") && len(current) > 0 &&
			len(strings.TrimSpace(strings.Join(current, "\n"))) >= minSectionChars {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
