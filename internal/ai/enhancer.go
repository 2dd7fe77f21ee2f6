// Package ai implements the optional second pass of prompt enhancement: a chat model
// rewrites the assembled prompt and scores the result.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/llm"
	"github.com/wtthornton/LocalMCP/internal/planner"
)

// DefaultContextTokens bounds the assembled prompt sent to the model.
const DefaultContextTokens = 6000

// Enhancer implements enhance.AIEnhancementClient.
type Enhancer struct {
	gen           *planner.Generator
	contextTokens int
}

// NewEnhancer creates an enhancer that generates through gen.
func NewEnhancer(gen *planner.Generator) *Enhancer {
	return &Enhancer{gen: gen, contextTokens: DefaultContextTokens}
}

// WithContextTokens overrides DefaultContextTokens.
func (e *Enhancer) WithContextTokens(n int) *Enhancer {
	if n > 0 {
		e.contextTokens = n
	}
	return e
}

// Enhance asks the model to rewrite the assembled prompt. Improvements are derived from
// a line diff between what was sent and what came back, not from the model's own claims.
func (e *Enhancer) Enhance(ctx context.Context, prompt string, ec enhance.EnhancementContext, strategy enhance.EnhancementStrategy) (*enhance.AIEnhancementResult, error) {
	base := ec.AssembledPrompt
	if strings.TrimSpace(base) == "" {
		base = prompt
	}

	res, err := planner.Generate(ctx, e.gen, systemPrompt, promptTemplate,
		map[string]any{
			"Prompt":      prompt,
			"Assembled":   llm.TruncateToTokens(base, e.contextTokens),
			"Guidance":    enhance.StrategyGuidance(strategy),
			"Strategy":    string(strategy.Kind),
			"Frameworks":  strings.Join(ec.Frameworks, ", "),
			"Quality":     formatQuality(ec.Quality),
			"ProjectType": string(ec.ProjectType),
		},
		func(r *planner.LLMEnhancementResponse) planner.ValidationResult { return r.Validate() },
	)
	if err != nil {
		return nil, fmt.Errorf("ai enhancement: %w", err)
	}

	r := res.Result
	return &enhance.AIEnhancementResult{
		EnhancedPrompt: strings.TrimSpace(r.EnhancedPrompt),
		Quality: enhance.QualityScores{
			Clarity:       r.Quality.Clarity,
			Specificity:   r.Quality.Specificity,
			Actionability: r.Quality.Actionability,
			Completeness:  r.Quality.Completeness,
			Relevance:     r.Quality.Relevance,
			Overall:       r.Quality.Overall,
		},
		Confidence: enhance.ConfidenceScores{
			Overall:           r.Confidence.Overall,
			ContextRelevance:  r.Confidence.ContextRelevance,
			FrameworkAccuracy: r.Confidence.FrameworkAccuracy,
			QualityAlignment:  r.Confidence.QualityAlignment,
			ProjectFit:        r.Confidence.ProjectFit,
		},
		Improvements:    DiffImprovements(base, r.EnhancedPrompt),
		Recommendations: r.Recommendations,
		Cost:            res.Cost,
		ProcessingTime:  res.Duration,
	}, nil
}

func formatQuality(reqs []enhance.QualityRequirement) string {
	parts := make([]string, 0, len(reqs))
	for _, q := range reqs {
		parts = append(parts, fmt.Sprintf("%s (%s)", q.Type, q.Priority))
	}
	return strings.Join(parts, ", ")
}

const systemPrompt = `You improve prompts that developers send to coding assistants. You keep the developer's intent, make the request specific and actionable, and keep every project detail that matters. You answer with JSON only.`

const promptTemplate = `ORIGINAL REQUEST:
{{.Prompt}}

PROMPT WITH PROJECT CONTEXT:
{{.Assembled}}

STRATEGY: {{.Strategy}}{{if .Guidance}}
{{.Guidance}}{{end}}
{{if .Frameworks}}FRAMEWORKS: {{.Frameworks}}
{{end}}{{if .ProjectType}}PROJECT TYPE: {{.ProjectType}}
{{end}}{{if .Quality}}QUALITY REQUIREMENTS: {{.Quality}}
{{end}}{{if .ValidationErrors}}
{{.ValidationErrors}}
{{end}}
Rewrite the prompt so a coding assistant can act on it without asking questions. Keep the
relevant context sections; drop what does not help this request.

Return JSON with this schema:
{
  "enhanced_prompt": "string",
  "quality": {"clarity": 0-1, "specificity": 0-1, "actionability": 0-1, "completeness": 0-1, "relevance": 0-1, "overall": 0-1},
  "confidence": {"context_relevance": 0-1, "framework_accuracy": 0-1, "quality_alignment": 0-1, "project_fit": 0-1, "overall": 0-1},
  "recommendations": ["optional follow-up suggestions for the developer, at most 10"]
}

Output ONLY valid JSON.`
