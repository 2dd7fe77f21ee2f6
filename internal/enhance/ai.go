package enhance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var errEmptyEnhancement = errors.New("AI enhancement returned an empty prompt")

// RunAIEnhancement runs the optional second pass. It returns nil when the client is
// absent or fails; the caller then keeps the assembled prompt.
func RunAIEnhancement(ctx context.Context, client AIEnhancementClient, prompt string, ec EnhancementContext, strategy EnhancementStrategy) *AIEnhancementResult {
	if client == nil {
		return nil
	}
	start := time.Now()
	res, err := client.Enhance(ctx, prompt, ec, strategy)
	if err == nil && (res == nil || strings.TrimSpace(res.EnhancedPrompt) == "") {
		err = errEmptyEnhancement
	}
	if err != nil {
		slog.Warn("AI enhancement failed, using assembled prompt", "strategy", strategy.Kind, "error", err)
		return nil
	}

	out := *res
	out.EnhancedPrompt = strings.TrimSpace(out.EnhancedPrompt)
	out.Quality = NormalizeQuality(out.Quality)
	out.Confidence = NormalizeConfidence(out.Confidence)
	if out.Cost < 0 {
		out.Cost = 0
	}
	if out.ProcessingTime <= 0 {
		out.ProcessingTime = time.Since(start)
	}
	if out.Improvements == nil {
		out.Improvements = []Improvement{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return &out
}

// NormalizeQuality clamps every dimension to [0,1] and fills Overall with the mean of the
// five dimensions when it is missing.
func NormalizeQuality(q QualityScores) QualityScores {
	q.Clarity = clamp01(q.Clarity)
	q.Specificity = clamp01(q.Specificity)
	q.Actionability = clamp01(q.Actionability)
	q.Completeness = clamp01(q.Completeness)
	q.Relevance = clamp01(q.Relevance)
	if q.Overall <= 0 {
		q.Overall = (q.Clarity + q.Specificity + q.Actionability + q.Completeness + q.Relevance) / 5
	}
	q.Overall = clamp01(q.Overall)
	return q
}

// NormalizeConfidence is NormalizeQuality for confidence scores.
func NormalizeConfidence(c ConfidenceScores) ConfidenceScores {
	c.ContextRelevance = clamp01(c.ContextRelevance)
	c.FrameworkAccuracy = clamp01(c.FrameworkAccuracy)
	c.QualityAlignment = clamp01(c.QualityAlignment)
	c.ProjectFit = clamp01(c.ProjectFit)
	if c.Overall <= 0 {
		c.Overall = (c.ContextRelevance + c.FrameworkAccuracy + c.QualityAlignment + c.ProjectFit) / 4
	}
	c.Overall = clamp01(c.Overall)
	return c
}
