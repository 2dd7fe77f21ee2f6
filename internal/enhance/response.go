package enhance

import (
	"time"

	"github.com/wtthornton/LocalMCP/internal/llm"
)

// TokenRatio is the approximate growth of the prompt in tokens, using the chars/4
// estimate on both sides. It is not a tokenizer count.
func TokenRatio(original, enhanced string) float64 {
	o := llm.EstimateTokens(original)
	if o == 0 {
		return 0
	}
	return float64(llm.EstimateTokens(enhanced)) / float64(o)
}

// ResponseInput carries the final state of a request into response assembly.
type ResponseInput struct {
	OriginalPrompt string
	FinalPrompt    string // after the AI pass, if it succeeded
	Used           ContextUsed
	Detection      FrameworkDetectionResult
	Strategy       EnhancementStrategy
	AI             *AIEnhancementResult // nil unless the AI pass succeeded
	Breakdown      *Breakdown
	Todos          []Todo
	RequestID      string
	Started        time.Time
}

// AssembleResponse builds the response for a full pipeline run. The token ratio is
// computed here, once, from the final prompt.
func AssembleResponse(in ResponseInput) *EnhancedResponse {
	m := Metrics{
		ResponseTimeMs:     elapsedMillis(in.Started),
		TokenRatio:         TokenRatio(in.OriginalPrompt, in.FinalPrompt),
		FrameworksDetected: nonNil(in.Detection.DetectedFrameworks),
	}
	var recs []string
	if in.AI != nil {
		m.AIEnhancementEnabled = true
		m.QualityScore = in.AI.Quality.Overall
		m.ConfidenceScore = in.AI.Confidence.Overall
		m.Cost = in.AI.Cost
		recs = in.AI.Recommendations
	}

	strategy := in.Strategy
	return &EnhancedResponse{
		Success:            true,
		EnhancedPrompt:     in.FinalPrompt,
		ContextUsed:        normalizeUsed(in.Used),
		Breakdown:          in.Breakdown,
		Todos:              in.Todos,
		FrameworkDetection: normalizeDetection(in.Detection),
		Strategy:           &strategy,
		Recommendations:    recs,
		RequestID:          in.RequestID,
		Metrics:            m,
	}
}

// CachedResponse builds the response for a cache hit. Response time is reported as zero.
func CachedResponse(originalPrompt, cachedPrompt string, qualityScore float64, used ContextUsed, detection FrameworkDetectionResult, requestID string) *EnhancedResponse {
	return &EnhancedResponse{
		Success:            true,
		EnhancedPrompt:     cachedPrompt,
		ContextUsed:        normalizeUsed(used),
		FrameworkDetection: normalizeDetection(detection),
		CacheHit:           true,
		RequestID:          requestID,
		Metrics: Metrics{
			QualityScore:       qualityScore,
			TokenRatio:         TokenRatio(originalPrompt, cachedPrompt),
			FrameworksDetected: nonNil(detection.DetectedFrameworks),
		},
	}
}

// elapsedMillis rounds up so that a completed pipeline run never reports 0ms, which is
// reserved for cache hits.
func elapsedMillis(start time.Time) int64 {
	if start.IsZero() {
		return 1
	}
	d := time.Since(start)
	ms := int64((d + time.Millisecond - 1) / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms
}

func normalizeUsed(u ContextUsed) ContextUsed {
	return ContextUsed{
		RepoFacts:     nonNil(u.RepoFacts),
		CodeSnippets:  nonNil(u.CodeSnippets),
		FrameworkDocs: nonNil(u.FrameworkDocs),
		ProjectDocs:   nonNil(u.ProjectDocs),
	}
}

func normalizeDetection(d FrameworkDetectionResult) FrameworkDetectionResult {
	d.DetectedFrameworks = nonNil(d.DetectedFrameworks)
	if d.DetectionMethod == "" {
		d.DetectionMethod = DetectionNone
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
