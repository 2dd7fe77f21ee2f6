package enhance

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

// DetectFrameworks runs detector over the full gathered context. A nil detector or a
// failing one yields EmptyDetection; the result is otherwise normalized (lowercase,
// deduplicated, confidence clamped to [0,1]).
func DetectFrameworks(ctx context.Context, detector FrameworkDetector, prompt string, pc ProjectContext, hint string) FrameworkDetectionResult {
	if detector == nil {
		return EmptyDetection()
	}
	res, err := detector.Detect(ctx, prompt, pc, hint)
	if err != nil {
		slog.Warn("framework detection failed, continuing without frameworks", "error", err)
		return EmptyDetection()
	}

	seen := make(map[string]bool, len(res.DetectedFrameworks))
	frameworks := make([]string, 0, len(res.DetectedFrameworks))
	for _, f := range res.DetectedFrameworks {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		frameworks = append(frameworks, f)
	}
	if len(frameworks) == 0 {
		return EmptyDetection()
	}

	method := res.DetectionMethod
	if method == "" {
		method = DetectionPattern
	}
	return FrameworkDetectionResult{
		DetectedFrameworks: frameworks,
		Confidence:         clamp01(res.Confidence),
		DetectionMethod:    method,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
