package mcp

import (
	"fmt"
	"strings"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// FormatEnhance renders an enhancement as Markdown: the enhanced prompt first, then a
// compact summary of what shaped it.
func FormatEnhance(resp *enhance.EnhancedResponse) string {
	if resp == nil {
		return "No enhancement produced."
	}
	var sb strings.Builder
	sb.WriteString(resp.EnhancedPrompt)
	sb.WriteString("\n\n---\n")

	var meta []string
	if resp.Strategy != nil {
		meta = append(meta, fmt.Sprintf("**Strategy**: %s", resp.Strategy.Kind))
	}
	if fw := resp.FrameworkDetection.DetectedFrameworks; len(fw) > 0 {
		meta = append(meta, fmt.Sprintf("**Frameworks**: %s (%s, %.0f%%)",
			strings.Join(fw, ", "), resp.FrameworkDetection.DetectionMethod, resp.FrameworkDetection.Confidence*100))
	}
	if used := formatContextUsed(resp.ContextUsed); used != "" {
		meta = append(meta, "**Context**: "+used)
	}
	if resp.CacheHit {
		meta = append(meta, "**Cache**: hit")
	}
	meta = append(meta, fmt.Sprintf("**Quality**: %.2f | **Confidence**: %.2f | **Time**: %dms",
		resp.Metrics.QualityScore, resp.Metrics.ConfidenceScore, resp.Metrics.ResponseTimeMs))
	sb.WriteString(strings.Join(meta, "\n"))
	sb.WriteString("\n")

	if len(resp.Todos) > 0 {
		sb.WriteString("\n## Tasks\n")
		for _, t := range resp.Todos {
			fmt.Fprintf(&sb, "- [ ] %s (%s)\n", t.Content, t.Priority)
		}
	}
	if len(resp.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n")
		for _, r := range resp.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return strings.TrimSpace(sb.String())
}

func formatContextUsed(u enhance.ContextUsed) string {
	var parts []string
	if n := len(u.RepoFacts); n > 0 {
		parts = append(parts, fmt.Sprintf("%d repo facts", n))
	}
	if len(u.CodeSnippets) > 0 {
		parts = append(parts, "code from "+strings.Join(u.CodeSnippets, ", "))
	}
	if len(u.FrameworkDocs) > 0 {
		parts = append(parts, "docs for "+strings.Join(u.FrameworkDocs, ", "))
	}
	if len(u.ProjectDocs) > 0 {
		parts = append(parts, "project docs "+strings.Join(u.ProjectDocs, ", "))
	}
	return strings.Join(parts, "; ")
}

// FormatCacheStats renders cache statistics as a Markdown list.
func FormatCacheStats(st cache.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Cache\n")
	fmt.Fprintf(&sb, "- **Entries**: %d\n", st.Entries)
	fmt.Fprintf(&sb, "- **Hits / misses**: %d / %d (%.0f%% hit rate)\n", st.Hits, st.Misses, st.HitRate*100)
	fmt.Fprintf(&sb, "- **Stale misses**: %d\n", st.StaleMisses)
	fmt.Fprintf(&sb, "- **Invalidations**: %d\n", st.Generation)
	if !st.Oldest.IsZero() {
		fmt.Fprintf(&sb, "- **Oldest entry**: %s\n", st.Oldest.Format("2006-01-02 15:04"))
	}
	return strings.TrimSpace(sb.String())
}

// FormatError returns a standardized Markdown error message.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for invalid input.
func FormatValidationError(problems []string) string {
	var sb strings.Builder
	sb.WriteString("## Validation Error\n")
	for _, p := range problems {
		fmt.Fprintf(&sb, "\n- %s", p)
	}
	return sb.String()
}
