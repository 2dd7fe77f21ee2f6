package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// RenderOptions controls terminal output.
type RenderOptions struct {
	Styled bool // colors and markdown rendering
	Width  int  // wrap width; 0 means DefaultWidth
}

func (o RenderOptions) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return DefaultWidth
}

// RenderResponse writes an enhancement result: the enhanced prompt followed by what
// went into it.
func RenderResponse(w io.Writer, resp *enhance.EnhancedResponse, opts RenderOptions) error {
	var sb strings.Builder

	header := section("Enhanced prompt", opts)
	if resp.CacheHit {
		header += cachedBadge(opts)
	}
	sb.WriteString(header + "\n")
	if resp.Strategy != nil {
		sb.WriteString(strategyLine(*resp.Strategy, opts) + "\n")
	}
	sb.WriteString("\n" + renderMarkdown(resp.EnhancedPrompt, opts) + "\n")

	if used := contextLines(resp.ContextUsed); len(used) > 0 {
		sb.WriteString("\n" + section("Context used", opts) + "\n")
		for _, l := range used {
			sb.WriteString("  " + l + "\n")
		}
	}

	if bd := resp.Breakdown; bd != nil && len(bd.MainTasks) > 0 {
		sb.WriteString("\n" + section("Tasks", opts) + "\n")
		sb.WriteString(breakdownTable(bd, opts).Render())
	}

	if len(resp.Recommendations) > 0 {
		sb.WriteString("\n" + section("Recommendations", opts) + "\n")
		for _, r := range resp.Recommendations {
			sb.WriteString(indentWrapped("- "+r, opts.width()) + "\n")
		}
	}

	sb.WriteString("\n" + metricsLine(resp, opts) + "\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderCacheStats writes cache statistics as a two-column table.
func RenderCacheStats(w io.Writer, st cache.Stats, opts RenderOptions) error {
	t := &Table{Headers: []string{"Metric", "Value"}, Plain: !opts.Styled}
	t.Rows = [][]string{
		{"Entries", fmt.Sprint(st.Entries)},
		{"Stored hits", fmt.Sprint(st.TotalHits)},
		{"Session hits", fmt.Sprint(st.Hits)},
		{"Session misses", fmt.Sprint(st.Misses)},
		{"Stale misses", fmt.Sprint(st.StaleMisses)},
		{"Hit rate", fmt.Sprintf("%.0f%%", st.HitRate*100)},
		{"Generation", fmt.Sprint(st.Generation)},
	}
	if !st.Oldest.IsZero() {
		t.Rows = append(t.Rows,
			[]string{"Oldest entry", st.Oldest.Format(time.RFC3339)},
			[]string{"Newest entry", st.Newest.Format(time.RFC3339)},
		)
	}
	_, err := io.WriteString(w, section("Cache", opts)+"\n"+t.Render())
	return err
}

func section(title string, opts RenderOptions) string {
	if opts.Styled {
		return styleSection.Render(title)
	}
	return "== " + title + " =="
}

func cachedBadge(opts RenderOptions) string {
	if opts.Styled {
		return " " + styleCached.Render("(cached)")
	}
	return " (cached)"
}

func strategyLine(s enhance.EnhancementStrategy, opts RenderOptions) string {
	detail := ""
	switch {
	case s.Framework != "":
		detail = s.Framework
	case len(s.QualityFocus) > 0:
		detail = strings.Join(s.QualityFocus, ", ")
	case s.ProjectType != "":
		detail = string(s.ProjectType)
	}
	line := "strategy: " + string(s.Kind)
	if detail != "" {
		line += " (" + detail + ")"
	}
	if opts.Styled {
		return styleStrategy.Render(line)
	}
	return line
}

func renderMarkdown(md string, opts RenderOptions) string {
	if opts.Styled {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(opts.width()))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				return strings.TrimRight(out, "\n")
			}
		}
	}
	return WrapText(md, opts.width())
}

func contextLines(u enhance.ContextUsed) []string {
	var lines []string
	if n := len(u.RepoFacts); n > 0 {
		lines = append(lines, fmt.Sprintf("repo facts: %d", n))
	}
	add := func(label string, items []string) {
		if len(items) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", label, strings.Join(items, ", ")))
		}
	}
	add("code", u.CodeSnippets)
	add("framework docs", u.FrameworkDocs)
	add("project docs", u.ProjectDocs)
	return lines
}

func breakdownTable(bd *enhance.Breakdown, opts RenderOptions) *Table {
	subtasks := map[string]int{}
	for _, st := range bd.Subtasks {
		subtasks[st.ParentID]++
	}
	deps := map[string][]string{}
	for _, d := range bd.Dependencies {
		deps[d.TaskID] = append(deps[d.TaskID], d.DependsOn)
	}

	t := &Table{
		Headers:  []string{"ID", "Task", "Priority", "Hours", "Steps", "After"},
		MaxWidth: 60,
		Plain:    !opts.Styled,
	}
	for _, task := range bd.MainTasks {
		hours := ""
		if task.EstimatedHours > 0 {
			hours = fmt.Sprintf("%g", task.EstimatedHours)
		}
		steps := ""
		if n := subtasks[task.ID]; n > 0 {
			steps = fmt.Sprint(n)
		}
		t.Rows = append(t.Rows, []string{task.ID, task.Title, task.Priority, hours, steps, strings.Join(deps[task.ID], ", ")})
	}
	return t
}

func metricsLine(resp *enhance.EnhancedResponse, opts RenderOptions) string {
	m := resp.Metrics
	parts := []string{
		fmt.Sprintf("%dms", m.ResponseTimeMs),
		fmt.Sprintf("quality %.2f", m.QualityScore),
		fmt.Sprintf("confidence %.2f", m.ConfidenceScore),
		fmt.Sprintf("ratio %.1fx", m.TokenRatio),
	}
	if len(m.FrameworksDetected) > 0 {
		parts = append(parts, "frameworks "+strings.Join(m.FrameworksDetected, ", "))
	}
	if m.AIEnhancementEnabled {
		parts = append(parts, fmt.Sprintf("ai $%.4f", m.Cost))
	}
	line := strings.Join(parts, " · ")
	if opts.Styled {
		return styleMetrics.Render(line)
	}
	return line
}

func indentWrapped(s string, width int) string {
	wrapped := WrapText(s, width-2)
	return "  " + strings.ReplaceAll(wrapped, "\n", "\n    ")
}
