package enhance

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// qualityKeywords maps requirement types to the prompt phrases that ask for them.
var qualityKeywords = map[string][]string{
	"accessibility":   {"accessible", "accessibility", "a11y", "aria", "screen reader", "keyboard", "wcag", "contrast"},
	"performance":     {"performance", "fast", "faster", "optimize", "slow", "latency", "efficient", "lazy", "memoize"},
	"security":        {"secure", "security", "auth", "authentication", "login", "password", "encrypt", "xss", "csrf", "injection", "permission", "sanitize"},
	"testing":         {"test", "tests", "testing", "coverage", "unit test", "e2e", "integration test"},
	"responsive":      {"responsive", "mobile", "breakpoint", "tablet", "layout"},
	"maintainability": {"refactor", "clean", "maintainable", "readable", "typed", "type-safe", "modular"},
	"error-handling":  {"error", "errors", "exception", "retry", "fallback", "timeout"},
}

// uiTerms mark prompts about interactive UI, which implicitly carry accessibility needs.
var uiTerms = []string{"component", "button", "form", "modal", "dialog", "input", "menu", "page"}

// contextSignals map repo-fact or snippet substrings to requirements the project already cares about.
var contextSignals = map[string][]string{
	"testing":       {"jest", "vitest", "mocha", "pytest", "go test", "testify", "cypress", "playwright"},
	"accessibility": {"aria-", "eslint-plugin-jsx-a11y", "axe-core"},
	"security":      {"helmet", "bcrypt", "jsonwebtoken", "oauth"},
}

// QualityDetector infers quality requirements from the prompt, the project and optional policies.
type QualityDetector struct {
	policy QualityPolicy
}

// NewQualityDetector creates a detector. policy may be nil.
func NewQualityDetector(policy QualityPolicy) *QualityDetector {
	return &QualityDetector{policy: policy}
}

// Detect returns requirements sorted by priority (high first) then type.
// Prompt keywords and explicit focus are high priority, UI-implied accessibility is
// medium and requirements inferred from the project alone are low.
func (d *QualityDetector) Detect(ctx context.Context, prompt string, pc ProjectContext, frameworks []string, projectType ProjectType, focus []string) []QualityRequirement {
	lower := strings.ToLower(prompt)
	found := map[string]Priority{}
	raise := func(t string, p Priority) {
		if p.rank() > found[t].rank() {
			found[t] = p
		}
	}

	for t, words := range qualityKeywords {
		for _, w := range words {
			if containsWord(lower, w) {
				raise(t, PriorityHigh)
				break
			}
		}
	}
	for _, f := range focus {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			raise(f, PriorityHigh)
		}
	}

	if projectType == ProjectFrontend || projectType == ProjectFullstack || projectType == ProjectMobile {
		for _, w := range uiTerms {
			if containsWord(lower, w) {
				raise("accessibility", PriorityMedium)
				break
			}
		}
	}

	var ctxText strings.Builder
	for _, f := range pc.RepoFacts {
		ctxText.WriteString(strings.ToLower(f))
		ctxText.WriteByte('\n')
	}
	for _, s := range pc.CodeSnippets {
		ctxText.WriteString(strings.ToLower(s.Content))
		ctxText.WriteByte('\n')
	}
	haystack := ctxText.String()
	for t, signals := range contextSignals {
		for _, s := range signals {
			if strings.Contains(haystack, s) {
				raise(t, PriorityLow)
				break
			}
		}
	}

	if d != nil && d.policy != nil {
		reqs, err := d.policy.Evaluate(ctx, QualityInput{
			Prompt:      prompt,
			RepoFacts:   pc.RepoFacts,
			Frameworks:  frameworks,
			ProjectType: projectType,
			Focus:       focus,
		})
		if err != nil {
			slog.Warn("quality policy evaluation failed", "error", err)
		}
		for _, r := range reqs {
			if r.Type == "" {
				continue
			}
			p := r.Priority
			if p.rank() == 0 {
				p = PriorityLow
			}
			raise(r.Type, p)
		}
	}

	out := make([]QualityRequirement, 0, len(found))
	for t, p := range found {
		out = append(out, QualityRequirement{Type: t, Priority: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.rank(), out[j].Priority.rank(); ri != rj {
			return ri > rj
		}
		return out[i].Type < out[j].Type
	})
	return out
}
