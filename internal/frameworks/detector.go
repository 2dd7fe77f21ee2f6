package frameworks

import (
	"context"
	"strings"
	"unicode"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/project"
)

// Confidence per detection route.
const (
	confidenceExplicit        = 1.0
	confidencePromptInProject = 0.95
	confidenceProject         = 0.85
	confidencePromptName      = 0.8
	confidenceContext         = 0.6
	confidenceKeyword         = 0.5
)

// Detector implements enhance.FrameworkDetector over a Catalog.
type Detector struct {
	catalog *Catalog
}

// NewDetector creates a detector. A nil catalog means the built-in one.
func NewDetector(c *Catalog) *Detector {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Detector{catalog: c}
}

// Detect picks the most specific evidence available:
//   - a hint naming a known framework is taken as given;
//   - frameworks the prompt names, ranked first when the project depends on them;
//   - the project's framework dependencies, ordered by prompt keyword relevance;
//   - prompt keywords alone;
//   - imports seen in the gathered code snippets.
func (d *Detector) Detect(ctx context.Context, prompt string, pc enhance.ProjectContext, hint string) (enhance.FrameworkDetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return enhance.EmptyDetection(), err
	}

	if hint != "" {
		name, ok := d.catalog.Canonical(hint)
		if !ok {
			name = strings.ToLower(strings.TrimSpace(hint))
		}
		return result([]string{name}, confidenceExplicit, enhance.DetectionExplicit), nil
	}

	text := normalizeText(prompt)
	named, keyworded := d.fromPrompt(text)
	inProject := d.fromDependencies(project.DependenciesFromFacts(pc.RepoFacts))

	if len(named) > 0 {
		var both, promptOnly []string
		for _, n := range named {
			if contains(inProject, n) {
				both = append(both, n)
			} else {
				promptOnly = append(promptOnly, n)
			}
		}
		if len(both) > 0 {
			return result(append(both, promptOnly...), confidencePromptInProject, enhance.DetectionProject), nil
		}
		return result(named, confidencePromptName, enhance.DetectionPattern), nil
	}

	if len(inProject) > 0 {
		var relevant, rest []string
		for _, n := range inProject {
			if contains(keyworded, n) {
				relevant = append(relevant, n)
			} else {
				rest = append(rest, n)
			}
		}
		return result(append(relevant, rest...), confidenceProject, enhance.DetectionProject), nil
	}

	if len(keyworded) > 0 {
		return result(keyworded, confidenceKeyword, enhance.DetectionPattern), nil
	}

	if fromCode := d.fromSnippets(pc.CodeSnippets); len(fromCode) > 0 {
		return result(fromCode, confidenceContext, enhance.DetectionContext), nil
	}
	return enhance.EmptyDetection(), nil
}

func result(names []string, confidence float64, method enhance.DetectionMethod) enhance.FrameworkDetectionResult {
	return enhance.FrameworkDetectionResult{DetectedFrameworks: names, Confidence: confidence, DetectionMethod: method}
}

// fromPrompt returns frameworks the prompt names (by name or alias) and those it only
// hints at through keywords, each in catalog order.
func (d *Detector) fromPrompt(text string) (named, keyworded []string) {
	for _, f := range d.catalog.frameworks {
		if hasPhrase(text, f.Name) || anyPhrase(text, f.Aliases) {
			named = append(named, f.Name)
			continue
		}
		if anyPhrase(text, f.Keywords) {
			keyworded = append(keyworded, f.Name)
		}
	}
	return named, keyworded
}

func (d *Detector) fromDependencies(deps []string) []string {
	var out []string
	for _, dep := range deps {
		if name, ok := d.catalog.ForDependency(dep); ok && !contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func (d *Detector) fromSnippets(snippets []enhance.CodeSnippet) []string {
	var out []string
	for _, f := range d.catalog.frameworks {
		for _, s := range snippets {
			if anySubstring(s.Content, f.Imports) {
				out = append(out, f.Name)
				break
			}
		}
	}
	return out
}

// normalizeText lowercases s and pads it with spaces so phrase matching can test word
// boundaries with plain substring search.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.WriteByte(' ')
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(".-_", r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(' ')
	return sb.String()
}

// hasPhrase reports whether phrase occurs in text as whole words. A trailing "." in
// text, as in "use react.", still counts as a boundary.
func hasPhrase(text, phrase string) bool {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(text[i:], phrase)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(phrase)
		if text[start-1] == ' ' && (text[end] == ' ' || (text[end] == '.' && text[end+1] == ' ')) {
			return true
		}
		i = start + 1
	}
}

func anyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if hasPhrase(text, p) {
			return true
		}
	}
	return false
}

func anySubstring(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
