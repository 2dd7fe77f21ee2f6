package enhance

import (
	"sort"
	"strings"
	"unicode"
)

var technicalTerms = []string{
	"architecture", "authentication", "authorization", "database", "migration", "migrate",
	"refactor", "integrate", "integration", "microservice", "pipeline", "scalable", "concurrency",
	"optimize", "deploy", "deployment", "infrastructure", "distributed", "schema", "websocket",
	"state management", "caching", "oauth", "transaction",
}

var stepMarkers = []string{"then", "after that", "first", "finally", "step", "next,"}

// AnalyzeComplexity scores a prompt and classifies it.
func AnalyzeComplexity(prompt string) PromptComplexity {
	lower := strings.ToLower(prompt)
	words := len(strings.Fields(prompt))
	indicators := map[string]bool{}
	score := 0

	switch {
	case words > 60:
		score += 3
		indicators["long-prompt"] = true
	case words > 25:
		score += 2
		indicators["long-prompt"] = true
	case words > 12:
		score++
		indicators["moderate-length"] = true
	}

	tech := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			tech++
		}
	}
	if tech > 0 {
		indicators["technical-terms"] = true
		score += min(tech, 3)
	}

	requirements := strings.Count(lower, " and ") + strings.Count(lower, ",") + countListItems(prompt)
	if requirements >= 3 {
		score++
		indicators["multiple-requirements"] = true
	}

	for _, m := range stepMarkers {
		if containsWord(lower, m) {
			score++
			indicators["multi-step"] = true
			break
		}
	}

	if strings.Contains(prompt, "```") {
		score++
		indicators["code-context"] = true
	}

	if words <= 12 && isQuestion(lower) {
		indicators["question"] = true
	}

	level := ComplexitySimple
	switch {
	case score >= 5:
		level = ComplexityComplex
	case score >= 2:
		level = ComplexityMedium
	}

	list := make([]string, 0, len(indicators))
	for k := range indicators {
		list = append(list, k)
	}
	sort.Strings(list)
	return PromptComplexity{Level: level, Score: score, Indicators: list}
}

// AdaptiveOptions are processing limits derived from complexity.
type AdaptiveOptions struct {
	DocTokenBudget int
	MaxSnippets    int
	MaxLibraries   int
	MaxTasks       int
}

// Adapt derives processing limits for a complexity level, bounded by the caller's options.
func Adapt(c PromptComplexity, opts Options) AdaptiveOptions {
	var a AdaptiveOptions
	switch c.Level {
	case ComplexityComplex:
		a = AdaptiveOptions{DocTokenBudget: 4000, MaxSnippets: 5, MaxLibraries: 3, MaxTasks: 8}
	case ComplexityMedium:
		a = AdaptiveOptions{DocTokenBudget: 2000, MaxSnippets: 3, MaxLibraries: 2, MaxTasks: 5}
	default:
		a = AdaptiveOptions{DocTokenBudget: 1000, MaxSnippets: 2, MaxLibraries: 1, MaxTasks: 3}
	}
	if opts.MaxTokens > 0 && a.DocTokenBudget > opts.MaxTokens/2 {
		a.DocTokenBudget = opts.MaxTokens / 2
	}
	if opts.MaxTasks > 0 {
		a.MaxTasks = opts.MaxTasks
	}
	return a
}

func countListItems(prompt string) int {
	n := 0
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			n++
			continue
		}
		if len(line) > 2 && unicode.IsDigit(rune(line[0])) && (line[1] == '.' || line[1] == ')') {
			n++
		}
	}
	return n
}

func isQuestion(lower string) bool {
	for _, w := range []string{"how ", "what ", "why ", "when ", "where ", "which ", "can "} {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return strings.HasSuffix(strings.TrimSpace(lower), "?")
}

// containsWord reports whether phrase occurs in s on word boundaries.
func containsWord(s, phrase string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], phrase)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(phrase)
		before := start == 0 || !isWordByte(s[start-1])
		after := end == len(s) || !isWordByte(s[end])
		if before && after {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true, "from": true,
	"into": true, "using": true, "use": true, "make": true, "create": true, "add": true, "please": true,
	"should": true, "would": true, "could": true, "can": true, "how": true, "what": true, "want": true,
	"need": true, "new": true, "some": true, "have": true, "has": true, "are": true, "was": true,
	"will": true, "when": true, "which": true, "all": true, "our": true, "your": true, "you": true,
	"not": true, "but": true, "its": true, "also": true, "then": true, "there": true, "them": true,
}

// PromptTerms returns the distinct significant lowercase words of a prompt, in order of appearance.
func PromptTerms(prompt string) []string {
	fields := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
