package enhance

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wtthornton/LocalMCP/internal/llm"
	"github.com/wtthornton/LocalMCP/internal/patterns"
)

// AssemblyInput is everything the assembler may merge into the prompt.
type AssemblyInput struct {
	Prompt    string
	Hints     Hints
	Context   ProjectContext
	Detection FrameworkDetectionResult
	Docs      []FrameworkDoc
	Quality   []QualityRequirement
	Strategy  EnhancementStrategy
	Breakdown *Breakdown
	MaxTokens int // 0 means unbounded
}

// Assembly is the assembled prompt and the fragments it used.
type Assembly struct {
	Prompt  string
	Used    ContextUsed
	Dropped int
}

type fragmentKind int

const (
	fragRequest fragmentKind = iota
	fragGuidance
	fragFact
	fragFrameworks
	fragDoc
	fragSnippet
	fragProjectDoc
	fragQuality
	fragTasks
)

var sectionTitles = map[fragmentKind]string{
	fragRequest:    "Request Details",
	fragGuidance:   "Guidance",
	fragFact:       "Project Context",
	fragFrameworks: "Detected Frameworks",
	fragDoc:        "Framework Documentation",
	fragSnippet:    "Relevant Code",
	fragProjectDoc: "Project Documentation",
	fragQuality:    "Quality Requirements",
	fragTasks:      "Task Breakdown",
}

var sectionOrder = []fragmentKind{
	fragRequest, fragGuidance, fragFact, fragFrameworks, fragDoc,
	fragSnippet, fragProjectDoc, fragQuality, fragTasks,
}

// dropOrder ranks kinds for budget trimming; higher is dropped first.
var dropOrder = map[fragmentKind]int{
	fragProjectDoc: 7,
	fragSnippet:    6,
	fragDoc:        5,
	fragFact:       4,
	fragTasks:      3,
	fragGuidance:   2,
	fragQuality:    1,
	fragFrameworks: 1,
	fragRequest:    0,
}

type fragment struct {
	kind  fragmentKind
	label string // what ContextUsed reports
	text  string
}

// Assemble merges context into the prompt. The original prompt always leads the result.
// When MaxTokens is set, fragments are dropped lowest-value first (and last-added first
// within a kind) until the estimate fits; dropped fragments are not reported as used.
func Assemble(in AssemblyInput) Assembly {
	frags := buildFragments(in)

	dropped := 0
	if in.MaxTokens > 0 {
		for llm.EstimateTokens(render(in.Prompt, frags)) > in.MaxTokens {
			idx := nextToDrop(frags)
			if idx < 0 {
				break
			}
			frags = append(frags[:idx], frags[idx+1:]...)
			dropped++
		}
	}

	used := EmptyContextUsed()
	for _, f := range frags {
		switch f.kind {
		case fragFact:
			used.RepoFacts = append(used.RepoFacts, f.label)
		case fragSnippet:
			used.CodeSnippets = append(used.CodeSnippets, f.label)
		case fragDoc:
			used.FrameworkDocs = append(used.FrameworkDocs, f.label)
		case fragProjectDoc:
			used.ProjectDocs = append(used.ProjectDocs, f.label)
		}
	}
	slog.Debug("prompt assembled",
		"repo_facts", len(used.RepoFacts),
		"code_snippets", len(used.CodeSnippets),
		"framework_docs", len(used.FrameworkDocs),
		"project_docs", len(used.ProjectDocs),
		"dropped", dropped)

	return Assembly{Prompt: render(in.Prompt, frags), Used: used, Dropped: dropped}
}

func buildFragments(in AssemblyInput) []fragment {
	var frags []fragment
	add := func(kind fragmentKind, label, text string) {
		frags = append(frags, fragment{kind: kind, label: label, text: text})
	}

	if in.Hints.File != "" {
		add(fragRequest, "", "- Target file: "+in.Hints.File)
	}
	if in.Hints.Style != "" {
		add(fragRequest, "", "- Style: "+in.Hints.Style)
	}
	if g := StrategyGuidance(in.Strategy); g != "" {
		add(fragGuidance, "", g)
	}
	for _, f := range in.Context.RepoFacts {
		add(fragFact, f, "- "+f)
	}
	if len(in.Detection.DetectedFrameworks) > 0 {
		caser := cases.Title(language.English)
		names := make([]string, len(in.Detection.DetectedFrameworks))
		for i, f := range in.Detection.DetectedFrameworks {
			names[i] = caser.String(f)
		}
		add(fragFrameworks, "", fmt.Sprintf("%s (detected via %s, confidence %.2f)",
			strings.Join(names, ", "), in.Detection.DetectionMethod, in.Detection.Confidence))
	}
	for _, d := range in.Docs {
		add(fragDoc, d.Library, fmt.Sprintf("### %s\n%s", d.Library, d.Content))
	}
	for _, s := range in.Context.CodeSnippets {
		heading := s.File
		if s.Description != "" {
			heading = fmt.Sprintf("%s (%s)", s.File, s.Description)
		}
		if patterns.IsDocFile(s.File) {
			add(fragProjectDoc, s.File, fmt.Sprintf("### %s\n%s", heading, s.Content))
			continue
		}
		add(fragSnippet, s.File, fmt.Sprintf("### %s\n```%s\n%s\n```", heading, patterns.FenceLanguage(s.File), s.Content))
	}
	if len(in.Quality) > 0 {
		lines := make([]string, len(in.Quality))
		for i, q := range in.Quality {
			lines[i] = fmt.Sprintf("- %s (%s priority)", q.Type, q.Priority)
		}
		add(fragQuality, "", strings.Join(lines, "\n"))
	}
	if in.Breakdown != nil && len(in.Breakdown.MainTasks) > 0 {
		lines := make([]string, len(in.Breakdown.MainTasks))
		for i, t := range in.Breakdown.MainTasks {
			lines[i] = fmt.Sprintf("%d. %s", i+1, t.Title)
		}
		add(fragTasks, "", strings.Join(lines, "\n"))
	}
	return frags
}

// render writes the prompt verbatim, then one titled section per fragment kind.
func render(prompt string, frags []fragment) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	for _, kind := range sectionOrder {
		first := true
		for _, f := range frags {
			if f.kind != kind {
				continue
			}
			if first {
				fmt.Fprintf(&sb, "\n\n## %s\n", sectionTitles[kind])
				first = false
			} else {
				sb.WriteString(separatorFor(kind))
			}
			sb.WriteString(f.text)
		}
	}
	return sb.String()
}

func separatorFor(kind fragmentKind) string {
	switch kind {
	case fragDoc, fragSnippet, fragProjectDoc:
		return "\n\n"
	}
	return "\n"
}

func nextToDrop(frags []fragment) int {
	best, bestRank := -1, 0
	for i, f := range frags {
		rank := dropOrder[f.kind]
		if rank == 0 {
			continue
		}
		if rank >= bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

// StrategyGuidance is the one-line instruction a strategy adds to the prompt. The general
// strategy adds none.
func StrategyGuidance(s EnhancementStrategy) string {
	switch s.Kind {
	case StrategyFrameworkSpecific:
		if s.Framework == "" {
			return "Follow the conventions of the frameworks used in this project."
		}
		return fmt.Sprintf("Follow %s best practices and idioms.", cases.Title(language.English).String(s.Framework))
	case StrategyQualityFocused:
		if len(s.QualityFocus) == 0 {
			return "Address the quality requirements below explicitly."
		}
		return fmt.Sprintf("Prioritize %s.", strings.Join(s.QualityFocus, ", "))
	case StrategyProjectAware:
		if s.ProjectType == "" || s.ProjectType == ProjectUnknown {
			return "Fit the existing structure and conventions of this project."
		}
		return fmt.Sprintf("Fit the conventions of this %s project.", s.ProjectType)
	}
	return ""
}
