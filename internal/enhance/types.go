// Package enhance holds the request-scoped model of a prompt enhancement and the
// components that derive it: context gathering, framework detection, complexity and
// quality analysis, strategy selection, documentation retrieval, task breakdown,
// prompt assembly, the AI pass and response assembly.
//
// The package depends only on the collaborator interfaces in interfaces.go. Concrete
// analyzers, detectors, documentation sources and model clients live in their own
// packages and are wired by the pipeline builder.
package enhance

import "time"

// CodeSnippet is a piece of project source judged relevant to a prompt.
type CodeSnippet struct {
	File        string `json:"file"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// ProjectContext is what the gatherer learned about the project for one request.
// Both slices are always non-nil.
type ProjectContext struct {
	RepoFacts    []string      `json:"repo_facts"`
	CodeSnippets []CodeSnippet `json:"code_snippets"`
}

// EmptyProjectContext returns a context with empty, non-nil collections.
func EmptyProjectContext() ProjectContext {
	return ProjectContext{RepoFacts: []string{}, CodeSnippets: []CodeSnippet{}}
}

// DetectionMethod records how frameworks were identified.
type DetectionMethod string

const (
	DetectionExplicit DetectionMethod = "explicit" // caller hint
	DetectionProject  DetectionMethod = "project"  // manifests / dependencies
	DetectionPattern  DetectionMethod = "pattern"  // prompt keywords
	DetectionContext  DetectionMethod = "context"  // code snippets and facts
	DetectionNone     DetectionMethod = "none"
)

// FrameworkDetectionResult is the output of framework detection.
type FrameworkDetectionResult struct {
	DetectedFrameworks []string        `json:"detected_frameworks"`
	Confidence         float64         `json:"confidence"`
	DetectionMethod    DetectionMethod `json:"detection_method"`
}

// EmptyDetection is the degraded detection result.
func EmptyDetection() FrameworkDetectionResult {
	return FrameworkDetectionResult{DetectedFrameworks: []string{}, DetectionMethod: DetectionNone}
}

// ComplexityLevel classifies a prompt.
type ComplexityLevel string

const (
	ComplexitySimple  ComplexityLevel = "simple"
	ComplexityMedium  ComplexityLevel = "medium"
	ComplexityComplex ComplexityLevel = "complex"
)

// PromptComplexity is the scored complexity of a prompt. Indicators is sorted.
type PromptComplexity struct {
	Level      ComplexityLevel `json:"level"`
	Score      int             `json:"score"`
	Indicators []string        `json:"indicators"`
}

// Priority ranks quality requirements.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// QualityRequirement is a quality concern the enhanced prompt should call out.
type QualityRequirement struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
}

// ProjectType is the coarse shape of the project.
type ProjectType string

const (
	ProjectFrontend  ProjectType = "frontend"
	ProjectBackend   ProjectType = "backend"
	ProjectFullstack ProjectType = "fullstack"
	ProjectLibrary   ProjectType = "library"
	ProjectCLI       ProjectType = "cli"
	ProjectMobile    ProjectType = "mobile"
	ProjectUnknown   ProjectType = "unknown"
)

// StrategyKind names an enhancement strategy.
type StrategyKind string

const (
	StrategyGeneral           StrategyKind = "general"
	StrategyFrameworkSpecific StrategyKind = "framework-specific"
	StrategyQualityFocused    StrategyKind = "quality-focused"
	StrategyProjectAware      StrategyKind = "project-aware"
)

// EnhancementStrategy is the strategy selected for a request. Only the payload field
// belonging to Kind is set.
type EnhancementStrategy struct {
	Kind         StrategyKind `json:"kind"`
	Framework    string       `json:"framework,omitempty"`
	QualityFocus []string     `json:"quality_focus,omitempty"`
	ProjectType  ProjectType  `json:"project_type,omitempty"`
}

// QualityScores rates an enhanced prompt. All values are in [0,1].
type QualityScores struct {
	Clarity       float64 `json:"clarity"`
	Specificity   float64 `json:"specificity"`
	Actionability float64 `json:"actionability"`
	Completeness  float64 `json:"completeness"`
	Relevance     float64 `json:"relevance"`
	Overall       float64 `json:"overall"`
}

// ConfidenceScores rates how well the enhancement fits the project. All values are in [0,1].
type ConfidenceScores struct {
	Overall           float64 `json:"overall"`
	ContextRelevance  float64 `json:"context_relevance"`
	FrameworkAccuracy float64 `json:"framework_accuracy"`
	QualityAlignment  float64 `json:"quality_alignment"`
	ProjectFit        float64 `json:"project_fit"`
}

// Improvement is one discrete change the AI pass made.
type Improvement struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Before      string `json:"before"`
	After       string `json:"after"`
}

// AIEnhancementResult is the output of the optional AI pass.
type AIEnhancementResult struct {
	EnhancedPrompt  string           `json:"enhanced_prompt"`
	Quality         QualityScores    `json:"quality"`
	Confidence      ConfidenceScores `json:"confidence"`
	Improvements    []Improvement    `json:"improvements"`
	Recommendations []string         `json:"recommendations"`
	Cost            float64          `json:"cost"`
	ProcessingTime  time.Duration    `json:"processing_time"`
}

// Task is a top-level unit of a breakdown.
type Task struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

// Subtask belongs to one Task.
type Subtask struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
}

// Dependency says TaskID cannot start before DependsOn is done.
type Dependency struct {
	TaskID    string `json:"task_id"`
	DependsOn string `json:"depends_on"`
}

// Breakdown is a task decomposition of a prompt.
type Breakdown struct {
	MainTasks    []Task       `json:"main_tasks"`
	Subtasks     []Subtask    `json:"subtasks"`
	Dependencies []Dependency `json:"dependencies"`
}

// Todo is a flat checklist item derived from a breakdown.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// FrameworkDoc is curated documentation for one library.
type FrameworkDoc struct {
	Library   string `json:"library"`
	LibraryID string `json:"library_id"`
	Content   string `json:"content"`
}

// ContextUsed lists the fragments that made it into the enhanced prompt.
// Every field serializes as an array, never null.
type ContextUsed struct {
	RepoFacts     []string `json:"repo_facts"`
	CodeSnippets  []string `json:"code_snippets"`
	FrameworkDocs []string `json:"framework_docs"`
	ProjectDocs   []string `json:"project_docs"`
}

// EmptyContextUsed returns a ContextUsed with non-nil empty slices.
func EmptyContextUsed() ContextUsed {
	return ContextUsed{
		RepoFacts:     []string{},
		CodeSnippets:  []string{},
		FrameworkDocs: []string{},
		ProjectDocs:   []string{},
	}
}

// Metrics describes how a response was produced.
type Metrics struct {
	ResponseTimeMs       int64    `json:"response_time_ms"`
	QualityScore         float64  `json:"quality_score"`
	ConfidenceScore      float64  `json:"confidence_score"`
	TokenRatio           float64  `json:"token_ratio"` // approximate, chars/4 on both sides
	FrameworksDetected   []string `json:"frameworks_detected"`
	AIEnhancementEnabled bool     `json:"ai_enhancement_enabled"`
	Cost                 float64  `json:"cost"`
}

// EnhancedResponse is the result of one Enhance call.
type EnhancedResponse struct {
	Success            bool                     `json:"success"`
	EnhancedPrompt     string                   `json:"enhanced_prompt"`
	ContextUsed        ContextUsed              `json:"context_used"`
	Breakdown          *Breakdown               `json:"breakdown,omitempty"`
	Todos              []Todo                   `json:"todos,omitempty"`
	FrameworkDetection FrameworkDetectionResult `json:"framework_detection"`
	Strategy           *EnhancementStrategy     `json:"strategy,omitempty"`
	Recommendations    []string                 `json:"recommendations,omitempty"`
	CacheHit           bool                     `json:"cache_hit"`
	RequestID          string                   `json:"request_id,omitempty"`
	Metrics            Metrics                  `json:"metrics"`
}

// Hints are optional caller-supplied request details.
type Hints struct {
	File      string `json:"file,omitempty"`
	Framework string `json:"framework,omitempty"`
	Style     string `json:"style,omitempty"`
}
