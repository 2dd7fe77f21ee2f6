package enhance

import "context"

// ProjectAnalyzer supplies project facts and relevant code. "No results" is an empty
// slice, not an error. Returning ErrContextUnavailable from both methods means the
// project cannot be read at all.
type ProjectAnalyzer interface {
	AnalyzeProject(ctx context.Context) ([]string, error)
	FindRelevantCodeSnippets(ctx context.Context, prompt, file string) ([]CodeSnippet, error)
}

// FrameworkDetector identifies frameworks from the prompt and the gathered context.
type FrameworkDetector interface {
	Detect(ctx context.Context, prompt string, pc ProjectContext, hint string) (FrameworkDetectionResult, error)
}

// DocumentationSource resolves library names and fetches their documentation.
type DocumentationSource interface {
	Resolve(ctx context.Context, libraryName string) ([]string, error)
	Fetch(ctx context.Context, libraryID, topic string, tokenBudget int) (string, error)
}

// CurationRequest asks a curator to reduce fetched documentation to what the prompt needs.
type CurationRequest struct {
	Prompt      string
	Library     string
	Content     string
	TokenBudget int
}

// DocumentationCurator filters and compresses fetched documentation.
type DocumentationCurator interface {
	Curate(ctx context.Context, req CurationRequest) (string, error)
}

// EnhancementContext is what the AI pass sees besides the raw prompt.
type EnhancementContext struct {
	AssembledPrompt string
	ProjectContext  ProjectContext
	Frameworks      []string
	Docs            []FrameworkDoc
	Quality         []QualityRequirement
	ProjectType     ProjectType
}

// AIEnhancementClient performs the second-pass AI refinement.
type AIEnhancementClient interface {
	Enhance(ctx context.Context, prompt string, ec EnhancementContext, strategy EnhancementStrategy) (*AIEnhancementResult, error)
}

// TaskBreakdownService decomposes a prompt into tasks.
type TaskBreakdownService interface {
	Breakdown(ctx context.Context, prompt, projectID string) (*Breakdown, error)
}

// QualityInput is evaluated by a QualityPolicy.
type QualityInput struct {
	Prompt      string      `json:"prompt"`
	RepoFacts   []string    `json:"repo_facts"`
	Frameworks  []string    `json:"frameworks"`
	ProjectType ProjectType `json:"project_type"`
	Focus       []string    `json:"focus"`
}

// QualityPolicy contributes quality requirements from declarative rules.
type QualityPolicy interface {
	Evaluate(ctx context.Context, in QualityInput) ([]QualityRequirement, error)
}
