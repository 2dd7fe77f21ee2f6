package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// BreakdownService decomposes a prompt into tasks with a chat model. It implements
// enhance.TaskBreakdownService.
type BreakdownService struct {
	gen      *Generator
	analyzer enhance.ProjectAnalyzer
	paths    *PathCorrector
}

// NewBreakdownService creates a breakdown service on top of gen.
func NewBreakdownService(gen *Generator) *BreakdownService {
	return &BreakdownService{gen: gen}
}

// WithProjectContext adds the analyzer's repo facts to every breakdown prompt.
func (s *BreakdownService) WithProjectContext(a enhance.ProjectAnalyzer) *BreakdownService {
	s.analyzer = a
	return s
}

// WithPathCorrector fixes file paths in generated tasks against the project.
func (s *BreakdownService) WithPathCorrector(pc *PathCorrector) *BreakdownService {
	s.paths = pc
	return s
}

// Breakdown asks the model for tasks and converts them to the enhance model. Task IDs
// are task-1, task-2, ...; subtask IDs extend their parent's, as in task-1.2.
func (s *BreakdownService) Breakdown(ctx context.Context, prompt, projectID string) (*enhance.Breakdown, error) {
	var facts []string
	if s.analyzer != nil {
		f, err := s.analyzer.AnalyzeProject(ctx)
		if err != nil {
			slog.Debug("breakdown without project facts", "error", err)
		}
		facts = f
	}

	res, err := Generate(ctx, s.gen, breakdownSystemPrompt, breakdownPromptTemplate,
		map[string]any{
			"Prompt":    prompt,
			"ProjectID": projectID,
			"Facts":     strings.Join(facts, "\n"),
		},
		func(r *LLMBreakdownResponse) ValidationResult { return r.Validate() },
	)
	if err != nil {
		return nil, fmt.Errorf("generate breakdown: %w", err)
	}

	if corrections := s.paths.Correct(&res.Result); len(corrections) > 0 {
		slog.Debug("corrected file paths in breakdown", "count", len(corrections))
	}
	slog.Debug("breakdown generated", "tasks", len(res.Result.Tasks), "attempts", res.Attempts, "cost", res.Cost)
	return toBreakdown(res.Result), nil
}

func toBreakdown(r LLMBreakdownResponse) *enhance.Breakdown {
	bd := &enhance.Breakdown{
		MainTasks:    make([]enhance.Task, 0, len(r.Tasks)),
		Subtasks:     []enhance.Subtask{},
		Dependencies: []enhance.Dependency{},
	}
	taskID := func(i int) string { return fmt.Sprintf("task-%d", i+1) }

	for i, t := range r.Tasks {
		id := taskID(i)
		bd.MainTasks = append(bd.MainTasks, enhance.Task{
			ID:             id,
			Title:          strings.TrimSpace(t.Title),
			Description:    strings.TrimSpace(t.Description),
			Priority:       strings.ToLower(t.Priority),
			EstimatedHours: t.EstimatedHours,
		})
		for j, st := range t.Subtasks {
			bd.Subtasks = append(bd.Subtasks, enhance.Subtask{
				ID:       fmt.Sprintf("%s.%d", id, j+1),
				ParentID: id,
				Title:    strings.TrimSpace(st),
			})
		}
		for _, d := range t.DependsOn {
			bd.Dependencies = append(bd.Dependencies, enhance.Dependency{TaskID: id, DependsOn: taskID(d)})
		}
	}
	return bd
}

const breakdownSystemPrompt = `You are a senior engineer who splits development requests into small, ordered tasks. You answer with JSON only.`

const breakdownPromptTemplate = `REQUEST:
{{.Prompt}}
{{if .ProjectID}}
PROJECT: {{.ProjectID}}
{{end}}{{if .Facts}}
PROJECT FACTS:
{{.Facts}}
{{end}}{{if .ValidationErrors}}
{{.ValidationErrors}}
{{end}}
Return JSON with this schema:

{
  "tasks": [
    {
      "title": "string (max 200 chars, action-oriented)",
      "description": "string (min 10 chars)",
      "priority": "high|medium|low",
      "estimated_hours": number,
      "subtasks": ["optional short steps, at most 10"],
      "depends_on": [0-based indices of tasks that must finish first]
    }
  ]
}

RULES:
- Between 1 and 20 tasks, in the order they should be done
- A task never depends on itself
- Name files with paths relative to the project root
- Output ONLY valid JSON`
