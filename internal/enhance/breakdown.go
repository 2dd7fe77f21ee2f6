package enhance

import (
	"context"
	"fmt"
	"log/slog"
)

// TaskBreakdownAdapter wraps a TaskBreakdownService, bounding its output and deriving todos.
type TaskBreakdownAdapter struct {
	service TaskBreakdownService
}

// NewTaskBreakdownAdapter creates an adapter over service.
func NewTaskBreakdownAdapter(service TaskBreakdownService) *TaskBreakdownAdapter {
	return &TaskBreakdownAdapter{service: service}
}

// Breakdown returns at most maxTasks main tasks plus the subtasks and dependencies that
// still refer to kept tasks. On failure it logs and returns nil, nil.
func (a *TaskBreakdownAdapter) Breakdown(ctx context.Context, prompt, projectID string, maxTasks int) (*Breakdown, []Todo) {
	if a == nil || a.service == nil {
		return nil, nil
	}
	bd, err := a.service.Breakdown(ctx, prompt, projectID)
	if err != nil {
		slog.Warn("task breakdown failed, continuing without it", "error", err)
		return nil, nil
	}
	if bd == nil || len(bd.MainTasks) == 0 {
		return nil, nil
	}

	out := &Breakdown{MainTasks: []Task{}, Subtasks: []Subtask{}, Dependencies: []Dependency{}}
	kept := map[string]bool{}
	for i, t := range bd.MainTasks {
		if maxTasks > 0 && len(out.MainTasks) >= maxTasks {
			break
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("task-%d", i+1)
		}
		kept[t.ID] = true
		out.MainTasks = append(out.MainTasks, t)
	}
	for _, s := range bd.Subtasks {
		if kept[s.ParentID] {
			out.Subtasks = append(out.Subtasks, s)
		}
	}
	for _, d := range bd.Dependencies {
		if kept[d.TaskID] && kept[d.DependsOn] && d.TaskID != d.DependsOn {
			out.Dependencies = append(out.Dependencies, d)
		}
	}

	todos := make([]Todo, 0, len(out.MainTasks))
	for _, t := range out.MainTasks {
		priority := t.Priority
		if priority == "" {
			priority = string(PriorityMedium)
		}
		todos = append(todos, Todo{ID: t.ID, Content: t.Title, Status: "pending", Priority: priority})
	}
	return out, todos
}
