package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

type factsAnalyzer struct {
	facts []string
	err   error
}

func (a factsAnalyzer) AnalyzeProject(context.Context) ([]string, error) { return a.facts, a.err }
func (a factsAnalyzer) FindRelevantCodeSnippets(context.Context, string, string) ([]enhance.CodeSnippet, error) {
	return nil, nil
}

const breakdownJSON = `{
  "tasks": [
    {
      "title": "Design the schema",
      "description": "Model users and sessions in internal/handler/user.go",
      "priority": "high",
      "estimated_hours": 2,
      "subtasks": ["Draft tables", "Review indexes"]
    },
    {
      "title": "Build the login endpoint",
      "description": "Accept credentials and issue a session cookie",
      "priority": "medium",
      "estimated_hours": 4,
      "depends_on": [0]
    }
  ]
}`

func TestBreakdownService(t *testing.T) {
	m := &scriptedModel{replies: []reply{{content: breakdownJSON}}}
	svc := NewBreakdownService(NewGeneratorWithModel(m, GeneratorConfig{RetryDelay: time.Millisecond})).
		WithProjectContext(factsAnalyzer{facts: []string{"Project: demo", "Language: Go"}}).
		WithPathCorrector(NewPathCorrector(projectFS(t), "/proj"))

	bd, err := svc.Breakdown(context.Background(), "add login", "demo-id")
	require.NoError(t, err)

	assert.Equal(t, []enhance.Task{
		{ID: "task-1", Title: "Design the schema", Description: "Model users and sessions in internal/handlers/user.go", Priority: "high", EstimatedHours: 2},
		{ID: "task-2", Title: "Build the login endpoint", Description: "Accept credentials and issue a session cookie", Priority: "medium", EstimatedHours: 4},
	}, bd.MainTasks)
	assert.Equal(t, []enhance.Subtask{
		{ID: "task-1.1", ParentID: "task-1", Title: "Draft tables"},
		{ID: "task-1.2", ParentID: "task-1", Title: "Review indexes"},
	}, bd.Subtasks)
	assert.Equal(t, []enhance.Dependency{{TaskID: "task-2", DependsOn: "task-1"}}, bd.Dependencies)

	require.Len(t, m.prompts, 1)
	assert.Contains(t, m.prompts[0], "add login")
	assert.Contains(t, m.prompts[0], "PROJECT: demo-id")
	assert.Contains(t, m.prompts[0], "Language: Go")
}

func TestBreakdownService_Failures(t *testing.T) {
	m := &scriptedModel{replies: []reply{{content: `{"tasks": []}`}}}
	svc := NewBreakdownService(NewGeneratorWithModel(m, GeneratorConfig{RetryDelay: time.Millisecond})).
		WithProjectContext(factsAnalyzer{err: errors.New("unreadable")})

	_, err := svc.Breakdown(context.Background(), "add login", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate breakdown")
	assert.NotContains(t, m.prompts[0], "PROJECT:")
	assert.NotContains(t, m.prompts[0], "PROJECT FACTS")
}
