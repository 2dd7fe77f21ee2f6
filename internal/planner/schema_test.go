package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTask() LLMTaskSchema {
	return LLMTaskSchema{
		Title:          "Add login form",
		Description:    "Render email and password fields with inline errors",
		Priority:       "high",
		EstimatedHours: 3,
		Subtasks:       []string{"Build the form", "Wire validation"},
	}
}

func tags(r ValidationResult) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Tag)
	}
	return out
}

func TestBreakdownSchema(t *testing.T) {
	second := validTask()
	second.DependsOn = []int{0}
	assert.True(t, (&LLMBreakdownResponse{Tasks: []LLMTaskSchema{validTask(), second}}).Validate().Valid)

	tests := []struct {
		name   string
		mutate func(*LLMTaskSchema)
		tag    string
	}{
		{"blank title", func(t *LLMTaskSchema) { t.Title = "   " }, "nonempty"},
		{"short description", func(t *LLMTaskSchema) { t.Description = "todo" }, "min"},
		{"unknown priority", func(t *LLMTaskSchema) { t.Priority = "urgent" }, "oneof"},
		{"negative hours", func(t *LLMTaskSchema) { t.EstimatedHours = -1 }, "gte"},
		{"empty subtask", func(t *LLMTaskSchema) { t.Subtasks = []string{""} }, "nonempty"},
		{"self dependency", func(t *LLMTaskSchema) { t.DependsOn = []int{0} }, "index"},
		{"dangling dependency", func(t *LLMTaskSchema) { t.DependsOn = []int{4} }, "index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			res := (&LLMBreakdownResponse{Tasks: []LLMTaskSchema{task}}).Validate()
			assert.False(t, res.Valid)
			assert.Contains(t, tags(res), tt.tag)
			assert.NotEmpty(t, res.ErrorSummary())
		})
	}

	res := (&LLMBreakdownResponse{}).Validate()
	assert.False(t, res.Valid)
	assert.Contains(t, tags(res), "required")
}

func TestEnhancementSchema(t *testing.T) {
	ok := LLMEnhancementResponse{
		EnhancedPrompt: "Create a React button component using the project's Tailwind tokens.",
		Quality:        LLMQualityScores{Clarity: 0.9, Overall: 0.8},
		Confidence:     LLMConfidence{ProjectFit: 1},
	}
	assert.True(t, ok.Validate().Valid)

	bad := ok
	bad.EnhancedPrompt = ""
	bad.Quality.Clarity = 1.5
	res := bad.Validate()
	assert.False(t, res.Valid)
	assert.ElementsMatch(t, []string{"required", "unit"}, tags(res))
	assert.Equal(t, "", ValidationResult{Valid: true}.ErrorSummary())
}
