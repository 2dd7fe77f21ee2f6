package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f >= 0 && f <= 1
	})
}

// LLMBreakdownResponse is the JSON a model must return for a task breakdown.
type LLMBreakdownResponse struct {
	Tasks []LLMTaskSchema `json:"tasks" validate:"required,min=1,max=20,dive"`
}

// LLMTaskSchema is one task in a breakdown response.
type LLMTaskSchema struct {
	// Title is a concise action-oriented description
	Title string `json:"title" validate:"required,nonempty,max=200"`

	Description string `json:"description" validate:"required,nonempty,min=10"`

	Priority string `json:"priority" validate:"required,oneof=high medium low"`

	EstimatedHours float64 `json:"estimated_hours" validate:"gte=0,lte=200"`

	Subtasks []string `json:"subtasks,omitempty" validate:"max=10,dive,nonempty"`

	// DependsOn lists task indices (0-based) that must complete first
	DependsOn []int `json:"depends_on,omitempty"`
}

// Validate checks struct rules plus dependency indices.
func (r *LLMBreakdownResponse) Validate() ValidationResult {
	result := validateStruct(r)
	for i, t := range r.Tasks {
		for _, d := range t.DependsOn {
			if d < 0 || d >= len(r.Tasks) || d == i {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   fmt.Sprintf("Tasks[%d].DependsOn", i),
					Tag:     "index",
					Value:   d,
					Message: fmt.Sprintf("depends_on must reference another task index between 0 and %d", len(r.Tasks)-1),
				})
			}
		}
	}
	return result
}

// LLMEnhancementResponse is the JSON a model must return for a prompt enhancement.
type LLMEnhancementResponse struct {
	EnhancedPrompt  string           `json:"enhanced_prompt" validate:"required,nonempty"`
	Quality         LLMQualityScores `json:"quality"`
	Confidence      LLMConfidence    `json:"confidence"`
	Recommendations []string         `json:"recommendations,omitempty" validate:"max=10,dive,nonempty"`
}

// LLMQualityScores are the model's self-assessed quality scores.
type LLMQualityScores struct {
	Clarity       float64 `json:"clarity" validate:"unit"`
	Specificity   float64 `json:"specificity" validate:"unit"`
	Actionability float64 `json:"actionability" validate:"unit"`
	Completeness  float64 `json:"completeness" validate:"unit"`
	Relevance     float64 `json:"relevance" validate:"unit"`
	Overall       float64 `json:"overall" validate:"unit"`
}

// LLMConfidence is the model's confidence that the enhancement fits the project.
type LLMConfidence struct {
	ContextRelevance  float64 `json:"context_relevance" validate:"unit"`
	FrameworkAccuracy float64 `json:"framework_accuracy" validate:"unit"`
	QualityAlignment  float64 `json:"quality_alignment" validate:"unit"`
	ProjectFit        float64 `json:"project_fit" validate:"unit"`
	Overall           float64 `json:"overall" validate:"unit"`
}

// Validate checks the enhancement response against the schema rules.
func (r *LLMEnhancementResponse) Validate() ValidationResult {
	return validateStruct(r)
}

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationResult contains the result of schema validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func validateStruct(s any) ValidationResult {
	err := validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{Errors: []ValidationError{{Field: "", Tag: "invalid", Message: err.Error()}}}
	}
	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: formatValidationError(fe),
		})
	}
	return ValidationResult{Errors: out}
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "nonempty":
		return fmt.Sprintf("%s cannot be empty or whitespace", err.Field())
	case "min", "max":
		bound := "at least"
		if err.Tag() == "max" {
			bound = "at most"
		}
		if err.Kind().String() == "string" {
			return fmt.Sprintf("%s must be %s %s characters", err.Field(), bound, err.Param())
		}
		return fmt.Sprintf("%s must have %s %s items", err.Field(), bound, err.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", err.Field(), err.Tag(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "unit":
		return fmt.Sprintf("%s must be between 0 and 1", err.Field())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}

// ErrorSummary joins all messages into one line.
func (r ValidationResult) ErrorSummary() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
