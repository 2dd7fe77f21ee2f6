package enhance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidOptions is wrapped by every ValidationError.
	ErrInvalidOptions = errors.New("invalid enhance options")

	// ErrContextUnavailable is returned by a ProjectAnalyzer that cannot read the project at all.
	ErrContextUnavailable = errors.New("project context unavailable")
)

// MaxPromptLength bounds the raw prompt accepted by Enhance.
const MaxPromptLength = 50_000

var validate = validator.New()

// Options tune one Enhance call.
type Options struct {
	UseCache            bool         `json:"useCache"`
	MaxTokens           int          `json:"maxTokens" validate:"gte=0,lte=200000"`
	EnhancementStrategy StrategyKind `json:"enhancementStrategy,omitempty" validate:"omitempty,oneof=general framework-specific quality-focused project-aware"`
	QualityFocus        []string     `json:"qualityFocus,omitempty" validate:"max=10,dive,required,max=64"`
	ProjectType         ProjectType  `json:"projectType,omitempty" validate:"omitempty,oneof=frontend backend fullstack library cli mobile unknown"`
	IncludeBreakdown    bool         `json:"includeBreakdown"`
	MaxTasks            int          `json:"maxTasks" validate:"gte=0,lte=50"`
	UseAIEnhancement    bool         `json:"useAIEnhancement"`
	ProjectID           string       `json:"projectId,omitempty" validate:"max=128"`
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// ValidationError reports malformed request input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidOptions, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOptions }

// ValidateRequest checks the prompt and options before the pipeline starts.
func ValidateRequest(prompt string, opts Options) error {
	var problems []string
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		problems = append(problems, "prompt is required")
	}
	if len(prompt) > MaxPromptLength {
		problems = append(problems, fmt.Sprintf("prompt exceeds %d characters", MaxPromptLength))
	}

	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate options: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s must not be empty", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
