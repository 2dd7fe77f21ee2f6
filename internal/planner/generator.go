// Package planner turns chat-model output into validated structures. The generator asks
// for JSON, validates it and feeds validation errors back to the model for another try;
// the breakdown service builds task decompositions on top of it.
package planner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/wtthornton/LocalMCP/internal/llm"
	"github.com/wtthornton/LocalMCP/internal/logger"
)

const (
	// MaxGenerationRetries is the maximum number of attempts per generation.
	MaxGenerationRetries = 3

	// RetryDelay is the base delay between attempts.
	RetryDelay = 500 * time.Millisecond

	maxFeedbackChars = 500
)

// ModelFactory builds the chat model on first use.
type ModelFactory func(ctx context.Context, cfg llm.Config) (model.BaseChatModel, error)

// GeneratorConfig configures the structured generator.
type GeneratorConfig struct {
	LLMConfig llm.Config
	// Temperature for generation (0 = deterministic)
	Temperature float32
	// RetryDelay overrides the base delay between attempts.
	RetryDelay time.Duration
}

// Generator produces validated structured output from a chat model. It is safe for
// concurrent use; the model is created once.
type Generator struct {
	cfg          GeneratorConfig
	modelFactory ModelFactory

	mu        sync.Mutex
	chatModel model.BaseChatModel
}

// NewGenerator creates a generator that builds its model from cfg.LLMConfig.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = RetryDelay
	}
	return &Generator{cfg: cfg, modelFactory: llm.NewChatModel}
}

// NewGeneratorWithModel creates a generator around an existing chat model.
func NewGeneratorWithModel(m model.BaseChatModel, cfg GeneratorConfig) *Generator {
	g := NewGenerator(cfg)
	g.chatModel = m
	return g
}

// ModelID is the model used for cost accounting.
func (g *Generator) ModelID() string {
	return g.cfg.LLMConfig.Model
}

func (g *Generator) ensureModel(ctx context.Context) (model.BaseChatModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chatModel != nil {
		return g.chatModel, nil
	}
	m, err := g.modelFactory(ctx, g.cfg.LLMConfig)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	g.chatModel = m
	return m, nil
}

// GenerationResult contains the result of a structured generation. Token counts and
// cost add up every attempt.
type GenerationResult[T any] struct {
	Result       T
	RawOutput    string
	Attempts     int
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Generate renders promptTemplate with input, asks the model for JSON and validates the
// parsed value. Parse and validation errors are fed back for up to MaxGenerationRetries
// attempts. system may be empty.
func Generate[T any](
	ctx context.Context,
	g *Generator,
	system, promptTemplate string,
	input map[string]any,
	validate func(*T) ValidationResult,
) (*GenerationResult[T], error) {
	start := time.Now()

	chatModel, err := g.ensureModel(ctx)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("prompt").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	out := &GenerationResult[T]{}
	var (
		lastErr  error
		feedback string
	)
	for attempt := 1; attempt <= MaxGenerationRetries; attempt++ {
		out.Attempts = attempt
		if attempt > 1 {
			if err := sleepCtx(ctx, g.cfg.RetryDelay*time.Duration(attempt-1)); err != nil {
				return nil, err
			}
		}

		promptInput := copyMap(input)
		if feedback != "" {
			promptInput["ValidationErrors"] = feedback
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, promptInput); err != nil {
			return nil, fmt.Errorf("execute template: %w", err)
		}

		messages := make([]*schema.Message, 0, 2)
		if system != "" {
			messages = append(messages, schema.SystemMessage(system))
		}
		messages = append(messages, schema.UserMessage(buf.String()))
		logger.SetLastPrompt(buf.String())

		resp, err := chatModel.Generate(ctx, messages, model.WithTemperature(g.cfg.Temperature))
		if err != nil {
			lastErr = fmt.Errorf("LLM generate: %w", err)
			if isTransientError(err) && ctx.Err() == nil {
				slog.Debug("transient model error, retrying", "attempt", attempt, "error", err)
				continue
			}
			return nil, lastErr
		}
		if resp == nil {
			lastErr = fmt.Errorf("LLM generate: empty response")
			continue
		}
		out.add(g.usage(buf.String(), resp))
		out.RawOutput = resp.Content

		result, err := llm.ParseJSONResponse[T](resp.Content)
		if err != nil {
			lastErr = fmt.Errorf("parse JSON (attempt %d): %w", attempt, err)
			feedback = formatErrorFeedback("JSON Parse Error", err.Error(), resp.Content)
			continue
		}

		if v := validate(&result); !v.Valid {
			lastErr = fmt.Errorf("validation failed (attempt %d): %s", attempt, v.ErrorSummary())
			feedback = formatValidationFeedback(v)
			continue
		}

		out.Result = result
		out.Duration = time.Since(start)
		return out, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", MaxGenerationRetries, lastErr)
}

// usage returns token counts and cost for one model call. Providers that omit usage
// are charged by estimate.
func (g *Generator) usage(prompt string, resp *schema.Message) (in, out int, cost float64) {
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		in = resp.ResponseMeta.Usage.PromptTokens
		out = resp.ResponseMeta.Usage.CompletionTokens
	}
	if in == 0 && out == 0 {
		in = llm.EstimateTokens(prompt)
		out = llm.EstimateTokens(resp.Content)
	}
	return in, out, llm.CalculateCost(g.ModelID(), in, out)
}

func (r *GenerationResult[T]) add(in, out int, cost float64) {
	r.InputTokens += in
	r.OutputTokens += out
	r.Cost += cost
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// formatErrorFeedback creates a prompt section for error feedback.
func formatErrorFeedback(errorType, errorMsg, rawOutput string) string {
	truncated := rawOutput
	if len(truncated) > maxFeedbackChars {
		truncated = truncated[:maxFeedbackChars] + "... [truncated]"
	}

	return fmt.Sprintf(`
PREVIOUS ATTEMPT FAILED - PLEASE FIX

Error Type: %s
Error: %s

Your previous output (which failed):
%s

Please ensure your response is valid JSON matching the required schema.
`, errorType, errorMsg, truncated)
}

// formatValidationFeedback lists each failed field for the next attempt.
func formatValidationFeedback(result ValidationResult) string {
	var sb strings.Builder
	sb.WriteString("\nPREVIOUS ATTEMPT FAILED - SCHEMA VALIDATION ERRORS\n\n")
	sb.WriteString("Please fix the following issues:\n")

	for i, e := range result.Errors {
		fmt.Fprintf(&sb, "%d. Field '%s': %s\n", i+1, e.Field, e.Message)
		if e.Value != nil {
			fmt.Fprintf(&sb, "   Current value: %v\n", e.Value)
		}
	}

	sb.WriteString("\nPlease regenerate the response with these issues corrected.\n")
	return sb.String()
}

func copyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	maps.Copy(result, m)
	return result
}

// isTransientError reports rate limits and network errors worth retrying.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"rate limit", "429", "too many requests", "quota exceeded",
		"timeout", "connection", "temporary", "503", "overloaded",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
