/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/logger"
	"github.com/wtthornton/LocalMCP/internal/ui"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [prompt...]",
	Short: "Enhance a prompt with project context",
	Long: `Enhance a coding request with your project's context.

The prompt is taken from the arguments, or from stdin when no arguments are given.

Examples:
  localmcp enhance "add a login form"
  localmcp enhance --framework react --breakdown "build a settings page"
  git diff | localmcp enhance --json`,
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	f := enhanceCmd.Flags()
	f.String("file", "", "file the request is about")
	f.String("framework", "", "framework hint, such as react or django")
	f.String("style", "", "style hint, such as functional or tailwind")
	f.Bool("no-cache", false, "skip the enhancement cache")
	f.Int("max-tokens", 0, "token budget for the enhanced prompt (0 = unbounded)")
	f.String("strategy", "", "force a strategy: general, framework-specific, quality-focused, project-aware")
	f.StringSlice("quality-focus", nil, "quality areas to emphasize, such as security,performance")
	f.String("project-type", "", "project type: frontend, backend, fullstack, library, cli, mobile")
	f.Bool("breakdown", false, "include a task breakdown")
	f.Int("max-tasks", 0, "maximum tasks in the breakdown")
	f.Bool("ai", false, "rewrite the prompt with the configured model (default from ai.enabled)")
	f.String("project-id", "", "project identifier passed to the breakdown")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}

	svc, _, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	hints, opts, err := enhanceOptionsFromFlags(cmd, svc.AIEnabled)
	if err != nil {
		return err
	}

	logger.SetLastInput(prompt)
	resp, err := ui.RunWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Enhancing prompt",
		func(ctx context.Context) (*enhance.EnhancedResponse, error) {
			return svc.Orchestrator.Enhance(ctx, prompt, hints, opts)
		})
	trackCommand(svc.Telemetry, "enhance", err == nil)
	if err != nil {
		var verr *enhance.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid options:\n  %s", strings.Join(verr.Problems, "\n  "))
		}
		return fmt.Errorf("enhance: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, resp)
	}
	return ui.RenderResponse(out, resp, ui.RenderOptions{Styled: ui.IsTerminal(out), Width: ui.TerminalWidth(out)})
}

// readPrompt joins the arguments, or reads stdin when there are none.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); prompt == "" && (!ok || !ui.IsTerminal(f)) {
		data, err := io.ReadAll(io.LimitReader(in, enhance.MaxPromptLength+1))
		if err != nil {
			return "", fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return "", errors.New("a prompt is required: localmcp enhance \"your request\"")
	}
	return prompt, nil
}

func enhanceOptionsFromFlags(cmd *cobra.Command, aiDefault bool) (enhance.Hints, enhance.Options, error) {
	f := cmd.Flags()
	var hints enhance.Hints
	hints.File, _ = f.GetString("file")
	hints.Framework, _ = f.GetString("framework")
	hints.Style, _ = f.GetString("style")

	opts := enhance.DefaultOptions()
	noCache, _ := f.GetBool("no-cache")
	opts.UseCache = !noCache
	opts.MaxTokens, _ = f.GetInt("max-tokens")
	strategy, _ := f.GetString("strategy")
	opts.EnhancementStrategy = enhance.StrategyKind(strings.TrimSpace(strategy))
	opts.QualityFocus, _ = f.GetStringSlice("quality-focus")
	projectType, _ := f.GetString("project-type")
	opts.ProjectType = enhance.ProjectType(strings.TrimSpace(projectType))
	opts.IncludeBreakdown, _ = f.GetBool("breakdown")
	opts.MaxTasks, _ = f.GetInt("max-tasks")
	opts.ProjectID, _ = f.GetString("project-id")

	opts.UseAIEnhancement = aiDefault
	if f.Changed("ai") {
		opts.UseAIEnhancement, _ = f.GetBool("ai")
		if opts.UseAIEnhancement && !aiDefault {
			return hints, opts, errors.New("--ai needs an LLM provider: set llm.provider and its API key")
		}
	}
	return hints, opts, nil
}
