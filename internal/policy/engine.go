// Package policy evaluates quality-requirement rules written in Rego. A built-in rule
// set ships with the binary; projects extend it with .rego files of their own.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// DefaultPolicyPackage is the Rego package whose requirements rule is queried.
const DefaultPolicyPackage = "localmcp.quality"

//go:embed default.rego
var defaultPolicy string

//go:embed default_test.rego
var defaultPolicyTests string

// DefaultPolicies returns the built-in rules and their tests.
func DefaultPolicies() []*PolicyFile {
	return []*PolicyFile{
		{Path: "builtin/default.rego", Name: "default", Content: defaultPolicy},
		{Path: "builtin/default_test.rego", Name: "default_test", Content: defaultPolicyTests},
	}
}

// EngineConfig configures NewEngine.
type EngineConfig struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// PoliciesDir holds project policies. Empty means built-ins only.
	PoliciesDir string
	// PolicyPackage defaults to DefaultPolicyPackage.
	PolicyPackage string
	// SkipDefault leaves out the built-in rules.
	SkipDefault bool
}

// Engine implements enhance.QualityPolicy. The query is compiled once; Evaluate is
// safe for concurrent use.
type Engine struct {
	pkg      string
	policies []*PolicyFile
	query    rego.PreparedEvalQuery
}

var _ enhance.QualityPolicy = (*Engine)(nil)

// NewEngine loads policies and prepares the requirements query. Project files that do
// not parse are skipped with a warning so one bad file does not disable the rest.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.PolicyPackage == "" {
		cfg.PolicyPackage = DefaultPolicyPackage
	}

	var policies []*PolicyFile
	if !cfg.SkipDefault {
		for _, p := range DefaultPolicies() {
			if !p.IsTest() {
				policies = append(policies, p)
			}
		}
	}
	loaded, err := NewLoader(cfg.Fs, cfg.PoliciesDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}
	for _, p := range loaded {
		if p.IsTest() {
			continue
		}
		if err := ValidatePolicy(p.Content); err != nil {
			slog.Warn("skipping invalid policy", "path", p.Path, "error", err)
			continue
		}
		policies = append(policies, p)
	}

	opts := []func(*rego.Rego){rego.Query(fmt.Sprintf("data.%s.requirements", cfg.PolicyPackage))}
	for _, p := range policies {
		opts = append(opts, rego.Module(p.Path, p.Content))
	}
	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}

	slog.Debug("policy engine ready", "package", cfg.PolicyPackage, "policies", len(policies))
	return &Engine{pkg: cfg.PolicyPackage, policies: policies, query: query}, nil
}

// PolicyNames lists the loaded rule files.
func (e *Engine) PolicyNames() []string {
	names := make([]string, len(e.policies))
	for i, p := range e.policies {
		names[i] = p.Name
	}
	return names
}

// Evaluate returns the requirements the rules raise for in, sorted by type. Entries
// without a type are dropped; an unknown priority becomes low.
func (e *Engine) Evaluate(ctx context.Context, in enhance.QualityInput) ([]enhance.QualityRequirement, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(toInput(in)))
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", e.pkg, err)
	}

	var out []enhance.QualityRequirement
	for _, result := range rs {
		for _, expr := range result.Expressions {
			items, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					continue
				}
				t, _ := obj["type"].(string)
				if t == "" {
					continue
				}
				p, _ := obj["priority"].(string)
				priority := enhance.Priority(p)
				switch priority {
				case enhance.PriorityHigh, enhance.PriorityMedium, enhance.PriorityLow:
				default:
					priority = enhance.PriorityLow
				}
				out = append(out, enhance.QualityRequirement{Type: t, Priority: priority})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

func toInput(in enhance.QualityInput) map[string]any {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	pt := string(in.ProjectType)
	if pt == "" {
		pt = string(enhance.ProjectUnknown)
	}
	return map[string]any{
		"prompt":       in.Prompt,
		"repo_facts":   nonNil(in.RepoFacts),
		"frameworks":   nonNil(in.Frameworks),
		"project_type": pt,
		"focus":        nonNil(in.Focus),
	}
}

// ValidatePolicy reports Rego syntax errors in content.
func ValidatePolicy(content string) error {
	if _, err := ast.ParseModule("policy.rego", content); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
