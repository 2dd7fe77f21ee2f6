package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/tester"
	"github.com/spf13/afero"
)

const testTimeout = 30 * time.Second

// TestResult is the outcome of one Rego test rule.
type TestResult struct {
	Name     string        `json:"name"`
	Package  string        `json:"package"`
	Passed   bool          `json:"passed"`
	Failed   bool          `json:"failed"`
	Skipped  bool          `json:"skipped"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// TestSummary aggregates a test run.
type TestSummary struct {
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Errored  int           `json:"errored"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration"`
	Results  []*TestResult `json:"results"`
}

// TestRunner runs the test_ rules of the built-in and project policies together, so
// project tests can exercise built-in rules and the other way round.
type TestRunner struct {
	fs          afero.Fs
	policiesDir string
}

// NewTestRunner creates a runner for policiesDir. fs defaults to the OS filesystem.
func NewTestRunner(fs afero.Fs, policiesDir string) *TestRunner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TestRunner{fs: fs, policiesDir: policiesDir}
}

// Run compiles every module and executes its tests.
func (r *TestRunner) Run(ctx context.Context) (*TestSummary, error) {
	start := time.Now()

	files, err := NewLoader(r.fs, r.policiesDir).LoadAll()
	if err != nil {
		return nil, err
	}
	files = append(DefaultPolicies(), files...)

	modules := make(map[string]*ast.Module, len(files))
	for _, f := range files {
		m, err := ast.ParseModule(f.Path, f.Content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Path, err)
		}
		modules[f.Path] = m
	}

	compiler := ast.NewCompiler()
	compiler.Compile(modules)
	if compiler.Failed() {
		msgs := make([]string, 0, len(compiler.Errors))
		for _, e := range compiler.Errors {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("compile policies: %s", strings.Join(msgs, "; "))
	}

	ch, err := tester.NewRunner().
		SetCompiler(compiler).
		SetModules(modules).
		SetTimeout(testTimeout).
		RunTests(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("run tests: %w", err)
	}

	summary := &TestSummary{Results: []*TestResult{}}
	for tr := range ch {
		res := &TestResult{Name: tr.Name, Package: tr.Package, Duration: tr.Duration}
		switch {
		case tr.Skip:
			res.Skipped = true
			summary.Skipped++
		case tr.Error != nil:
			res.Error = tr.Error.Error()
			summary.Errored++
		case tr.Fail:
			res.Failed = true
			summary.Failed++
		default:
			res.Passed = true
			summary.Passed++
		}
		summary.Total++
		summary.Results = append(summary.Results, res)
	}
	summary.Duration = time.Since(start)
	return summary, nil
}

// FormatSummary returns a one-line summary such as "5 tests, 4 passed, 1 failed in 12ms".
func (s *TestSummary) FormatSummary() string {
	if s.Total == 0 {
		return "No tests found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tests, %d passed", s.Total, s.Passed)
	if s.Failed > 0 {
		fmt.Fprintf(&sb, ", %d failed", s.Failed)
	}
	if s.Errored > 0 {
		fmt.Fprintf(&sb, ", %d errored", s.Errored)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(&sb, ", %d skipped", s.Skipped)
	}
	fmt.Fprintf(&sb, " in %s", s.Duration.Round(time.Millisecond))
	return sb.String()
}

// AllPassed reports whether nothing failed or errored.
func (s *TestSummary) AllPassed() bool {
	return s.Failed == 0 && s.Errored == 0
}
