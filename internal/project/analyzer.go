package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// Fact prefixes. Other packages parse dependency facts back with DependenciesFromFacts.
const (
	FactProject      = "Project: "
	FactLanguage     = "Language: "
	FactWorkspace    = "Workspace: "
	FactDependencies = "Dependencies: "
	FactScripts      = "Scripts: "
	FactDocs         = "Documentation: "
	FactRepoPath     = "Repository path: "
)

const maxDependenciesPerFact = 20

var readmeNames = []string{"README.md", "README.rst", "README.txt", "README"}

// Analyzer implements enhance.ProjectAnalyzer over a project directory.
type Analyzer struct {
	fs          afero.Fs
	root        string
	repoPath    string // root relative to its git repository, set for monorepo packages
	maxSnippets int
	maxFiles    int
	maxFileSize int64
}

// NewAnalyzer creates an analyzer for the project at root.
func NewAnalyzer(fs afero.Fs, root string) *Analyzer {
	return &Analyzer{
		fs:          fs,
		root:        filepath.Clean(root),
		maxSnippets: defaultMaxSnippets,
		maxFiles:    defaultMaxFiles,
		maxFileSize: defaultMaxFileSize,
	}
}

// NewOsAnalyzer detects the project root above start on the real filesystem. When no
// marker is found, start itself is analyzed.
func NewOsAnalyzer(start string) (*Analyzer, error) {
	fs := afero.NewOsFs()
	root, err := FindRoot(fs, start)
	switch {
	case errors.Is(err, ErrNoProjectFound):
		abs, absErr := filepath.Abs(start)
		if absErr != nil {
			return nil, absErr
		}
		slog.Debug("no project marker found, analyzing start directory", "dir", abs)
		return NewAnalyzer(fs, abs), nil
	case err != nil:
		return nil, err
	}
	slog.Debug("project root detected", "root", root.Path, "marker", root.Marker, "git_root", root.GitRoot)
	a := NewAnalyzer(fs, root.Path)
	if root.IsMonorepo {
		a.repoPath = root.RelativeGitPath()
	}
	return a, nil
}

// Root returns the analyzed directory.
func (a *Analyzer) Root() string {
	return a.root
}

// WithMaxSnippets bounds FindRelevantCodeSnippets.
func (a *Analyzer) WithMaxSnippets(n int) *Analyzer {
	if n > 0 {
		a.maxSnippets = n
	}
	return a
}

func (a *Analyzer) checkRoot() error {
	ok, err := afero.DirExists(a.fs, a.root)
	if err != nil {
		return fmt.Errorf("stat %s: %w: %v", a.root, enhance.ErrContextUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%s is not a directory: %w", a.root, enhance.ErrContextUnavailable)
	}
	return nil
}

// AnalyzeProject summarizes the project into short facts: name, languages, workspace
// shape, dependencies per manifest, scripts and top-level documentation.
func (a *Analyzer) AnalyzeProject(ctx context.Context) ([]string, error) {
	if err := a.checkRoot(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifests, errs := ReadManifests(a.fs, a.root)
	for _, err := range errs {
		slog.Warn("skipping unreadable manifest", "root", a.root, "error", err)
	}
	ws := DetectWorkspace(a.fs, a.root)

	facts := []string{FactProject + projectName(manifests, ws)}
	for _, lang := range languages(manifests) {
		facts = append(facts, FactLanguage+lang)
	}
	switch {
	case ws.Type == WorkspaceTypeSingle:
		facts = append(facts, FactWorkspace+ws.Type.String())
	case ws.IsMultiRepo():
		facts = append(facts, fmt.Sprintf("%s%s (%d independent projects: %s)", FactWorkspace, ws.Type, len(ws.Services), strings.Join(ws.Services, ", ")))
	default:
		facts = append(facts, fmt.Sprintf("%s%s (%d packages: %s)", FactWorkspace, ws.Type, len(ws.Services), strings.Join(ws.Services, ", ")))
	}
	if a.repoPath != "" {
		facts = append(facts, FactRepoPath+a.repoPath)
	}
	for _, m := range manifests {
		if len(m.Dependencies) == 0 {
			continue
		}
		deps := m.Dependencies
		if len(deps) > maxDependenciesPerFact {
			deps = deps[:maxDependenciesPerFact]
		}
		facts = append(facts, fmt.Sprintf("%s%s (%s)", FactDependencies, strings.Join(deps, ", "), m.File))
	}
	for _, m := range manifests {
		if len(m.Scripts) > 0 {
			facts = append(facts, FactScripts+strings.Join(m.Scripts, ", "))
		}
	}
	for _, name := range readmeNames {
		if hasMarker(a.fs, a.root, name) {
			facts = append(facts, FactDocs+name)
			break
		}
	}
	return facts, nil
}

func projectName(manifests []Manifest, ws WorkspaceInfo) string {
	for _, m := range manifests {
		if m.Name != "" {
			return m.Name
		}
	}
	return ws.Name
}

func languages(manifests []Manifest) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range manifests {
		if m.Language == "" || seen[m.Language] {
			continue
		}
		seen[m.Language] = true
		lang := displayLanguage(m.Language)
		if m.Version != "" {
			lang += " " + m.Version
		}
		out = append(out, lang)
	}
	return out
}

func displayLanguage(lang string) string {
	switch lang {
	case "go":
		return "Go"
	case "javascript":
		return "JavaScript"
	case "typescript":
		return "TypeScript"
	case "rust":
		return "Rust"
	case "python":
		return "Python"
	default:
		return lang
	}
}

// DependenciesFromFacts returns every dependency named by a Dependencies fact.
func DependenciesFromFacts(facts []string) []string {
	var deps []string
	for _, f := range facts {
		rest, ok := strings.CutPrefix(f, FactDependencies)
		if !ok {
			continue
		}
		if i := strings.LastIndex(rest, " ("); i >= 0 {
			rest = rest[:i]
		}
		for _, d := range strings.Split(rest, ",") {
			if d = strings.TrimSpace(d); d != "" {
				deps = append(deps, d)
			}
		}
	}
	return deps
}
