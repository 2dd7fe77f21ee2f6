package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPoliciesDir is the policies directory inside .localmcp.
const DefaultPoliciesDir = "policies"

// PolicyFile is a loaded Rego source file.
type PolicyFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// IsTest reports whether the file holds Rego tests rather than rules.
func (p *PolicyFile) IsTest() bool {
	return strings.HasSuffix(p.Path, "_test.rego")
}

// Loader reads .rego files from a directory tree.
type Loader struct {
	fs      afero.Fs
	baseDir string
}

// NewLoader creates a loader for baseDir on fs.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{fs: fs, baseDir: baseDir}
}

// LoadAll returns every .rego file under the directory, sorted by path. A missing
// directory means no policies.
func (l *Loader) LoadAll() ([]*PolicyFile, error) {
	if l.baseDir == "" {
		return nil, nil
	}
	exists, err := afero.DirExists(l.fs, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("check policies directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	var policies []*PolicyFile
	err = afero.Walk(l.fs, l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}
		content, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("read policy %s: %w", path, err)
		}
		policies = append(policies, &PolicyFile{
			Path:    path,
			Name:    strings.TrimSuffix(filepath.Base(path), ".rego"),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk policies directory: %w", err)
	}

	sort.Slice(policies, func(i, j int) bool { return policies[i].Path < policies[j].Path })
	return policies, nil
}

// GetPoliciesPath returns the policies directory of a project.
func GetPoliciesPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".localmcp", DefaultPoliciesDir)
}
