package project

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/patterns"
)

// WorkspaceType is the shape of the repository around a project root.
type WorkspaceType int

const (
	// WorkspaceTypeSingle is one project at the root.
	WorkspaceTypeSingle WorkspaceType = iota
	// WorkspaceTypeMonorepo is a git root holding several packages.
	WorkspaceTypeMonorepo
	// WorkspaceTypeMultiRepo is a plain directory holding several independent projects.
	WorkspaceTypeMultiRepo
)

func (t WorkspaceType) String() string {
	switch t {
	case WorkspaceTypeSingle:
		return "single"
	case WorkspaceTypeMonorepo:
		return "monorepo"
	case WorkspaceTypeMultiRepo:
		return "multi-repo"
	default:
		return "unknown"
	}
}

// WorkspaceInfo describes the workspace rooted at RootPath.
type WorkspaceInfo struct {
	Type     WorkspaceType
	RootPath string
	Services []string // subdirectories that are projects of their own, relative to RootPath
	Name     string
}

// DetectWorkspace classifies root by looking one level down for nested projects.
// Conventional package directories (packages/, apps/, services/) are searched one level deeper.
func DetectWorkspace(fs afero.Fs, root string) WorkspaceInfo {
	info := WorkspaceInfo{RootPath: root, Name: filepath.Base(root)}

	nested := findNestedProjects(fs, root, "")
	for _, group := range []string{"packages", "apps", "services"} {
		nested = append(nested, findNestedProjects(fs, filepath.Join(root, group), group)...)
	}

	switch {
	case len(nested) == 0:
		info.Type = WorkspaceTypeSingle
		info.Services = []string{"."}
	case hasMarker(fs, root, ".git"):
		info.Type = WorkspaceTypeMonorepo
		info.Services = nested
	default:
		info.Type = WorkspaceTypeMultiRepo
		info.Services = nested
	}
	return info
}

// IsMultiRepo reports whether the workspace holds independent projects.
func (w WorkspaceInfo) IsMultiRepo() bool {
	return w.Type == WorkspaceTypeMultiRepo
}

func findNestedProjects(fs afero.Fs, dir, prefix string) []string {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	var projects []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || patterns.ShouldIgnoreDir(name) {
			continue
		}
		if isProjectDir(fs, filepath.Join(dir, name)) {
			projects = append(projects, filepath.ToSlash(filepath.Join(prefix, name)))
		}
	}
	return projects
}

func isProjectDir(fs afero.Fs, dir string) bool {
	for _, m := range patterns.ProjectMarkers {
		if hasMarker(fs, dir, m) {
			return true
		}
	}
	return false
}

func hasMarker(fs afero.Fs, dir, name string) bool {
	ok, _ := afero.Exists(fs, filepath.Join(dir, name))
	return ok
}
