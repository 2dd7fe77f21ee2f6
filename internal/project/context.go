// Package project reads the local project an enhancement request is about.
//
// It locates the project root, summarizes its manifests into repo facts and finds
// source files relevant to a prompt. All file access goes through an afero.Fs so the
// analyzer runs unchanged against an in-memory filesystem in tests.
//
// Root detection walks up from the start directory:
//  1. A .localmcp directory anywhere above wins outright.
//  2. Otherwise the nearest language manifest (go.mod, package.json, ...).
//  3. Otherwise the nearest .git directory.
package project

import "path/filepath"

// MarkerType is the kind of file or directory that anchored a project root.
type MarkerType int

const (
	MarkerNone MarkerType = iota
	MarkerLocalMCP
	MarkerGoMod
	MarkerPackageJSON
	MarkerCargoToml
	MarkerPomXML
	MarkerPyProjectToml
	MarkerGit
)

func (m MarkerType) String() string {
	switch m {
	case MarkerNone:
		return "none"
	case MarkerLocalMCP:
		return ".localmcp"
	case MarkerGoMod:
		return "go.mod"
	case MarkerPackageJSON:
		return "package.json"
	case MarkerCargoToml:
		return "Cargo.toml"
	case MarkerPomXML:
		return "pom.xml"
	case MarkerPyProjectToml:
		return "pyproject.toml"
	case MarkerGit:
		return ".git"
	default:
		return "unknown"
	}
}

// IsLanguageManifest reports whether m is a package manifest rather than a directory marker.
func (m MarkerType) IsLanguageManifest() bool {
	switch m {
	case MarkerGoMod, MarkerPackageJSON, MarkerCargoToml, MarkerPomXML, MarkerPyProjectToml:
		return true
	default:
		return false
	}
}

// Root is a detected project boundary.
type Root struct {
	// Path is the absolute project root.
	Path string
	// Marker is what anchored Path.
	Marker MarkerType
	// GitRoot is the nearest enclosing repository, or "" outside git.
	GitRoot string
	// IsMonorepo is true when the project sits below its repository root.
	IsMonorepo bool
}

// RelativeGitPath returns Path relative to GitRoot, or "." when they coincide or either is unknown.
func (r *Root) RelativeGitPath() string {
	if r.GitRoot == "" || r.Path == "" || r.GitRoot == r.Path {
		return "."
	}
	rel, err := filepath.Rel(r.GitRoot, r.Path)
	if err != nil || rel == "" {
		return "."
	}
	return filepath.ToSlash(rel)
}
