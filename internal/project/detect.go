package project

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNoProjectFound is returned when no marker exists between the start directory and
// the filesystem root.
var ErrNoProjectFound = errors.New("no project root found")

// markerFiles is checked in order within one directory.
var markerFiles = []struct {
	name   string
	marker MarkerType
}{
	{".localmcp", MarkerLocalMCP},
	{"go.mod", MarkerGoMod},
	{"package.json", MarkerPackageJSON},
	{"Cargo.toml", MarkerCargoToml},
	{"pom.xml", MarkerPomXML},
	{"pyproject.toml", MarkerPyProjectToml},
	{".git", MarkerGit},
}

// FindRoot walks up from start and returns the project root.
func FindRoot(fs afero.Fs, start string) (*Root, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	var manifest, git *Root
	for {
		for _, m := range markerFiles {
			if ok, _ := afero.Exists(fs, filepath.Join(dir, m.name)); !ok {
				continue
			}
			switch {
			case m.marker == MarkerLocalMCP:
				root := &Root{Path: dir, Marker: MarkerLocalMCP}
				root.GitRoot = findGitRoot(fs, dir, git)
				root.IsMonorepo = root.GitRoot != "" && root.GitRoot != dir
				return root, nil
			case m.marker.IsLanguageManifest() && manifest == nil:
				manifest = &Root{Path: dir, Marker: m.marker}
			case m.marker == MarkerGit && git == nil:
				git = &Root{Path: dir, Marker: MarkerGit}
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var root *Root
	switch {
	case manifest != nil:
		root = manifest
	case git != nil:
		root = git
	default:
		return nil, ErrNoProjectFound
	}
	if git != nil {
		root.GitRoot = git.Path
		root.IsMonorepo = git.Path != root.Path
	}
	return root, nil
}

// findGitRoot returns the repository enclosing dir. found is the nearest .git seen below dir.
func findGitRoot(fs afero.Fs, dir string, found *Root) string {
	if found != nil {
		return found.Path
	}
	for {
		if ok, _ := afero.Exists(fs, filepath.Join(dir, ".git")); ok {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
