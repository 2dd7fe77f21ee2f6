/*
Package patterns holds the file and directory tables shared by the project scanner and
the prompt assembler: which directories are never scanned, which files count as source
or documentation, and which fence language a snippet is rendered with.
*/
package patterns

import (
	"path/filepath"
	"strings"
)

// IgnoredDirs are skipped during traversal. Dot-directories are skipped separately.
var IgnoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"target":       true,
	"bin":          true,
	"__pycache__":  true,
	".next":        true,
	".nuxt":        true,
	"coverage":     true,
	"venv":         true,
}

// ShouldIgnoreDir reports whether a directory named name is never scanned.
func ShouldIgnoreDir(name string) bool {
	return IgnoredDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// CodeExtensions are extensions of source files worth quoting in a prompt.
var CodeExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".py": true, ".rs": true, ".java": true, ".kt": true, ".swift": true,
	".rb": true, ".php": true, ".vue": true, ".svelte": true, ".cs": true,
	".css": true, ".scss": true, ".html": true, ".sql": true,
}

// DocExtensions are extensions of prose documentation.
var DocExtensions = map[string]bool{
	".md": true, ".mdx": true, ".rst": true, ".adoc": true,
}

// ProjectMarkers identify a directory as a project of its own.
var ProjectMarkers = []string{
	".git", "package.json", "go.mod", "pom.xml", "build.gradle",
	"requirements.txt", "pyproject.toml", "Cargo.toml", "Dockerfile",
}

// IsCodeFile reports whether path has a source extension.
func IsCodeFile(path string) bool {
	return CodeExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsDocFile reports whether path is project documentation: a prose file or anything under docs/.
func IsDocFile(path string) bool {
	if DocExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return strings.HasPrefix(filepath.ToSlash(path), "docs/")
}

// IsScannable reports whether the snippet finder reads path.
func IsScannable(path string) bool {
	return IsCodeFile(path) || DocExtensions[strings.ToLower(filepath.Ext(path))]
}

var fenceLanguages = map[string]string{
	".go": "go", ".ts": "typescript", ".tsx": "tsx", ".js": "javascript", ".jsx": "jsx",
	".mjs": "javascript", ".py": "python", ".rs": "rust", ".java": "java", ".kt": "kotlin",
	".rb": "ruby", ".php": "php", ".vue": "vue", ".svelte": "svelte", ".cs": "csharp",
	".swift": "swift", ".css": "css", ".scss": "scss", ".html": "html", ".json": "json",
	".yaml": "yaml", ".yml": "yaml", ".sql": "sql", ".sh": "bash",
}

// FenceLanguage returns the markdown fence tag for path, or "".
func FenceLanguage(path string) string {
	return fenceLanguages[strings.ToLower(filepath.Ext(path))]
}
