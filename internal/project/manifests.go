package project

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Manifest is the part of a package manifest the analyzer reports.
type Manifest struct {
	File         string
	Name         string
	Language     string
	Version      string // language or toolchain version when the manifest states one
	Dependencies []string
	Scripts      []string
}

type manifestParser struct {
	file  string
	parse func(data []byte) (Manifest, error)
}

var manifestParsers = []manifestParser{
	{"package.json", parsePackageJSON},
	{"go.mod", parseGoMod},
	{"Cargo.toml", parseCargoToml},
	{"pyproject.toml", parsePyProject},
	{"requirements.txt", parseRequirements},
}

// IsManifestFile reports whether name is a manifest the analyzer reads, or a file that
// changes what it reports about one.
func IsManifestFile(name string) bool {
	if name == "tsconfig.json" {
		return true
	}
	for _, p := range manifestParsers {
		if p.file == name {
			return true
		}
	}
	return false
}

// ReadManifests parses every known manifest in dir. Unparseable manifests are skipped
// and reported through the returned error list; one bad file never hides the others.
func ReadManifests(fs afero.Fs, dir string) ([]Manifest, []error) {
	var (
		out  []Manifest
		errs []error
	)
	for _, p := range manifestParsers {
		path := filepath.Join(dir, p.file)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			continue
		}
		m, err := p.parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", p.file, err))
			continue
		}
		m.File = p.file
		if m.Language == "javascript" {
			if ok, _ := afero.Exists(fs, filepath.Join(dir, "tsconfig.json")); ok {
				m.Language = "typescript"
			}
		}
		out = append(out, m)
	}
	return out, errs
}

func parsePackageJSON(data []byte) (Manifest, error) {
	var pkg struct {
		Name            string            `json:"name"`
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
		Engines         map[string]string `json:"engines"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		Name:         pkg.Name,
		Language:     "javascript",
		Version:      pkg.Engines["node"],
		Dependencies: sortedKeys(pkg.Dependencies),
		Scripts:      sortedKeys(pkg.Scripts),
	}
	dev := sortedKeys(pkg.DevDependencies)
	for _, d := range dev {
		if d == "typescript" {
			m.Language = "typescript"
		}
	}
	m.Dependencies = append(m.Dependencies, dev...)
	return m, nil
}

// parseGoMod reads the module path, go directive and direct requirements.
func parseGoMod(data []byte) (Manifest, error) {
	m := Manifest{Language: "go"}
	inRequire := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "//"); i >= 0 {
			if strings.Contains(line[i:], "indirect") {
				continue
			}
			line = strings.TrimSpace(line[:i])
		}
		switch {
		case line == "":
		case inRequire && line == ")":
			inRequire = false
		case inRequire:
			if f := strings.Fields(line); len(f) > 0 {
				m.Dependencies = append(m.Dependencies, f[0])
			}
		case strings.HasPrefix(line, "module "):
			m.Name = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module")), `"`)
		case strings.HasPrefix(line, "go "):
			m.Version = strings.TrimSpace(strings.TrimPrefix(line, "go"))
		case line == "require (":
			inRequire = true
		case strings.HasPrefix(line, "require "):
			if f := strings.Fields(strings.TrimPrefix(line, "require ")); len(f) > 0 {
				m.Dependencies = append(m.Dependencies, f[0])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Manifest{}, err
	}
	if m.Name == "" {
		return Manifest{}, fmt.Errorf("missing module directive")
	}
	return m, nil
}

func parseCargoToml(data []byte) (Manifest, error) {
	var cargo struct {
		Package struct {
			Name        string `toml:"name"`
			RustVersion string `toml:"rust-version"`
		} `toml:"package"`
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return Manifest{}, err
	}
	deps := sortedKeys(cargo.Dependencies)
	deps = append(deps, sortedKeys(cargo.DevDependencies)...)
	return Manifest{
		Name:         cargo.Package.Name,
		Language:     "rust",
		Version:      cargo.Package.RustVersion,
		Dependencies: deps,
	}, nil
}

func parsePyProject(data []byte) (Manifest, error) {
	var py struct {
		Project struct {
			Name           string   `toml:"name"`
			RequiresPython string   `toml:"requires-python"`
			Dependencies   []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name         string         `toml:"name"`
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &py); err != nil {
		return Manifest{}, err
	}

	m := Manifest{Name: py.Project.Name, Language: "python", Version: py.Project.RequiresPython}
	if m.Name == "" {
		m.Name = py.Tool.Poetry.Name
	}
	for _, req := range py.Project.Dependencies {
		if name := requirementName(req); name != "" {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	for _, name := range sortedKeys(py.Tool.Poetry.Dependencies) {
		if name == "python" {
			if v, ok := py.Tool.Poetry.Dependencies[name].(string); ok && m.Version == "" {
				m.Version = v
			}
			continue
		}
		m.Dependencies = append(m.Dependencies, name)
	}
	return m, nil
}

func parseRequirements(data []byte) (Manifest, error) {
	m := Manifest{Language: "python"}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if name := requirementName(line); name != "" {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	return m, sc.Err()
}

// requirementName extracts the distribution name from a PEP 508 requirement.
func requirementName(req string) string {
	end := strings.IndexAny(req, " <>=!~;[(@")
	if end >= 0 {
		req = req[:end]
	}
	return strings.ToLower(strings.TrimSpace(req))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
