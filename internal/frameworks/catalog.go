// Package frameworks detects which frameworks an enhancement request is about, from an
// explicit hint, the project's dependencies, the prompt's wording or the code in context.
package frameworks

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/armon/go-radix"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Framework is one catalog entry.
type Framework struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Packages []string `yaml:"packages"`
	Prefixes []string `yaml:"prefixes"`
	Keywords []string `yaml:"keywords"`
	Imports  []string `yaml:"imports"`
}

type packageRule struct {
	framework string
	prefix    bool
}

// Catalog indexes frameworks by name, alias and dependency.
type Catalog struct {
	frameworks []Framework
	byName     map[string]string // name or alias -> canonical name
	packages   *radix.Tree       // dependency name or prefix -> packageRule
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("frameworks: built-in catalog is invalid: %v", err))
	}
	return c
}

// ParseCatalog reads a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Frameworks []Framework `yaml:"frameworks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse framework catalog: %w", err)
	}
	c := &Catalog{byName: map[string]string{}, packages: radix.New()}
	for _, f := range doc.Frameworks {
		if err := c.add(f); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Merge adds or replaces entries from other. Entries in other win.
func (c *Catalog) Merge(other *Catalog) {
	for _, f := range other.frameworks {
		_ = c.add(f)
	}
}

func (c *Catalog) add(f Framework) error {
	f.Name = strings.ToLower(strings.TrimSpace(f.Name))
	if f.Name == "" {
		return fmt.Errorf("framework catalog: entry without a name")
	}
	replaced := false
	for i := range c.frameworks {
		if c.frameworks[i].Name == f.Name {
			c.frameworks[i] = f
			replaced = true
		}
	}
	if !replaced {
		c.frameworks = append(c.frameworks, f)
	}

	c.byName[f.Name] = f.Name
	for _, a := range f.Aliases {
		c.byName[strings.ToLower(a)] = f.Name
	}
	for _, p := range f.Packages {
		c.packages.Insert(strings.ToLower(p), packageRule{framework: f.Name})
	}
	for _, p := range f.Prefixes {
		c.packages.Insert(strings.ToLower(p), packageRule{framework: f.Name, prefix: true})
	}
	return nil
}

// Frameworks returns the catalog entries in declaration order.
func (c *Catalog) Frameworks() []Framework {
	return append([]Framework(nil), c.frameworks...)
}

// Canonical maps a name or alias to its canonical framework name.
func (c *Catalog) Canonical(name string) (string, bool) {
	n, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}

// ForDependency maps a dependency to a framework. Exact package names match exactly;
// prefixes match at a "/" boundary, so "github.com/labstack/echo/v4" matches the echo
// prefix but "reactive" never matches "react".
func (c *Catalog) ForDependency(dep string) (string, bool) {
	dep = strings.ToLower(dep)
	key, v, ok := c.packages.LongestPrefix(dep)
	if !ok {
		return "", false
	}
	rule := v.(packageRule)
	switch {
	case key == dep:
		return rule.framework, true
	case rule.prefix && (strings.HasSuffix(key, "/") || dep[len(key)] == '/'):
		return rule.framework, true
	}
	return "", false
}
