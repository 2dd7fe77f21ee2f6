package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

const localIDPrefix = "local:"

// DirSource serves documentation from markdown files named after the library, such as
// react.md or react/*.md, under one directory. It lets teams pin internal docs and works
// offline.
type DirSource struct {
	fs  afero.Fs
	dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(fs afero.Fs, dir string) *DirSource {
	return &DirSource{fs: fs, dir: dir}
}

func (s *DirSource) Resolve(_ context.Context, name string) ([]string, error) {
	lib := strings.ToLower(strings.TrimSpace(name))
	if lib == "" || strings.ContainsAny(lib, `/\`) {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrNoLibrary)
	}
	if ok, _ := afero.Exists(s.fs, filepath.Join(s.dir, lib+".md")); ok {
		return []string{localIDPrefix + lib}, nil
	}
	if ok, _ := afero.DirExists(s.fs, filepath.Join(s.dir, lib)); ok {
		return []string{localIDPrefix + lib}, nil
	}
	return nil, fmt.Errorf("resolve %q: %w", name, ErrNoLibrary)
}

// Fetch returns the library's markdown. Sections mentioning topic come first; the token
// budget is left to the caller.
func (s *DirSource) Fetch(_ context.Context, libraryID, topic string, _ int) (string, error) {
	lib, ok := strings.CutPrefix(libraryID, localIDPrefix)
	if !ok {
		return "", fmt.Errorf("fetch %q: %w", libraryID, ErrNoLibrary)
	}

	var parts []string
	if data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, lib+".md")); err == nil {
		parts = append(parts, string(data))
	}
	if files, err := afero.Glob(s.fs, filepath.Join(s.dir, lib, "*.md")); err == nil {
		for _, f := range files {
			data, err := afero.ReadFile(s.fs, f)
			if err != nil {
				slog.Warn("skipping unreadable doc file", "file", f, "error", err)
				continue
			}
			parts = append(parts, string(data))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("fetch %q: %w", libraryID, ErrNoLibrary)
	}

	sections := SplitSections(strings.Join(parts, "\n\n"))
	if topic != "" {
		sections = topicFirst(sections, strings.Fields(strings.ToLower(topic)))
	}
	return strings.Join(sections, "\n\n"), nil
}

func topicFirst(sections []string, words []string) []string {
	var hit, rest []string
	for _, sec := range sections {
		lower := strings.ToLower(sec)
		matched := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				matched = true
				break
			}
		}
		if matched {
			hit = append(hit, sec)
		} else {
			rest = append(rest, sec)
		}
	}
	return append(hit, rest...)
}

// Chain tries each source in order. Resolve returns the first source's hits; the IDs it
// hands out remember which source produced them so Fetch goes back to the same one.
type Chain struct {
	sources []namedSource
}

type namedSource struct {
	name   string
	source enhance.DocumentationSource
}

// NewChain builds a chain. Nil sources are skipped.
func NewChain(sources ...enhance.DocumentationSource) *Chain {
	c := &Chain{}
	for i, s := range sources {
		if s == nil {
			continue
		}
		c.sources = append(c.sources, namedSource{name: strconv.Itoa(i), source: s})
	}
	return c
}

// Len is the number of sources in the chain.
func (c *Chain) Len() int {
	return len(c.sources)
}

func (c *Chain) Resolve(ctx context.Context, name string) ([]string, error) {
	var errs []error
	for _, s := range c.sources {
		ids, err := s.source.Resolve(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = s.name + "|" + id
		}
		return out, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrNoLibrary)
	}
	return nil, errors.Join(errs...)
}

func (c *Chain) Fetch(ctx context.Context, id, topic string, tokenBudget int) (string, error) {
	name, inner, ok := strings.Cut(id, "|")
	if !ok {
		return "", fmt.Errorf("fetch %q: %w", id, ErrNoLibrary)
	}
	for _, s := range c.sources {
		if s.name == name {
			return s.source.Fetch(ctx, inner, topic, tokenBudget)
		}
	}
	return "", fmt.Errorf("fetch %q: %w", id, ErrNoLibrary)
}
