package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/patterns"
)

const (
	defaultMaxSnippets = 5
	defaultMaxFiles    = 2000
	defaultMaxFileSize = 128 << 10

	excerptBefore = 5
	excerptLines  = 30

	pathMatchWeight    = 3
	maxHitsPerTerm     = 5
	targetFileDescribe = "target file"
)

var errScanLimit = errors.New("scan limit reached")

type candidate struct {
	path    string
	score   int
	matched []string
	line    int
	lines   []string
}

// FindRelevantCodeSnippets scores source files by how often the prompt's terms appear in
// their path and content and returns excerpts of the best ones. The hinted file, when it
// exists, always comes first.
func (a *Analyzer) FindRelevantCodeSnippets(ctx context.Context, prompt, file string) ([]enhance.CodeSnippet, error) {
	if err := a.checkRoot(); err != nil {
		return nil, err
	}

	snippets := []enhance.CodeSnippet{}
	hinted := ""
	if file != "" {
		if s, rel, ok := a.readTarget(file); ok {
			snippets = append(snippets, s)
			hinted = rel
		}
	}

	terms := enhance.PromptTerms(prompt)
	if len(terms) == 0 {
		return snippets, nil
	}

	cands, err := a.scan(ctx, terms, hinted)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].path < cands[j].path
	})
	for _, c := range cands {
		if len(snippets) >= a.maxSnippets {
			break
		}
		snippets = append(snippets, enhance.CodeSnippet{
			File:        c.path,
			Description: "matches " + strings.Join(c.matched, ", "),
			Content:     excerpt(c.lines, c.line),
		})
	}
	return snippets, nil
}

func (a *Analyzer) readTarget(file string) (enhance.CodeSnippet, string, bool) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return enhance.CodeSnippet{}, "", false
	}
	rel, err := filepath.Rel(a.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	return enhance.CodeSnippet{
		File:        rel,
		Description: targetFileDescribe,
		Content:     excerpt(strings.Split(string(data), "\n"), 0),
	}, rel, true
}

func (a *Analyzer) scan(ctx context.Context, terms []string, skip string) ([]candidate, error) {
	var (
		cands   []candidate
		scanned int
	)
	err := afero.Walk(a.fs, a.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := info.Name()
		if info.IsDir() {
			if path != a.root && patterns.ShouldIgnoreDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !patterns.IsScannable(name) || info.Size() > a.maxFileSize {
			return nil
		}
		rel, relErr := filepath.Rel(a.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == skip {
			return nil
		}
		scanned++
		if scanned > a.maxFiles {
			return errScanLimit
		}

		data, readErr := afero.ReadFile(a.fs, path)
		if readErr != nil {
			return nil
		}
		if c, ok := scoreFile(rel, string(data), terms); ok {
			cands = append(cands, c)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errScanLimit) {
		return nil, fmt.Errorf("scan %s: %w", a.root, err)
	}
	return cands, nil
}

func scoreFile(rel, content string, terms []string) (candidate, bool) {
	c := candidate{path: rel, line: -1}
	lowerPath := strings.ToLower(rel)
	lowerContent := strings.ToLower(content)
	for _, t := range terms {
		hit := false
		if strings.Contains(lowerPath, t) {
			c.score += pathMatchWeight
			hit = true
		}
		if n := strings.Count(lowerContent, t); n > 0 {
			c.score += min(n, maxHitsPerTerm)
			hit = true
		}
		if hit {
			c.matched = append(c.matched, t)
		}
	}
	if c.score == 0 {
		return candidate{}, false
	}

	c.lines = strings.Split(content, "\n")
	for i, l := range c.lines {
		lower := strings.ToLower(l)
		for _, t := range c.matched {
			if strings.Contains(lower, t) {
				c.line = i
				break
			}
		}
		if c.line >= 0 {
			break
		}
	}
	if c.line < 0 {
		c.line = 0
	}
	return c, true
}

// excerpt returns up to excerptLines lines starting a little before line.
func excerpt(lines []string, line int) string {
	start := max(line-excerptBefore, 0)
	end := min(start+excerptLines, len(lines))
	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n ")
}
