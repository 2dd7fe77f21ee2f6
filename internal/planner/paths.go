package planner

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/wtthornton/LocalMCP/internal/patterns"
)

const maxIndexedFiles = 5000

// Confidence levels for a corrected path.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// PathCorrection records a path in a task that was rewritten to an existing file.
type PathCorrection struct {
	TaskIndex    int    `json:"task_index"`
	OriginalPath string `json:"original_path"`
	CorrectedTo  string `json:"corrected_to"`
	Confidence   string `json:"confidence"`
}

// PathCorrector checks file paths mentioned in generated tasks against the project
// and rewrites near misses to the file that exists. Paths the task says it will
// create are left alone.
type PathCorrector struct {
	fs   afero.Fs
	root string

	once  sync.Once
	files []string // slash-separated, relative to root, sorted
}

// NewPathCorrector creates a corrector for the project at root.
func NewPathCorrector(fs afero.Fs, root string) *PathCorrector {
	return &PathCorrector{fs: fs, root: root}
}

// Correct rewrites paths in place and reports what it changed.
func (c *PathCorrector) Correct(resp *LLMBreakdownResponse) []PathCorrection {
	if c == nil || resp == nil {
		return nil
	}
	var corrections []PathCorrection
	for i := range resp.Tasks {
		task := &resp.Tasks[i]
		text := task.Title + " " + task.Description + " " + strings.Join(task.Subtasks, " ")
		for _, p := range extractFilePaths(text) {
			if isCreationContext(text, p) || c.exists(p) {
				continue
			}
			fixed, confidence, ok := c.locate(p)
			if !ok {
				slog.Debug("task references a missing file", "task", task.Title, "path", p)
				continue
			}
			corrections = append(corrections, PathCorrection{TaskIndex: i, OriginalPath: p, CorrectedTo: fixed, Confidence: confidence})
			task.Title = strings.ReplaceAll(task.Title, p, fixed)
			task.Description = strings.ReplaceAll(task.Description, p, fixed)
			for j := range task.Subtasks {
				task.Subtasks[j] = strings.ReplaceAll(task.Subtasks[j], p, fixed)
			}
		}
	}
	return corrections
}

func (c *PathCorrector) exists(p string) bool {
	full := p
	if !filepath.IsAbs(p) {
		full = filepath.Join(c.root, filepath.FromSlash(p))
	}
	ok, _ := afero.Exists(c.fs, full)
	return ok
}

// locate looks for the intended file: same name elsewhere, then a case-insensitive
// match, then a similar name with the same extension.
func (c *PathCorrector) locate(missing string) (string, string, bool) {
	c.once.Do(c.index)

	base := filepath.Base(missing)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var exact, folded []string
	for _, f := range c.files {
		fb := filepath.Base(f)
		switch {
		case fb == base:
			exact = append(exact, f)
		case strings.EqualFold(fb, base):
			folded = append(folded, f)
		}
	}
	if len(exact) == 1 {
		return exact[0], ConfidenceHigh, true
	}
	if len(exact) == 0 && len(folded) == 1 {
		return folded[0], ConfidenceMedium, true
	}
	if len(exact) > 1 || len(folded) > 1 {
		return "", "", false
	}

	for _, f := range c.files {
		fb := filepath.Base(f)
		fext := filepath.Ext(fb)
		if fext == ext && isSimilarName(stem, strings.TrimSuffix(fb, fext)) {
			return f, ConfidenceLow, true
		}
	}
	return "", "", false
}

func (c *PathCorrector) index() {
	_ = afero.Walk(c.fs, c.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != c.root && patterns.ShouldIgnoreDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(c.files) >= maxIndexedFiles {
			return filepath.SkipAll
		}
		if !patterns.IsScannable(path) {
			return nil
		}
		if rel, err := filepath.Rel(c.root, path); err == nil {
			c.files = append(c.files, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(c.files)
}

const punctuation = "`\"'()[]{},;:!?"

var filePathRegex = regexp.MustCompile(`^(?:\.{0,2}/)?[a-zA-Z0-9_\-]+(?:/[a-zA-Z0-9_\-.]+)*\.[a-zA-Z]{1,5}$`)

// extractFilePaths finds file references in text, in order of first appearance.
func extractFilePaths(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, field := range strings.Fields(text) {
		p := strings.Trim(field, punctuation)
		p = strings.Trim(strings.TrimSuffix(p, "."), punctuation)
		if seen[p] || !filePathRegex.MatchString(p) || !isLikelyFilePath(p) {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func isLikelyFilePath(p string) bool {
	if strings.HasPrefix(p, "http") || strings.HasPrefix(p, "www.") || strings.Contains(p, "//") {
		return false
	}
	return patterns.IsScannable(p)
}

var creationKeywords = []string{
	"create", "add", "new", "generate", "write", "initialize", "scaffold", "setup", "make",
}

// isCreationContext reports whether the words just before path announce a new file.
func isCreationContext(text, path string) bool {
	idx := strings.Index(text, path)
	if idx == -1 {
		return false
	}
	before := strings.ToLower(text[max(0, idx-40):idx])
	for _, k := range creationKeywords {
		if strings.Contains(before, k) {
			return true
		}
	}
	return false
}

// isSimilarName matches plural and singular forms and short names within two edits.
func isSimilarName(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return true
	}
	if len(a) <= 10 && len(b) <= 10 {
		return levenshteinDistance(a, b) <= 2
	}
	return false
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
