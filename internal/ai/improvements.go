package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// Improvement types.
const (
	ImprovementAddition = "addition"
	ImprovementRemoval  = "removal"
	ImprovementRewrite  = "rewrite"
)

const (
	maxImprovements  = 10
	maxExcerptLength = 200
)

// DiffImprovements describes how after differs from before, one record per changed
// block of lines. A deletion directly followed by an insertion is a rewrite.
func DiffImprovements(before, after string) []enhance.Improvement {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := []enhance.Improvement{}
	for i := 0; i < len(diffs) && len(out) < maxImprovements; i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				ins := diffs[i+1]
				out = append(out, enhance.Improvement{
					Type:        ImprovementRewrite,
					Description: fmt.Sprintf("Rewrote %s", lineCount(d.Text)),
					Before:      excerpt(d.Text),
					After:       excerpt(ins.Text),
				})
				i++
				continue
			}
			if strings.TrimSpace(d.Text) == "" {
				continue
			}
			out = append(out, enhance.Improvement{
				Type:        ImprovementRemoval,
				Description: fmt.Sprintf("Removed %s", lineCount(d.Text)),
				Before:      excerpt(d.Text),
			})
		case diffmatchpatch.DiffInsert:
			if strings.TrimSpace(d.Text) == "" {
				continue
			}
			out = append(out, enhance.Improvement{
				Type:        ImprovementAddition,
				Description: fmt.Sprintf("Added %s", lineCount(d.Text)),
				After:       excerpt(d.Text),
			})
		}
	}
	return out
}

func lineCount(s string) string {
	n := strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
	if n == 1 {
		return "1 line"
	}
	return fmt.Sprintf("%d lines", n)
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxExcerptLength {
		return s
	}
	cut := maxExcerptLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
