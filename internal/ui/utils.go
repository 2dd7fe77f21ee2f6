package ui

import (
	"io"
	"os"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 100

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or DefaultWidth when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// WrapText wraps text at word boundaries to width.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}
