package utils

import (
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WriteHighlighted writes source to w, colorized for a 256-color terminal
// when color is true and verbatim otherwise.
func WriteHighlighted(w io.Writer, source string, language string, theme string, color bool) error {
	if !color {
		_, err := io.WriteString(w, source)
		return err
	}
	return quick.Highlight(w, source, language, "terminal256", theme)
}
