package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// fdWriter is satisfied by *os.File.
type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether both stdin and w are terminals, which is
// required before prompting.
func IsInteractive(w io.Writer) bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && IsTerminal(w)
}

// Width returns the column count of w, or DefaultWidth when unknown.
func Width(w io.Writer) int {
	f, ok := w.(fdWriter)
	if !ok {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}
