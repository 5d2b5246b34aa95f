package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flux banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _            ", "#38bdf8"},
		{"  / _| |_   ___  __", "#22d3ee"},
		{" | |_| | | | \\ \\/ /", "#2dd4bf"},
		{" |  _| | |_| |>  < ", "#34d399"},
		{" |_| |_|\\__,_/_/\\_\\", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" v"+version).Faint())
	fmt.Fprintln(w)
}

// Prompt returns the coloured REPL prompt for a session.
func Prompt(sessionID string) string {
	p := termenv.ColorProfile()
	return termenv.String(sessionID).Foreground(p.Color("#38bdf8")).String() +
		termenv.String(" > ").Bold().String()
}

// Errorf formats an error line in red.
func Errorf(format string, args ...any) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf(format, args...)).Foreground(p.Color("#f87171")).String()
}
