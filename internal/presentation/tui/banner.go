package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowbot ASCII art banner with the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _               _           _   ", "#38bdf8"},
		{"  / _| | _____      _| |__   ___ | |_ ", "#22d3ee"},
		{" | |_| |/ _ \\ \\ /\\ / / '_ \\ / _ \\| __|", "#2dd4bf"},
		{" |  _| | (_) \\ V  V /| |_) | (_) | |_ ", "#34d399"},
		{" |_| |_|\\___/ \\_/\\_/ |_.__/ \\___/ \\__|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
