package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Portico ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Indigo)
	lines := []struct {
		text  string
		color string
	}{
		{"  ____            _   _          ", "#2dd4bf"},
		{" |  _ \\ ___  _ __| |_(_) ___ ___ ", "#38bdf8"},
		{" | |_) / _ \\| '__| __| |/ __/ _ \\", "#60a5fa"},
		{" |  __/ (_) | |  | |_| | (_| (_) |", "#818cf8"},
		{" |_|   \\___/|_|   \\__|_|\\___\\___/", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
