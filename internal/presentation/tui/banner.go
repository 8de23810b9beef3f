package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the studioflow banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _             _ _        __ _               ", "#34d399"},
		{"  ___| |_ _   _  __| (_) ___  / _| | _____      __", "#2dd4bf"},
		{" / __| __| | | |/ _` | |/ _ \\| |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{" \\__ \\ |_| |_| | (_| | | (_) |  _| | (_) \\ V  V / ", "#38bdf8"},
		{" |___/\\__|\\__,_|\\__,_|_|\\___/|_| |_|\\___/ \\_/\\_/  ", "#60a5fa"},
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
