package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the OpenWorkflow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	// Gradient from teal to indigo.
	lines := []struct {
		text, color string
	}{
		{"   ___                __        __         _     __ _", "#2dd4bf"},
		{"  / _ \\ _ __  ___ _ _ \\ \\      / /__  _ __| | __/ _| | _____      __", "#22d3ee"},
		{" | | | | '_ \\/ -_) ' \\ \\ \\ /\\ / / _ \\| '__| |/ / |_| |/ _ \\ \\ /\\ / /", "#38bdf8"},
		{" | |_| | .__/\\___|_||_| \\ V  V / (_) | |  |   <|  _| | (_) \\ V  V /", "#60a5fa"},
		{"  \\___/|_|               \\_/\\_/ \\___/|_|  |_|\\_\\_| |_|\\___/ \\_/\\_/", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
