package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                      _ _           ",
	"   ___  ___ _ __   __ _| (_) ___ _ __ ",
	"  / _ \\/ __| '_ \\ / _` | | |/ _ \\ '__|",
	" |  __/\\__ \\ |_) | (_| | | |  __/ |   ",
	"  \\___||___/ .__/ \\__,_|_|_|\\___|_|   ",
	"           |_|                        ",
}

var bannerColors = []string{"#86efac", "#4ade80", "#22c55e", "#16a34a", "#15803d", "#166534"}

// PrintBanner writes the ASCII banner with a green gradient when color is on.
func PrintBanner(w io.Writer, color bool) {
	p := termenv.Ascii
	if color {
		p = termenv.ColorProfile()
	}
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, p.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
