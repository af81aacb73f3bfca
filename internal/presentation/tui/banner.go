package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _ __ ___   __ _ _ __ __ _ _   _  ___  ___ ", "#818cf8"},
	{" | '_ ` _ \\ / _` | '__/ _` | | | |/ _ \\/ _ \\", "#a78bfa"},
	{" | | | | | | (_| | | | (_| | |_| |  __/  __/", "#c084fc"},
	{" |_| |_| |_|\\__,_|_|  \\__, |\\__,_|\\___|\\___|", "#e879f9"},
	{"                         |_|                ", "#f472b6"},
}

// PrintBanner writes the marquee banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(" v"+version).Faint())
	fmt.Fprintln(w)
}
