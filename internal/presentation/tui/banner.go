package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fsmlight banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __                _ _       _     _   ", "#818cf8"},
		{"  / _|___ _ __ ___  | (_) __ _| |__ | |_ ", "#a78bfa"},
		{" | |_/ __| '_ ` _ \\ | | |/ _` | '_ \\| __|", "#c084fc"},
		{" |  _\\__ \\ | | | | || | | (_| | | | | |_ ", "#e879f9"},
		{" |_| |___/_| |_| |_||_|_|\\__, |_| |_|\\__|", "#f472b6"},
		{"                         |___/           ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
