package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Printer writes status lines, coloured when the output supports it.
type Printer struct {
	out     *termenv.Output
	profile termenv.Profile
}

// NewPrinter creates a printer for w. Colours are disabled unless w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	profile := termenv.Ascii
	if f, ok := w.(*os.File); ok && IsTerminal(f) {
		profile = termenv.EnvColorProfile()
	}
	return &Printer{
		out:     termenv.NewOutput(w, termenv.WithProfile(profile)),
		profile: profile,
	}
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) {
	p.line("#22c55e", "✓ ", format, args...)
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	p.line("#eab308", "! ", format, args...)
}

// Error prints a red line.
func (p *Printer) Error(format string, args ...any) {
	p.line("#ef4444", "✗ ", format, args...)
}

// Info prints an uncoloured line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) line(color, prefix, format string, args ...any) {
	text := p.out.String(prefix + fmt.Sprintf(format, args...)).Foreground(p.profile.Color(color))
	fmt.Fprintln(p.out, text)
}
