package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintFindings writes one line per finding, errors in red and warnings in
// yellow when color is on, followed by a summary line.
func PrintFindings(w io.Writer, findings domain.Findings, color bool) {
	p := termenv.Ascii
	if color {
		p = termenv.ColorProfile()
	}
	for _, f := range findings {
		tag := p.String("warning").Foreground(p.Color("#eab308"))
		if f.Severity() == domain.SeverityError {
			tag = p.String("error").Foreground(p.Color("#ef4444")).Bold()
		}
		fmt.Fprintf(w, "%s [%s] %s\n", tag, f.Kind, f.Message)
	}

	errs, warns := len(findings.Errors()), len(findings.Warnings())
	summary := p.String(fmt.Sprintf("%d error(s), %d warning(s)", errs, warns))
	if errs == 0 {
		summary = summary.Foreground(p.Color("#22c55e"))
	}
	fmt.Fprintln(w, summary)
}
