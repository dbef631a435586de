// Package diagfmt renders diagnostics for humans.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"strata/internal/diag"
	"strata/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.Bold)
)

// Pretty formats diagnostics in a human-readable form. Expects bag.Sort()
// to have been called. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline, then notes in
// the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if w == nil || bag == nil || fs == nil {
		return
	}
	for _, d := range bag.Items() {
		printHeader(w, fs, d.Severity, d.Code.String(), d.Primary, d.Message, opts)
		printContext(w, fs, d.Primary)
		for _, n := range d.Notes {
			printHeader(w, fs, diag.SevInfo, "note", n.Span, n.Msg, opts)
			printContext(w, fs, n.Span)
		}
	}
}

func printHeader(w io.Writer, fs *source.FileSet, sev diag.Severity, code string, span source.Span, msg string, opts PrettyOpts) {
	file := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	pos := fmt.Sprintf("%s:%d:%d:", file.Path, start.Line, start.Col)
	sevText := sev.String()
	if opts.Color {
		pos = posColor.Sprint(pos)
		sevText = sevColor(sev).Sprint(sevText)
	}
	fmt.Fprintf(w, "%s %s %s: %s\n", pos, sevText, code, msg)
}

func printContext(w io.Writer, fs *source.FileSet, span source.Span) {
	file := fs.Get(span.File)
	start, end := fs.Resolve(span)
	line := file.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	underline := span.Len()
	if end.Line != start.Line || underline == 0 {
		underline = 1
	}
	pad := strings.Repeat(" ", int(start.Col-1))
	fmt.Fprintf(w, "  %s^%s\n", pad, strings.Repeat("~", int(underline-1)))
}

func sevColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}
