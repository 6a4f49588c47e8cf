package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/fetch"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/service"
)

const barWidth = 20

// printer writes human output, styled only when w is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: isTerminalWriter(w)}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) bold(s string) string {
	if !p.color {
		return s
	}
	return pterm.Bold.Sprint(s)
}

func (p *printer) success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = pterm.Success.Prefix.Text + " " + pterm.Success.MessageStyle.Sprint(msg)
	}
	fmt.Fprintln(p.w, msg)
}

func (p *printer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = pterm.Warning.Prefix.Text + " " + pterm.Warning.MessageStyle.Sprint(msg)
	} else {
		msg = "warning: " + msg
	}
	fmt.Fprintln(p.w, msg)
}

// progress returns a ProgressFunc that renders the pass named title. On a
// terminal it redraws a single bar line; otherwise it prints a line at
// every tenth percent.
func (p *printer) progress(title string) fetch.ProgressFunc {
	last := -1
	return func(percent int) {
		if p.color {
			filled := percent * barWidth / 100
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
			fmt.Fprintf(p.w, "\r%-10s [%s] %3d%%", title, pterm.Info.MessageStyle.Sprint(bar), percent)
			if percent == 100 {
				fmt.Fprintln(p.w)
			}
			return
		}
		if step := percent / 10; step > last {
			last = step
			fmt.Fprintf(p.w, "%s: %d%%\n", title, percent)
		}
	}
}

// librariesRequest wires both passes to p.
func (p *printer) librariesRequest() service.LibrariesRequest {
	return service.LibrariesRequest{
		LibrariesProgress: p.progress("libraries"),
		NativesProgress:   p.progress("natives"),
	}
}

// report summarizes the passes of res, listing every tolerated failure.
func (p *printer) report(res *service.LibrariesResult) {
	if res == nil {
		return
	}
	for _, pass := range []struct {
		name   string
		report *fetch.Report
	}{
		{"libraries", res.Libraries},
		{"natives", res.Natives},
	} {
		r := pass.report
		if r == nil {
			continue
		}
		fmt.Fprintf(p.w, "%s: %d present, %d fetched, %d unavailable (%s)\n",
			p.bold(pass.name),
			r.Count(fetch.OutcomePresent),
			r.Count(fetch.OutcomeFetched),
			r.Count(fetch.OutcomeTolerated),
			r.State)
		for _, t := range r.Tolerated() {
			p.warn("optional library %s unavailable: %v", t.Entry.Path, t.Err)
		}
		for _, x := range r.ExtractionFailures() {
			p.warn("%v", x.ExtractErr)
		}
	}
}
