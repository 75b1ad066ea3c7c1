// Package console renders pipeline progress events for an interactive
// terminal, keeping the presentation layer out of the state machine.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ligustah/taxwgs/internal/pipeline"
)

// Reporter renders pipeline events. Verbose mode prints one line per
// project; otherwise a spinner and completion percentage are redrawn in
// place.
type Reporter struct {
	out     io.Writer
	verbose bool

	include string
	exclude string

	spin int

	gray    func(a ...interface{}) string
	red     func(a ...interface{}) string
	green   func(a ...interface{}) string
	yellow  func(a ...interface{}) string
	blue    func(a ...interface{}) string
	magenta func(a ...interface{}) string
}

var _ pipeline.Observer = (*Reporter)(nil)

var spinner = []byte{'-', '\\', '|', '/'}

// NewReporter creates a reporter writing to out. include and exclude are
// the taxid selectors, shown in the discovery summary.
func NewReporter(out io.Writer, include, exclude string, verbose bool) *Reporter {
	return &Reporter{
		out:     out,
		verbose: verbose,
		include: include,
		exclude: exclude,
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgHiRed).SprintFunc(),
		green:   color.New(color.FgHiGreen).SprintFunc(),
		yellow:  color.New(color.FgHiYellow).SprintFunc(),
		blue:    color.New(color.FgHiBlue).SprintFunc(),
		magenta: color.New(color.FgHiMagenta).SprintFunc(),
	}
}

// Banner prints the program header.
func (r *Reporter) Banner(name, version string) {
	fmt.Fprintf(r.out, "\n=-= %s =-= v%s =-=\n\n", name, version)
}

func (r *Reporter) Resuming(archives, parsed int) {
	fmt.Fprintln(r.out, archives, r.gray("WGS project files are in the archive store. If any, we won't look for them."))
	fmt.Fprintln(r.out, parsed, r.gray("WGS projects already parsed. If any, we will ignore them."))
}

func (r *Reporter) Discovered(pending int) {
	excludeTxt := ""
	if r.exclude != "" {
		excludeTxt = r.gray(" excluding tid ") + r.exclude
	}
	fmt.Fprintln(r.out, pending, r.gray("WGS projects to collect for tid"), r.include+excludeTxt)
}

func (r *Reporter) NothingToDo() {
	fmt.Fprintln(r.out, r.gray("No projects to process!"), r.green("All done!"))
}

func (r *Reporter) CollectionStarted(id string, index, total int) {
	if r.verbose {
		fmt.Fprintf(r.out, "%s%s%s", r.gray(fmt.Sprintf("%d of %d: Process WGS ", index, total)), id, r.gray(" project..."))
	}
}

func (r *Reporter) CollectionSkipped(id string) {
	if r.verbose {
		fmt.Fprintln(r.out, r.gray("Project"), id, r.gray("in store. Skipping..."))
	}
}

func (r *Reporter) FileSkipped(name string) {
	if r.verbose {
		fmt.Fprint(r.out, r.gray("["+name+" already downloaded] "))
	}
}

func (r *Reporter) FileRetrieved(name string, size int64) {
	if r.verbose {
		fmt.Fprint(r.out, r.gray(fmt.Sprintf("[%s: %d bytes] ", name, size)))
	}
}

func (r *Reporter) RetryScheduled(delay time.Duration, err error) {
	fmt.Fprint(r.out, r.yellow(" PROBLEM!"), r.gray(fmt.Sprintf(" Retrying in %s...", delay)))
}

func (r *Reporter) CollectionCompleted(id string, processed, discovered int, phase pipeline.Phase) {
	if r.verbose {
		fmt.Fprintln(r.out, r.green(" OK!"))
		return
	}

	r.spin = (r.spin + 1) % len(spinner)
	percent := 0.0
	if discovered > 0 {
		percent = float64(processed) / float64(discovered) * 100
	}
	fmt.Fprintf(r.out, "\r%s [%.2f%%]", r.magenta(string(spinner[r.spin])), percent)

	switch phase {
	case pipeline.PhaseParseOnly:
		fmt.Fprint(r.out, r.gray(" Skipping download. Parsing...   "))
	case pipeline.PhaseFetchOnly:
		fmt.Fprint(r.out, r.gray(" Just downloading...             "))
	default:
		fmt.Fprint(r.out, r.gray(" Downloading and parsing...      "))
	}
}

func (r *Reporter) RunCompleted(downloadOnly bool) {
	if !r.verbose {
		fmt.Fprintln(r.out)
	}
	if downloadOnly {
		fmt.Fprintln(r.out, r.green("All downloaded!"))
	} else {
		fmt.Fprintln(r.out, r.green("All OK!"))
	}
}

func (r *Reporter) Warning(msg string) {
	fmt.Fprintln(r.out, r.yellow(" WARNING!"), r.gray(msg))
}

// Fatal prints a terminal error.
func (r *Reporter) Fatal(err error) {
	fmt.Fprintln(r.out, r.red(" FAILED!"), err)
}

// Interrupted prints the cancellation notice.
func (r *Reporter) Interrupted() {
	fmt.Fprintln(r.out, r.gray(" User"), r.yellow("interrupted!"))
}

// ResumeNote reminds the user that the run can be resumed after the issue
// is corrected.
func (r *Reporter) ResumeNote() {
	fmt.Fprintln(r.out, r.blue("NOTE:"), r.gray("You can try to solve any issue and resume"))
	fmt.Fprintln(r.out, "\t"+r.gray("the process using the"), "-r/--resume", r.gray("flag."))
}
