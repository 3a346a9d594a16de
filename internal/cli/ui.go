package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RunWithProgress runs fn behind a progress spinner. Quiet mode skips the
// spinner entirely so output stays pipeable.
func RunWithProgress(quiet bool, message string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	if err := fn(); err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+message) + "\n"
		return err
	}
	return nil
}

// Success prints a confirmation line.
func Success(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", text.FgGreen.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Failure prints a failure line.
func Failure(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", text.FgRed.Sprint("✗"), fmt.Sprintf(format, args...))
}

// Notice prints an informational line that is neither success nor failure,
// such as a skipped upgrade.
func Notice(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("-"), fmt.Sprintf(format, args...))
}

// PrintWarnings renders the suppressed sub-errors of an operation, one line
// each.
func PrintWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("⚠"), w)
	}
}
