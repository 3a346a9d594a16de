package cli

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// labelMaxLen bounds the label column in instance tables.
const labelMaxLen = 40

// NewTable creates a table writer with the house style. Headers are
// suppressed by leaving AppendHeader uncalled.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

// Truncate shortens a string to maxLen runes, collapsing whitespace so the
// result stays on one line and appending "..." when something was cut.
func Truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// TruncateLabel shortens an instance label for table display.
func TruncateLabel(s string) string {
	return Truncate(s, labelMaxLen)
}
