package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "short stays", in: "Blog", maxLen: 10, want: "Blog"},
		{name: "long truncated", in: "A very long label for an instance", maxLen: 12, want: "A very lo..."},
		{name: "newlines collapsed", in: "two\nlines  here", maxLen: 40, want: "two lines here"},
		{name: "tiny max clamped", in: "abcdef", maxLen: 1, want: "a..."},
		{name: "unicode safe", in: "héllo wörld des déjà", maxLen: 10, want: "héllo w..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truncate(tc.in, tc.maxLen))
		})
	}
}

func TestNewTableRendersRows(t *testing.T) {
	var buf bytes.Buffer

	tw := NewTable(&buf)
	tw.AppendHeader([]interface{}{"NAME", "DOMAIN"})
	tw.AppendRow([]interface{}{"hello", "example.org"})
	tw.Render()

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "example.org")
}

func TestPrintWarnings(t *testing.T) {
	var buf bytes.Buffer

	PrintWarnings(&buf, []string{"remove script failed", "permission was already gone"})

	out := buf.String()
	assert.Contains(t, out, "remove script failed")
	assert.Contains(t, out, "permission was already gone")
}
