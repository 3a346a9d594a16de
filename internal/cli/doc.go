// Package cli holds the presentation helpers shared by the cmd verbs:
// output format selection, table rendering, progress indication, and the
// interactive argument asker. Decision logic stays in the internal
// packages; this package only turns their results into terminal output.
package cli
