package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ConsoleAsker implements arguments.Asker on the controlling terminal.
// Interrupt (Ctrl+C) and EOF (Ctrl+D) both surface as context.Canceled so
// the lifecycle manager treats an abandoned prompt like any other
// cancellation.
type ConsoleAsker struct {
	rl *readline.Instance
}

// NewConsoleAsker creates an asker reading from the terminal.
func NewConsoleAsker() (*ConsoleAsker, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt:     "^C",
		EOFPrompt:           "cancel",
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &ConsoleAsker{rl: rl}, nil
}

// Ask displays the prompt and reads one line. An empty answer means the
// user wants the default.
func (a *ConsoleAsker) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.rl.SetPrompt(prompt)
	line, err := a.rl.Readline()
	if err == readline.ErrInterrupt || err == io.EOF {
		return "", context.Canceled
	}
	if err != nil {
		return "", fmt.Errorf("readline error: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AskSecret reads one line without echoing it. The answer is not trimmed:
// passwords keep their whitespace.
func (a *ConsoleAsker) AskSecret(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, err := a.rl.ReadPassword(prompt)
	if err == readline.ErrInterrupt || err == io.EOF {
		return "", context.Canceled
	}
	if err != nil {
		return "", fmt.Errorf("readline error: %w", err)
	}
	return string(secret), nil
}

// Close releases the terminal.
func (a *ConsoleAsker) Close() error {
	return a.rl.Close()
}

// filterInput filters input characters for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
