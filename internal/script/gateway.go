// Package script implements the execution gateway for app lifecycle scripts.
//
// Scripts are invoked through bash explicitly, so the restrictive file modes
// applied to committed instance directories do not need an executable bit.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"steward/internal/api"
	"steward/pkg/logging"
)

const subsystem = "Script"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// inheritedEnv lists the only variables a script inherits from the parent
// process; everything else comes from the projected mapping.
var inheritedEnv = []string{"PATH", "HOME", "LANG", "LC_ALL", "TERM", "USER"}

// Gateway runs lifecycle scripts and implements api.ScriptGateway.
type Gateway struct {
	bash string
}

// NewGateway creates a gateway, verifying that bash is available.
func NewGateway() (*Gateway, error) {
	path, err := exec.LookPath("bash")
	if err != nil {
		return nil, fmt.Errorf("bash not found in PATH: %w", err)
	}
	return &Gateway{bash: path}, nil
}

// Run executes one script and blocks until it exits. The returned exit code
// is the child's; non-zero exits are also reported as a ScriptError. When the
// context is cancelled the child is killed and the context's error is
// returned, so callers can tell an interruption from a script failure.
func (g *Gateway) Run(ctx context.Context, req api.ScriptRequest) (int, error) {
	argv := []string{g.bash, req.Script}
	if req.RunAs != "" {
		argv = append([]string{"sudo", "-n", "-u", req.RunAs}, argv...)
	}
	argv = append(argv, req.Args...)

	cmd := execCommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = buildEnv(req.Env)
	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	} else {
		cmd.Dir = filepath.Dir(req.Script)
	}

	scriptName := filepath.Base(req.Script)
	logging.Info(subsystem, "Running script %s with %d args", scriptName, len(req.Args))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, &api.ScriptError{Script: scriptName, Reason: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, &api.ScriptError{Script: scriptName, Reason: err}
	}

	if err := cmd.Start(); err != nil {
		return -1, &api.ScriptError{Script: scriptName, Reason: err}
	}

	var pumps errgroup.Group
	pumps.Go(func() error {
		return pumpLines(stdout, func(line string) {
			logging.Debug(subsystem, "[%s] %s", scriptName, line)
			if req.OnStdout != nil {
				req.OnStdout(line)
			}
		})
	})
	pumps.Go(func() error {
		return pumpLines(stderr, func(line string) {
			logging.Debug(subsystem, "[%s stderr] %s", scriptName, line)
		})
	})

	// Pipes must be drained before Wait closes them.
	pumpErr := pumps.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		logging.Warn(subsystem, "Script %s interrupted", scriptName)
		return -1, ctx.Err()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			logging.Warn(subsystem, "Script %s exited with code %d", scriptName, code)
			return code, &api.ScriptError{Script: scriptName, ExitCode: code}
		}
		return -1, &api.ScriptError{Script: scriptName, Reason: waitErr}
	}
	if pumpErr != nil {
		return 0, &api.ScriptError{Script: scriptName, Reason: pumpErr}
	}

	logging.Debug(subsystem, "Script %s completed", scriptName)
	return 0, nil
}

// pumpLines feeds each line of r to fn until EOF.
func pumpLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return scanner.Err()
}

// buildEnv combines the inherited whitelist with the projected mapping, the
// projected keys sorted for a stable child environment.
func buildEnv(extra map[string]string) []string {
	env := make([]string, 0, len(inheritedEnv)+len(extra))
	for _, name := range inheritedEnv {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+extra[key])
	}
	return env
}
