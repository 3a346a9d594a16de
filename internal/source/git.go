package source

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// cloneGit shallow-clones url into dst and reports the checked out revision.
func cloneGit(ctx context.Context, url, branch, dst string) (string, error) {
	args := []string{"clone", "--quiet", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dst)

	cmd := execCommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git clone of %s failed: %w: %s", url, err, strings.TrimSpace(string(out)))
	}

	rev := execCommandContext(ctx, "git", "-C", dst, "rev-parse", "HEAD")
	out, err := rev.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cloned revision of %s: %w", url, err)
	}
	return strings.TrimSpace(string(out)), nil
}
