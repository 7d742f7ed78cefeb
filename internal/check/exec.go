package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// runCommand executes argv in dir and returns the combined output split into
// lines plus the process exit code. A non-zero exit is not an error here;
// classification belongs to the caller. The returned error is non-nil only
// when the process could not run at all (missing executable, cancellation).
func runCommand(ctx context.Context, argv []string, dir string) ([]string, int, error) {
	if len(argv) == 0 {
		return nil, -1, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	// Give the process a grace period between ctx cancellation and the kill
	// so tools can flush their output.
	cmd.WaitDelay = 5 * time.Second

	out, err := cmd.CombinedOutput()
	lines := splitLines(out)

	if err != nil {
		if ctx.Err() != nil {
			return lines, -1, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return lines, exitErr.ExitCode(), nil
		}
		return lines, -1, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return lines, 0, nil
}

func splitLines(out []byte) []string {
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
