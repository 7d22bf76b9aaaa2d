package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const defaultCommandTimeout = 10 * time.Second

// runCommand executes a shell command and returns its combined output
// plus a structured CommandDetail so telemetry never has to re-parse
// the display text.
func (ts *toolset) runCommand(ctx context.Context, args map[string]any) (ToolOutput, error) {
	cmdline := stringArg(args, "cmd", "command", "arg1", "arg")
	if cmdline == "" {
		return ToolOutput{}, fmt.Errorf("missing 'cmd' parameter")
	}
	timeout := defaultCommandTimeout
	if secs := intArg(args, 0, "timeout"); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", cmdline)
	cmd.Dir = ts.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	detail := &CommandDetail{
		Command: cmdline,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if cctx.Err() == context.DeadlineExceeded {
		detail.ExitCode = -1
		return ToolOutput{Detail: detail}, fmt.Errorf("command %q timed out after %s", cmdline, timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail.ExitCode = exitErr.ExitCode()
			// Nonzero exit is still a tool-level result, not a failure:
			// the model needs to see the output to react to it.
			return ToolOutput{Text: stdout.String() + stderr.String(), Detail: detail}, nil
		}
		detail.ExitCode = -1
		return ToolOutput{Detail: detail}, fmt.Errorf("running command %q: %w", cmdline, err)
	}

	detail.ExitCode = 0
	return ToolOutput{Text: stdout.String() + stderr.String(), Detail: detail}, nil
}
