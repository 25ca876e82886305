// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package xproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external command invocation.
type Command struct {
	// Argv is the command and its arguments. Argv[0] is resolved
	// against PATH. Required, must be non-empty.
	Argv []string

	// Dir is the working directory for the command. Empty means the
	// calling process's working directory.
	Dir string

	// Env is appended to the inherited environment for this invocation
	// only, as "KEY=value" pairs. Later entries override earlier ones
	// and the inherited environment, following os/exec semantics.
	Env []string
}

// ExitError reports a command that exited with a non-zero status. It
// carries the merged stdout+stderr text so callers can relay the
// command's own account of the failure.
type ExitError struct {
	// Argv is the command that failed.
	Argv []string

	// Code is the process exit code. -1 when the process was killed
	// by a signal or never ran to completion.
	Code int

	// Output is the merged stdout+stderr text captured before exit.
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.Code)
}

// Run executes the command and returns its merged stdout+stderr output.
// It blocks until the command terminates or ctx is cancelled. A
// non-zero exit is returned as an [*ExitError] wrapping the captured
// output; other failures (command not found, ctx cancellation) are
// returned as ordinary errors.
func Run(ctx context.Context, command Command) (string, error) {
	if len(command.Argv) == 0 {
		return "", fmt.Errorf("xproc: empty argv")
	}

	execCommand := exec.CommandContext(ctx, command.Argv[0], command.Argv[1:]...)
	execCommand.Dir = command.Dir
	if len(command.Env) > 0 {
		execCommand.Env = append(os.Environ(), command.Env...)
	}

	// One buffer for both streams. The tools lanebot drives (git,
	// bundler, fastlane) split progress and errors across stdout and
	// stderr arbitrarily; interleaved capture keeps the transcript in
	// the order a terminal would show it.
	var output bytes.Buffer
	execCommand.Stdout = &output
	execCommand.Stderr = &output

	err := execCommand.Run()
	if err == nil {
		return output.String(), nil
	}

	var execExit *exec.ExitError
	if errors.As(err, &execExit) {
		return "", &ExitError{
			Argv:   command.Argv,
			Code:   execExit.ExitCode(),
			Output: output.String(),
		}
	}

	// Not an exit status: spawn failure or context cancellation.
	if ctx.Err() != nil {
		return "", fmt.Errorf("xproc: %s: %w", strings.Join(command.Argv, " "), ctx.Err())
	}
	return "", fmt.Errorf("xproc: %s: %w", strings.Join(command.Argv, " "), err)
}
