// Package runner executes the configured test command through the shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dshills/covdiff/internal/logger"
)

// ExitError reports a command that exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLines(s, 20)
	}
	return msg
}

// Shell runs commands with `sh -c`. Output is streamed to Stdout and Stderr
// (the process streams when nil).
type Shell struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Log    *logger.Logger
}

// Run executes command and returns an *ExitError if it exits non-zero.
func (s *Shell) Run(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("empty command")
	}
	log := s.Log
	if log == nil {
		log = logger.Nop()
	}

	stdout := s.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := s.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var captured bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = s.Dir
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &captured)

	log.Infof("running %s", command)
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: command, Code: exitErr.ExitCode(), Stderr: captured.String()}
	}
	return fmt.Errorf("running %q: %w", command, err)
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
