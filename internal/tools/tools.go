// Package tools invokes the wrapped external programs. The pipeline
// depends only on the Runner signature and on the documented output
// formats of the two measurement tools; the argument grammars live
// with their callers.
package tools

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/SGullin/arpa/internal/logging"
)

// Runner runs an external tool synchronously and returns its captured
// stdout. The call blocks until the subprocess exits.
type Runner interface {
	Run(tool string, args ...string) (string, error)
}

// ToolError reports a tool that could not complete, with everything it
// had to say.
type ToolError struct {
	Tool     string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf(
		"tool %q failed (code: %d)\n-- stdout:\n%s\n-- stderr:\n%s",
		e.Tool, e.ExitCode, e.Stdout, e.Stderr,
	)
}

// ExecRunner runs tools as subprocesses, buffering their output.
type ExecRunner struct {
	Logger logging.Logger
}

var _ Runner = (*ExecRunner)(nil)

// Run executes the tool and returns its stdout. A non-zero exit or
// non-UTF8 output is a ToolError; stderr chatter alone is only logged.
func (r *ExecRunner) Run(tool string, args ...string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	logger.Debug("running tool", "tool", tool, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		code := -1
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &ToolError{
			Tool:     tool,
			ExitCode: code,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	if stderr.Len() > 0 {
		logger.Warn("tool printed to stderr", "tool", tool, "stderr", stderr.String())
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", &ToolError{
			Tool:     tool,
			ExitCode: 0,
			Stdout:   "(not valid UTF-8)",
			Stderr:   stderr.String(),
		}
	}

	return stdout.String(), nil
}

// PSRChive fronts the psrchive tool suite, resolving tool names
// against a configured directory (or PATH when empty).
type PSRChive struct {
	Dir    string
	Runner Runner
}

// Run invokes a psrchive tool by name.
func (p *PSRChive) Run(tool string, args ...string) (string, error) {
	path := tool
	if p.Dir != "" {
		path = filepath.Join(p.Dir, tool)
	}
	return p.Runner.Run(path, args...)
}

// Tempo2Fit calls tempo2 to perform a timing fit on a par/tim pair.
func Tempo2Fit(runner Runner, parFile, timFile string) error {
	_, err := runner.Run("tempo2", "-f", parFile, timFile)
	if err != nil {
		return fmt.Errorf("tempo2 fit: %w", err)
	}
	return nil
}
