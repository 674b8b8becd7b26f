// Package system wraps invocation of external tools behind a Runner so
// that the enrollment stages can be exercised in tests without touching
// the host.
package system

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external tools.
type Runner interface {
	// Run executes a command to completion. In verbose mode output is
	// streamed; otherwise it is captured and folded into the error.
	Run(name string, args ...string) error
	// RunInteractive executes a command with stdin/stdout/stderr
	// connected to the terminal, for tools that prompt the operator.
	RunInteractive(name string, args ...string) error
	// Output executes a command and returns its stdout.
	Output(name string, args ...string) ([]byte, error)
	// LookPath resolves a tool name on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner is the os/exec implementation of Runner.
type ExecRunner struct {
	// Verbose streams child stdout/stderr instead of capturing it.
	Verbose bool
}

// cmdOutput returns the stdout/stderr writers based on the Verbose setting
func (r *ExecRunner) cmdOutput() (io.Writer, io.Writer) {
	if r.Verbose {
		return os.Stdout, os.Stderr
	}
	return io.Discard, io.Discard
}

// Run executes a command to completion.
func (r *ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)

	if r.Verbose {
		stdout, stderr := r.cmdOutput()
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}

	// Capture output for error reporting even in non-verbose mode
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := strings.TrimSpace(string(output))
		if outputStr != "" {
			return fmt.Errorf("%s failed: %w: %s", name, err, outputStr)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// RunInteractive executes a command wired to the terminal.
func (r *ExecRunner) RunInteractive(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// Output executes a command and returns its stdout.
func (r *ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// LookPath resolves a tool name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// MissingTools returns the subset of tools not resolvable on PATH.
// The full list is reported so the operator can install everything in
// one go before any system change is made.
func MissingTools(r Runner, tools []string) []string {
	var missing []string
	for _, tool := range tools {
		if _, err := r.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing
}
