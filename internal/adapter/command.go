package adapter

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandRunner defines an interface for running external processes to enable mocking
//
//go:generate mockgen -source=command.go -destination=../mocks/command.go -package=mocks -mock_names=CommandRunner=MockCommandRunner
type CommandRunner interface {
	// Run executes name with args in dir and returns captured stdout and stderr.
	// The process is killed when ctx is done.
	Run(ctx context.Context, dir string, name string, args ...string) (stdout []byte, stderr []byte, err error)

	// LookPath searches for an executable named file in the PATH
	LookPath(file string) (string, error)
}

// RealCommandRunner implements CommandRunner using os/exec
type RealCommandRunner struct{}

// NewCommandRunner creates a new real command runner
func NewCommandRunner() CommandRunner {
	return &RealCommandRunner{}
}

func (r *RealCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec,G204
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (r *RealCommandRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
