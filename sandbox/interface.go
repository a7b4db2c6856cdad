// Package sandbox provides the execution envelope for untrusted payloads.
//
// The sandbox package implements the execution engine for running untrusted
// Python code and package installations in isolated per-request contexts.
// It supports a Docker backend and a direct process backend (for
// development).
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Kind identifies what an execution request runs.
type Kind int

const (
	// KindCode executes a Python source payload.
	KindCode Kind = iota

	// KindInstall installs a package from the package index.
	KindInstall
)

// Request represents the parameters for one sandboxed run. It is only
// constructed for requests that already passed validation and policy.
type Request struct {
	Kind    Kind
	Code    string
	Package string
	Version string // empty for unpinned installs
	Timeout time.Duration
}

// RawResult represents the uninterpreted outcome of a sandboxed run. The
// classifier turns it into a structured outcome; the envelope itself makes
// no judgement beyond the limit flags.
type RawResult struct {
	Stdout        string
	Stderr        string
	ExitCode      int
	TimedOut      bool
	LimitBreached bool
	Truncated     bool
	Duration      time.Duration
	ContextID     string
}

// Executor defines the interface for the execution envelope. Implementations
// must be safe to call concurrently: every call owns a fresh execution
// context and shares no mutable state with other calls.
type Executor interface {
	Execute(ctx context.Context, req Request) (RawResult, error)
}

// Config holds configuration shared by the executors
type Config struct {
	CodeTimeout    time.Duration
	InstallTimeout time.Duration
	MemoryMB       int
	CPUSeconds     int
	MaxOutputBytes int
	WorkspaceRoot  string
	PythonImage    string
	PythonBinary   string
	PipBinary      string
}

// CommandRunner defines an interface for executing system commands
type CommandRunner interface {
	RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using actual exec commands
type RealCommandRunner struct{}

// RunCommand executes the given command with arguments
func (RealCommandRunner) RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error) {
	if len(args) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // Safe as this is controlled input

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	exitCode = 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return "", "", 0, err
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// File permission and name constants
const (
	DirPermission  = 0755
	FilePermission = 0600

	// CodeFileName is where the user payload lands inside the workdir.
	CodeFileName = "main.py"
)

// InstallSpec returns the package specifier handed to the install tool:
// "name==version" for pinned installs, bare name otherwise. Both fields
// have already passed validation and policy at this point.
func InstallSpec(pkg, version string) string {
	if version == "" {
		return pkg
	}
	return pkg + "==" + version
}
