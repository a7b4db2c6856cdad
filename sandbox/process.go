package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// bootstrapFileName is the limit-setting entry script written next to the
// user payload. The interpreter runs this, never the payload directly, so
// resource limits are in place before any user code is parsed.
const bootstrapFileName = "_bootstrap.py"

// ProcessExecutor implements Executor by running payloads as direct child
// processes on the host. It offers no network isolation and should only be
// enabled for development; the Docker backend is the production envelope.
type ProcessExecutor struct {
	logger *zap.Logger
	config *Config
	fs     FileSystem
}

// ProcessExecutorOption defines a functional option for ProcessExecutor
type ProcessExecutorOption func(*ProcessExecutor)

// WithProcessFileSystem sets the FileSystem for ProcessExecutor
func WithProcessFileSystem(fs FileSystem) ProcessExecutorOption {
	return func(p *ProcessExecutor) {
		p.fs = fs
	}
}

// NewProcessExecutor creates a new ProcessExecutor with default implementations and optional interfaces
func NewProcessExecutor(logger *zap.Logger, config *Config, opts ...ProcessExecutorOption) *ProcessExecutor {
	executor := &ProcessExecutor{
		logger: logger,
		config: config,
		fs:     &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the payload as a child process in its own process group,
// inside a fresh execution context that is erased on every exit path.
func (p *ProcessExecutor) Execute(ctx context.Context, req Request) (RawResult, error) {
	ectx, err := NewContext(p.fs, p.config.WorkspaceRoot)
	if err != nil {
		return RawResult{}, fmt.Errorf("failed to allocate execution context: %w", err)
	}
	defer func() {
		if closeErr := ectx.Close(); closeErr != nil {
			p.logger.Error("failed to tear down execution context",
				zap.String("context_id", ectx.ID), zap.Error(closeErr))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, p.timeoutFor(req))
	defer cancel()

	cmd, err := p.buildCommand(runCtx, ectx, req)
	if err != nil {
		return RawResult{ContextID: ectx.ID}, err
	}

	cmd.Dir = ectx.Workdir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// On cancellation, kill the entire process group so forked descendants
	// do not survive past the deadline.
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second

	stdout := newBoundedBuffer(p.config.MaxOutputBytes)
	stderr := newBoundedBuffer(p.config.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	result := RawResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  ectx.Elapsed(),
		ContextID: ectx.ID,
	}

	// Deadline expiry wins over whatever exit state the kill produced.
	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		p.logger.Warn("execution timed out",
			zap.String("context_id", ectx.ID),
			zap.Duration("elapsed", result.Duration))
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return RawResult{ContextID: ectx.ID}, fmt.Errorf("failed to run payload: %w", runErr)
		}
		result.ExitCode = exitErr.ExitCode()

		// A SIGKILL or SIGXCPU death outside the deadline means the kernel
		// enforced one of the rlimits set by the bootstrap script.
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			if ws.Signal() == syscall.SIGKILL || ws.Signal() == syscall.SIGXCPU {
				result.LimitBreached = true
			}
		}
	}

	return result, nil
}

func (p *ProcessExecutor) timeoutFor(req Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if req.Kind == KindInstall {
		return p.config.InstallTimeout
	}
	return p.config.CodeTimeout
}

func (p *ProcessExecutor) buildCommand(ctx context.Context, ectx *Context, req Request) (*exec.Cmd, error) {
	switch req.Kind {
	case KindCode:
		codePath := filepath.Join(ectx.Workdir, CodeFileName)
		if err := p.fs.WriteFile(codePath, []byte(req.Code), FilePermission); err != nil {
			return nil, fmt.Errorf("failed to write user code: %w", err)
		}

		bootstrapPath := filepath.Join(ectx.Workdir, bootstrapFileName)
		if err := p.fs.WriteFile(bootstrapPath, []byte(p.bootstrapScript()), FilePermission); err != nil {
			return nil, fmt.Errorf("failed to write bootstrap script: %w", err)
		}

		return exec.CommandContext(ctx, p.config.PythonBinary, bootstrapFileName), nil

	case KindInstall:
		//nolint:gosec // Package and version passed validation and policy
		return exec.CommandContext(ctx, p.config.PipBinary,
			"install", "--no-cache-dir", InstallSpec(req.Package, req.Version)), nil

	default:
		return nil, fmt.Errorf("unsupported request kind: %d", req.Kind)
	}
}

// bootstrapScript returns the Python entry script that applies the memory
// and CPU rlimits, then hands control to the user payload.
func (p *ProcessExecutor) bootstrapScript() string {
	script := "import resource, runpy\n"
	if p.config.MemoryMB > 0 {
		limit := p.config.MemoryMB * 1024 * 1024
		script += fmt.Sprintf("resource.setrlimit(resource.RLIMIT_AS, (%d, %d))\n", limit, limit)
	}
	if p.config.CPUSeconds > 0 {
		script += fmt.Sprintf("resource.setrlimit(resource.RLIMIT_CPU, (%d, %d))\n", p.config.CPUSeconds, p.config.CPUSeconds)
	}
	script += fmt.Sprintf("runpy.run_path(%q, run_name=\"__main__\")\n", CodeFileName)
	return script
}
