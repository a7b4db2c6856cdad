package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// dockerOOMExitCode is what docker reports when the kernel OOM-kills the
// containerized payload.
const dockerOOMExitCode = 137

// DockerExecutor implements Executor using Docker containers with resource
// limits, dropped capabilities, and network isolation. Code runs with no
// network at all; package installs get bridge networking so the install
// tool can reach the package index.
type DockerExecutor struct {
	logger    *zap.Logger
	config    *Config
	cmdRunner CommandRunner
	fs        FileSystem
}

// DockerExecutorOption defines a functional option for DockerExecutor
type DockerExecutorOption func(*DockerExecutor)

// WithDockerCommandRunner sets the CommandRunner for DockerExecutor
func WithDockerCommandRunner(cmdRunner CommandRunner) DockerExecutorOption {
	return func(d *DockerExecutor) {
		d.cmdRunner = cmdRunner
	}
}

// WithDockerFileSystem sets the FileSystem for DockerExecutor
func WithDockerFileSystem(fs FileSystem) DockerExecutorOption {
	return func(d *DockerExecutor) {
		d.fs = fs
	}
}

// NewDockerExecutor creates a new DockerExecutor with default implementations and optional interfaces
func NewDockerExecutor(logger *zap.Logger, config *Config, opts ...DockerExecutorOption) *DockerExecutor {
	executor := &DockerExecutor{
		logger:    logger,
		config:    config,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the payload in a one-shot container bound to a fresh
// execution context. The container and the context workdir are both gone
// when Execute returns, on every path.
func (d *DockerExecutor) Execute(ctx context.Context, req Request) (RawResult, error) {
	ectx, err := NewContext(d.fs, d.config.WorkspaceRoot)
	if err != nil {
		return RawResult{}, fmt.Errorf("failed to allocate execution context: %w", err)
	}
	defer func() {
		if closeErr := ectx.Close(); closeErr != nil {
			d.logger.Error("failed to tear down execution context",
				zap.String("context_id", ectx.ID), zap.Error(closeErr))
		}
	}()

	containerName := "runbox-exec-" + ectx.ID

	cmdArgs, err := d.buildRunArgs(ectx, req, containerName)
	if err != nil {
		return RawResult{ContextID: ectx.ID}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeoutFor(req))
	defer cancel()

	stdout, stderr, exitCode, runErr := d.cmdRunner.RunCommand(runCtx, cmdArgs)

	stdout, stdoutCut := truncate(stdout, d.config.MaxOutputBytes)
	stderr, stderrCut := truncate(stderr, d.config.MaxOutputBytes)

	result := RawResult{
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  exitCode,
		Truncated: stdoutCut || stderrCut,
		Duration:  ectx.Elapsed(),
		ContextID: ectx.ID,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		// The container may still be alive; remove it forcibly so nothing
		// belonging to this request keeps running.
		rmCmd := exec.CommandContext(ctx, "docker", "rm", "-f", containerName)
		if rmErr := rmCmd.Run(); rmErr != nil {
			d.logger.Warn("failed to remove container after timeout",
				zap.String("container", containerName), zap.Error(rmErr))
		}

		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if runErr != nil {
		return RawResult{ContextID: ectx.ID}, fmt.Errorf("failed to execute container: %w", runErr)
	}

	if exitCode == dockerOOMExitCode {
		result.LimitBreached = true
	}

	return result, nil
}

func (d *DockerExecutor) timeoutFor(req Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if req.Kind == KindInstall {
		return d.config.InstallTimeout
	}
	return d.config.CodeTimeout
}

// buildRunArgs assembles the docker run command line with the security
// restrictions shared by both request kinds.
func (d *DockerExecutor) buildRunArgs(ectx *Context, req Request, containerName string) ([]string, error) {
	cmdArgs := []string{
		"docker", "run",
		"--name", containerName,
		"--rm", // Remove container after execution
		"-v", fmt.Sprintf("%s:/workdir", ectx.Workdir),
		"--workdir", "/workdir",
		"--memory", fmt.Sprintf("%dm", d.config.MemoryMB),
		"--ulimit", fmt.Sprintf("cpu=%d", d.config.CPUSeconds),
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL", // Drop all capabilities
	}

	switch req.Kind {
	case KindCode:
		codePath := filepath.Join(ectx.Workdir, CodeFileName)
		if err := d.fs.WriteFile(codePath, []byte(req.Code), FilePermission); err != nil {
			return nil, fmt.Errorf("failed to write user code: %w", err)
		}

		cmdArgs = append(cmdArgs,
			"--network", "none", // No network access for code execution
			"--user", "nobody", // Run as non-privileged user
			d.config.PythonImage,
			d.config.PythonBinary, CodeFileName,
		)

	case KindInstall:
		// Installs need the package index, nothing else.
		cmdArgs = append(cmdArgs,
			"--network", "bridge",
			d.config.PythonImage,
			d.config.PipBinary, "install", "--no-cache-dir", InstallSpec(req.Package, req.Version),
		)

	default:
		return nil, fmt.Errorf("unsupported request kind: %d", req.Kind)
	}

	return cmdArgs, nil
}
