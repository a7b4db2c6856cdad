package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/runbox/config"
)

// NewExecutor creates an appropriate executor based on the configuration
func NewExecutor(logger *zap.Logger, cfg *config.Config) (Executor, error) {
	executorConfig := &Config{
		CodeTimeout:    cfg.CodeTimeout(),
		InstallTimeout: cfg.InstallTimeout(),
		MemoryMB:       cfg.Sandbox.MemoryMB,
		CPUSeconds:     cfg.Sandbox.CPUSeconds,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
		WorkspaceRoot:  cfg.Sandbox.WorkspaceRoot,
		PythonImage:    cfg.Sandbox.PythonImage,
		PythonBinary:   cfg.Sandbox.PythonBinary,
		PipBinary:      cfg.Sandbox.PipBinary,
	}

	if executorConfig.WorkspaceRoot != "" {
		fs := RealFileSystem{}
		if err := fs.MkdirAll(executorConfig.WorkspaceRoot, DirPermission); err != nil {
			return nil, fmt.Errorf("failed to create workspace root: %w", err)
		}
	}

	switch cfg.Sandbox.Backend {
	case "docker":
		return NewDockerExecutor(logger, executorConfig), nil
	case "process":
		logger.Warn("process backend enabled: no network isolation, development use only")
		return NewProcessExecutor(logger, executorConfig), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
