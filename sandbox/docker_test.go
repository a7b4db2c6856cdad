package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dockerArgsString(t *testing.T, runner *MockCommandRunner) string {
	t.Helper()
	require.Len(t, runner.calls, 1)
	return strings.Join(runner.calls[0], " ")
}

func TestDockerExecuteCode(t *testing.T) {
	logger := zaptest.NewLogger(t)
	runner := &MockCommandRunner{stdout: "2\n"}
	fs := &MockFileSystem{}

	executor := NewDockerExecutor(logger, testConfig(),
		WithDockerCommandRunner(runner),
		WithDockerFileSystem(fs),
	)

	result, err := executor.Execute(context.Background(), Request{
		Kind: KindCode,
		Code: "print(1+1)",
	})
	require.NoError(t, err)
	assert.Equal(t, "2\n", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.NotEmpty(t, result.ContextID)

	args := dockerArgsString(t, runner)
	assert.Contains(t, args, "docker run")
	assert.Contains(t, args, "--network none")
	assert.Contains(t, args, "--cap-drop ALL")
	assert.Contains(t, args, "--user nobody")
	assert.Contains(t, args, "--memory 512m")
	assert.Contains(t, args, "python:3.11-slim python3 main.py")

	// User code was written into the context workdir.
	var wroteCode bool
	for name, data := range fs.written {
		if strings.HasSuffix(name, CodeFileName) {
			wroteCode = true
			assert.Equal(t, "print(1+1)", string(data))
		}
	}
	assert.True(t, wroteCode)

	// Workdir erased after the run.
	assert.NotEmpty(t, fs.removed)
}

func TestDockerExecuteInstall(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("PinnedInstall", func(t *testing.T) {
		runner := &MockCommandRunner{stdout: "Successfully installed numpy-1.26.4\n"}
		executor := NewDockerExecutor(logger, testConfig(),
			WithDockerCommandRunner(runner),
			WithDockerFileSystem(&MockFileSystem{}),
		)

		result, err := executor.Execute(context.Background(), Request{
			Kind:    KindInstall,
			Package: "numpy",
			Version: "1.26.4",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)

		args := dockerArgsString(t, runner)
		assert.Contains(t, args, "--network bridge")
		assert.Contains(t, args, "pip install --no-cache-dir numpy==1.26.4")
		assert.NotContains(t, args, "--network none")
	})

	t.Run("UnpinnedInstall", func(t *testing.T) {
		runner := &MockCommandRunner{}
		executor := NewDockerExecutor(logger, testConfig(),
			WithDockerCommandRunner(runner),
			WithDockerFileSystem(&MockFileSystem{}),
		)

		_, err := executor.Execute(context.Background(), Request{
			Kind:    KindInstall,
			Package: "numpy",
		})
		require.NoError(t, err)

		args := dockerArgsString(t, runner)
		assert.Contains(t, args, "pip install --no-cache-dir numpy")
		assert.NotContains(t, args, "==")
	})

	t.Run("InstallFailure", func(t *testing.T) {
		runner := &MockCommandRunner{stderr: "ERROR: No matching distribution found for nosuchpkg\n", exitCode: 1}
		executor := NewDockerExecutor(logger, testConfig(),
			WithDockerCommandRunner(runner),
			WithDockerFileSystem(&MockFileSystem{}),
		)

		result, err := executor.Execute(context.Background(), Request{
			Kind:    KindInstall,
			Package: "nosuchpkg",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.ExitCode)
		assert.Contains(t, result.Stderr, "No matching distribution")
	})
}

func TestDockerExecuteOOM(t *testing.T) {
	logger := zaptest.NewLogger(t)
	runner := &MockCommandRunner{exitCode: dockerOOMExitCode}
	executor := NewDockerExecutor(logger, testConfig(),
		WithDockerCommandRunner(runner),
		WithDockerFileSystem(&MockFileSystem{}),
	)

	result, err := executor.Execute(context.Background(), Request{
		Kind: KindCode,
		Code: "x = 'a' * (10**10)",
	})
	require.NoError(t, err)
	assert.True(t, result.LimitBreached)
	assert.False(t, result.TimedOut)
}

func TestDockerExecuteTimeout(t *testing.T) {
	logger := zaptest.NewLogger(t)
	runner := &MockCommandRunner{block: true}
	cfg := testConfig()
	cfg.CodeTimeout = 50 * time.Millisecond

	executor := NewDockerExecutor(logger, cfg,
		WithDockerCommandRunner(runner),
		WithDockerFileSystem(&MockFileSystem{}),
	)

	start := time.Now()
	result, err := executor.Execute(context.Background(), Request{
		Kind: KindCode,
		Code: "while True: pass",
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, -1, result.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDockerExecuteTruncatesOutput(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	cfg.MaxOutputBytes = 8

	runner := &MockCommandRunner{stdout: "0123456789abcdef"}
	executor := NewDockerExecutor(logger, cfg,
		WithDockerCommandRunner(runner),
		WithDockerFileSystem(&MockFileSystem{}),
	)

	result, err := executor.Execute(context.Background(), Request{Kind: KindCode, Code: "print('x'*100)"})
	require.NoError(t, err)
	assert.Equal(t, "01234567", result.Stdout)
	assert.True(t, result.Truncated)
}
