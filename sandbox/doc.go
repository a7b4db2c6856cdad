// Package sandbox provides the execution envelope for untrusted payloads.
//
// The sandbox package runs untrusted Python code and package installations
// inside isolated per-request execution contexts. Each request gets a fresh
// context (unique id, ephemeral working directory, resource limits) that is
// torn down unconditionally when the request finishes, including on timeout
// and crash, with the whole process group terminated so no descendants
// survive the deadline.
//
// Two backends implement the Executor interface: DockerExecutor runs
// payloads in one-shot containers with dropped capabilities and network
// isolation, and ProcessExecutor runs them as direct child processes (for
// development only).
//
// Usage:
//
//	executor, err := sandbox.NewExecutor(logger, cfg)
//	result, err := executor.Execute(ctx, sandbox.Request{
//	    Kind: sandbox.KindCode,
//	    Code: "print('Hello, World!')",
//	})
package sandbox
