package classify

import (
	"time"

	"github.com/isdmx/runbox/sandbox"
)

// Status is the structured categorization of how an execution ended.
type Status int

const (
	// StatusSuccess means the payload ran to completion with a clean exit.
	StatusSuccess Status = iota

	// StatusMalformedInput means the submission failed validation before
	// any execution resource was consumed. Distinct from StatusSyntaxError:
	// the payload was never handed to an interpreter.
	StatusMalformedInput

	// StatusSyntaxError means the payload failed to parse.
	StatusSyntaxError

	// StatusRuntimeError means the payload raised an unhandled exception
	// or exited nonzero.
	StatusRuntimeError

	// StatusPolicyViolation means policy denied the request, or approval
	// was required and not granted.
	StatusPolicyViolation

	// StatusTimeout means the wall-clock deadline expired.
	StatusTimeout

	// StatusResourceLimit means a memory or CPU ceiling was breached.
	StatusResourceLimit

	// StatusInternalError means the sandbox itself failed, not the payload.
	StatusInternalError
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusMalformedInput:
		return "malformed_input"
	case StatusSyntaxError:
		return "syntax_error"
	case StatusRuntimeError:
		return "runtime_error"
	case StatusPolicyViolation:
		return "policy_violation"
	case StatusTimeout:
		return "timeout"
	case StatusResourceLimit:
		return "resource_limit_exceeded"
	case StatusInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Outcome is the structured result returned to the caller. Captured text
// is untrusted payload output, surfaced verbatim within the envelope's
// size bound and never interpreted.
type Outcome struct {
	Status    Status
	Stdout    string
	Stderr    string
	Detail    string // reason for non-execution outcomes (policy, validation, internal)
	Traceback *Traceback
	Truncated bool
	Duration  time.Duration
}

// Classify interprets a raw execution result into a structured outcome.
// Decision order: timeout, resource limit, clean exit, syntax error,
// runtime error.
func Classify(raw sandbox.RawResult) Outcome {
	out := Outcome{
		Stdout:    raw.Stdout,
		Stderr:    raw.Stderr,
		Truncated: raw.Truncated,
		Duration:  raw.Duration,
	}

	switch {
	case raw.TimedOut:
		out.Status = StatusTimeout
		out.Detail = "execution exceeded the wall-clock deadline"
		return out

	case raw.LimitBreached:
		out.Status = StatusResourceLimit
		out.Detail = "execution exceeded a resource ceiling"
		return out
	}

	// A clean exit is a success regardless of what landed on stderr;
	// warnings are not errors.
	if raw.ExitCode == 0 {
		out.Status = StatusSuccess
		return out
	}

	if tb := ParseTraceback(raw.Stderr); tb != nil {
		out.Traceback = tb
		switch {
		case tb.IsSyntaxError():
			out.Status = StatusSyntaxError
		case tb.Type == "MemoryError":
			// The allocator hit the address-space rlimit before the kernel
			// had to kill anything.
			out.Status = StatusResourceLimit
		default:
			out.Status = StatusRuntimeError
		}
		return out
	}

	// Nonzero exit with no recognizable diagnostic: still the payload's
	// fault, just without a parseable trace.
	out.Status = StatusRuntimeError
	return out
}

// MalformedInput builds the outcome for a submission that failed
// validation.
func MalformedInput(reason string) Outcome {
	return Outcome{Status: StatusMalformedInput, Detail: reason}
}

// PolicyViolation builds the outcome for a request refused by policy.
func PolicyViolation(reason string) Outcome {
	return Outcome{Status: StatusPolicyViolation, Detail: reason}
}

// InternalError builds the outcome for a fault of the sandbox itself.
func InternalError(err error) Outcome {
	return Outcome{Status: StatusInternalError, Detail: err.Error()}
}
