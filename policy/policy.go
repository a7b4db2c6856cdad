package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict represents the policy decision for a request.
type Verdict int

const (
	// Allow indicates the request may proceed to execution.
	Allow Verdict = iota

	// Deny indicates the request must not be executed.
	Deny

	// RequiresApproval indicates the request needs an explicit approval
	// signal before it may run. Absent that signal the coordinator treats
	// it as denied (fail-closed).
	RequiresApproval
)

// String returns the string representation of a Verdict.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RequiresApproval:
		return "requires_approval"
	default:
		return "unknown"
	}
}

// Kind identifies the type of request being decided.
type Kind int

const (
	// KindCode is a code execution request.
	KindCode Kind = iota

	// KindPackageInstall is a package installation request.
	KindPackageInstall
)

// Request is the policy engine's view of a submission.
type Request struct {
	Kind    Kind
	Package string
	Version string
}

// Decision holds the outcome of a policy check. Computed once per request
// and immutable afterwards.
type Decision struct {
	// Verdict is the policy verdict.
	Verdict Verdict

	// Reason is a human-readable explanation of why this verdict was reached.
	Reason string

	// MatchedRule is the identifier of the rule that fired, if any.
	MatchedRule string

	// Unpinned reports that a package install declared no version. Such
	// installs are allowed but higher-risk, and callers log them as such.
	Unpinned bool
}

// Declared versions must pin to a concrete release: numeric dotted core
// with an optional pre/post/dev suffix. Anything looser is an injection
// vector when handed to the install tool.
var versionPattern = regexp.MustCompile(`^\d+(\.\d+){0,3}((a|b|rc)\d+)?(\.(post|dev)\d+)?$`)

// Engine is the policy decision logic. It is a pure function over the
// request and rule sets fixed at construction; it performs no I/O and is
// safe for concurrent use.
type Engine struct {
	rules              Rules
	denySet            map[string]struct{}
	suspiciousSet      map[string]struct{}
	denyPatterns       []*regexp.Regexp
	suspiciousPatterns []*regexp.Regexp
}

// NewEngine creates an Engine from the given rule sets. Pattern rules are
// compiled once here; a malformed pattern fails construction rather than
// silently matching nothing.
func NewEngine(rules Rules) (*Engine, error) {
	e := &Engine{
		rules:         rules,
		denySet:       make(map[string]struct{}, len(rules.Deny)),
		suspiciousSet: make(map[string]struct{}, len(rules.Suspicious)),
	}

	for _, name := range rules.Deny {
		e.denySet[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range rules.Suspicious {
		e.suspiciousSet[strings.ToLower(name)] = struct{}{}
	}

	for _, pattern := range rules.DenyPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", pattern, err)
		}
		e.denyPatterns = append(e.denyPatterns, re)
	}
	for _, pattern := range rules.SuspiciousPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid suspicious pattern %q: %w", pattern, err)
		}
		e.suspiciousPatterns = append(e.suspiciousPatterns, re)
	}

	return e, nil
}

// Decide computes the policy verdict for a request. Precedence: deny-list
// match wins over suspicious-list match wins over allow.
func (e *Engine) Decide(req Request) Decision {
	if req.Kind == KindCode {
		// No deny/allow rules exist for code payloads; formatting checks
		// happen in the validator. Extension point for forbidden-module
		// rules.
		return Decision{
			Verdict: Allow,
			Reason:  "no code execution rules configured",
		}
	}

	name := strings.ToLower(req.Package)

	if _, blocked := e.denySet[name]; blocked {
		return Decision{
			Verdict:     Deny,
			Reason:      fmt.Sprintf("package %q is blocked for security reasons", req.Package),
			MatchedRule: "deny-list:" + name,
		}
	}

	for _, re := range e.denyPatterns {
		if re.MatchString(name) {
			return Decision{
				Verdict:     Deny,
				Reason:      fmt.Sprintf("package %q matches a blocked pattern", req.Package),
				MatchedRule: "deny-pattern:" + re.String(),
			}
		}
	}

	if _, flagged := e.suspiciousSet[name]; flagged {
		return Decision{
			Verdict:     RequiresApproval,
			Reason:      fmt.Sprintf("package %q requires administrative approval", req.Package),
			MatchedRule: "suspicious-list:" + name,
		}
	}

	for _, re := range e.suspiciousPatterns {
		if re.MatchString(name) {
			return Decision{
				Verdict:     RequiresApproval,
				Reason:      fmt.Sprintf("package %q matches a pattern requiring approval", req.Package),
				MatchedRule: "suspicious-pattern:" + re.String(),
			}
		}
	}

	if req.Version == "" {
		return Decision{
			Verdict:  Allow,
			Reason:   "package not on any rule list; install is unpinned",
			Unpinned: true,
		}
	}

	if !versionPattern.MatchString(req.Version) {
		return Decision{
			Verdict:     Deny,
			Reason:      fmt.Sprintf("declared version %q is not a strict version pin", req.Version),
			MatchedRule: "version-pin",
		}
	}

	return Decision{
		Verdict: Allow,
		Reason:  "package not on any rule list",
	}
}
