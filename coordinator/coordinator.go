package coordinator

import (
	"context"

	"go.uber.org/zap"

	"github.com/isdmx/runbox/classify"
	"github.com/isdmx/runbox/policy"
	"github.com/isdmx/runbox/sandbox"
	"github.com/isdmx/runbox/validate"
)

// Coordinator orchestrates one request through validation, policy, the
// execution envelope, and classification. Every request yields exactly one
// outcome: validator and policy rejections resolve locally without ever
// touching the envelope, and execution-time failures are captured, never
// propagated as unhandled faults.
//
// The Coordinator holds no per-request state and is safe for concurrent
// use; each in-flight request owns its own execution context.
type Coordinator struct {
	logger    *zap.Logger
	validator *validate.Validator
	engine    *policy.Engine
	executor  sandbox.Executor
}

// New creates a Coordinator
func New(logger *zap.Logger, validator *validate.Validator, engine *policy.Engine, executor sandbox.Executor) *Coordinator {
	return &Coordinator{
		logger:    logger,
		validator: validator,
		engine:    engine,
		executor:  executor,
	}
}

// ExecuteCode runs a code payload through the full pipeline and returns
// its classified outcome. The error return is non-nil only for internal
// sandbox faults; user-attributable failures always come back as a
// structured outcome with a nil error.
func (c *Coordinator) ExecuteCode(ctx context.Context, code string) (classify.Outcome, error) {
	if err := c.validator.Code(code); err != nil {
		c.logger.Info("code request rejected by validator", zap.Error(err))
		return classify.MalformedInput(err.Error()), nil
	}

	decision := c.engine.Decide(policy.Request{Kind: policy.KindCode})
	if outcome, rejected := c.rejectByPolicy(decision); rejected {
		return outcome, nil
	}

	return c.run(ctx, sandbox.Request{
		Kind: sandbox.KindCode,
		Code: code,
	})
}

// InstallPackage runs a package installation through the full pipeline.
// Version may be empty for an unpinned install.
func (c *Coordinator) InstallPackage(ctx context.Context, name, version string) (classify.Outcome, error) {
	if err := c.validator.Package(name); err != nil {
		c.logger.Info("install request rejected by validator",
			zap.String("package", name), zap.Error(err))
		return classify.MalformedInput(err.Error()), nil
	}

	decision := c.engine.Decide(policy.Request{
		Kind:    policy.KindPackageInstall,
		Package: name,
		Version: version,
	})
	if outcome, rejected := c.rejectByPolicy(decision); rejected {
		c.logger.Info("install request refused by policy",
			zap.String("package", name),
			zap.String("verdict", decision.Verdict.String()),
			zap.String("matched_rule", decision.MatchedRule))
		return outcome, nil
	}

	if decision.Unpinned {
		c.logger.Warn("unpinned package install permitted",
			zap.String("package", name))
	}

	return c.run(ctx, sandbox.Request{
		Kind:    sandbox.KindInstall,
		Package: name,
		Version: version,
	})
}

// rejectByPolicy maps a non-allow verdict to its terminal outcome.
// RequiresApproval fails closed: without an approval signal it is
// indistinguishable from a denial to the caller.
func (c *Coordinator) rejectByPolicy(decision policy.Decision) (classify.Outcome, bool) {
	switch decision.Verdict {
	case policy.Deny, policy.RequiresApproval:
		return classify.PolicyViolation(decision.Reason), true
	default:
		return classify.Outcome{}, false
	}
}

// run hands an approved request to the envelope and classifies the result.
func (c *Coordinator) run(ctx context.Context, req sandbox.Request) (classify.Outcome, error) {
	raw, err := c.executor.Execute(ctx, req)
	if err != nil {
		// The sandbox itself failed, not the payload. Rare and surfaced
		// upward for operator attention.
		c.logger.Error("sandbox internal fault", zap.Error(err))
		return classify.InternalError(err), err
	}

	outcome := classify.Classify(raw)
	c.logger.Info("request classified",
		zap.String("context_id", raw.ContextID),
		zap.String("status", outcome.Status.String()),
		zap.Duration("duration", outcome.Duration),
		zap.Bool("truncated", outcome.Truncated))

	return outcome, nil
}
