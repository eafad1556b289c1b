package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"superyield/internal/domain"
	"superyield/internal/prompt"
	"superyield/internal/reasoner"
	"superyield/internal/risk"
)

// ErrNoReasoner is returned when the agent has no reasoning service.
var ErrNoReasoner = errors.New("agent: reasoning service not configured")

// ServiceError means the reasoning call itself failed (network, auth, quota
// or a broken stream). It is distinct from a rejected or malformed decision.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "reasoning service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Result is either an accepted decision (Decision set, Reason empty) or a
// rejection carrying the reason code. Raw keeps the producer's text.
type Result struct {
	Decision *domain.AllocationDecision
	Reason   risk.Reason
	Raw      string
}

func (r Result) OK() bool { return r.Decision != nil && r.Reason == "" }

// Agent drives one decision per call. It holds no per-request state and is
// safe for concurrent use.
type Agent struct {
	Reasoner    reasoner.Service
	Validator   *risk.Validator
	Logger      *zap.Logger
	Temperature float64
	MaxTokens   int64
	// Timeout bounds one reasoning call; zero means no extra bound.
	Timeout time.Duration
	// Pacing is the base delay between informational stream events. Every
	// second pause is a third longer.
	Pacing time.Duration
}

// Model names the underlying model, or "" when unconfigured.
func (a *Agent) Model() string {
	if a == nil || a.Reasoner == nil {
		return ""
	}
	return a.Reasoner.Model()
}

// Configured reports whether a reasoning service is wired.
func (a *Agent) Configured() bool { return a != nil && a.Reasoner != nil }

// Decide asks for one structured decision and validates it. A rejected or
// unparseable reply is a Result with a Reason, not an error.
func (a *Agent) Decide(ctx context.Context, state domain.VaultState, opps []domain.YieldOpportunity, c domain.OptimizationConstraints) (Result, error) {
	if !a.Configured() {
		return Result{}, ErrNoReasoner
	}

	req := reasoner.Request{
		System:      prompt.BuildContext(c),
		User:        prompt.BuildSituation(state, opps),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Schema: &reasoner.Schema{
			Name:        prompt.DecisionSchemaName,
			Description: "Vault capital allocation decision",
			Definition:  prompt.DecisionSchema(),
		},
	}

	callCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	raw, err := a.Reasoner.Complete(callCtx, req)
	if err != nil {
		a.logError("agent: completion failed", err)
		return Result{}, &ServiceError{Op: "complete", Err: err}
	}
	a.logDebug("agent: completion received", zap.Duration("latency", time.Since(start)), zap.Int("bytes", len(raw)))

	candidate := strings.TrimSpace(raw)
	if !json.Valid([]byte(candidate)) {
		// Some providers wrap structured output in prose or fences.
		if extracted, ok := ExtractJSON(candidate); ok {
			candidate = extracted
		}
	}
	return a.reconcile(candidate, raw, opps, c), nil
}

func (a *Agent) reconcile(candidate, raw string, opps []domain.YieldOpportunity, c domain.OptimizationConstraints) Result {
	d, err := domain.ParseDecision([]byte(candidate))
	if err != nil {
		a.logInfo("agent: malformed decision", zap.Error(err))
		return Result{Reason: risk.ReasonMalformedOutput, Raw: raw}
	}
	verdict := a.Validator.Validate(d, opps, c)
	if !verdict.Accepted() {
		a.logInfo("agent: decision rejected",
			zap.String("reason", string(verdict.Reason)),
			zap.String("target", d.TargetVault),
			zap.Float64("confidence", d.Confidence),
		)
		return Result{Reason: verdict.Reason, Raw: raw}
	}
	a.logInfo("agent: decision accepted",
		zap.String("target", d.TargetVault),
		zap.String("amount", d.Amount),
		zap.Float64("improvement", d.Improvement),
		zap.Float64("confidence", d.Confidence),
	)
	return Result{Decision: &d, Raw: raw}
}

func (a *Agent) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Timeout)
}

func (a *Agent) logDebug(msg string, fields ...zap.Field) {
	if a.Logger != nil {
		a.Logger.Debug(msg, fields...)
	}
}

func (a *Agent) logInfo(msg string, fields ...zap.Field) {
	if a.Logger != nil {
		a.Logger.Info(msg, fields...)
	}
}

func (a *Agent) logError(msg string, err error) {
	if a.Logger != nil {
		a.Logger.Error(msg, zap.Error(err))
	}
}
