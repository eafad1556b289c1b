package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/config"
	"superyield/internal/domain"
	"superyield/internal/vaultstate"
)

// OpportunitySource lists candidate vaults for a scheduled run.
type OpportunitySource interface {
	Opportunities(ctx context.Context) ([]domain.YieldOpportunity, error)
}

// Autopilot runs the auto-optimize flow without an HTTP caller.
type Autopilot struct {
	Agent       *agent.Agent
	State       vaultstate.Provider
	Feed        OpportunitySource
	Journal     *JournalService
	Constraints domain.OptimizationConstraints
	Logger      *zap.Logger
}

// ScheduledConstraints applies non-zero scheduler overrides to the defaults.
func ScheduledConstraints(cfg config.SchedulerConfig) (domain.OptimizationConstraints, error) {
	c := domain.DefaultConstraints()
	if cfg.MinTVL > 0 {
		c.MinTVL = cfg.MinTVL
	}
	if cfg.MaxDilution > 0 {
		c.MaxDilution = cfg.MaxDilution
	}
	if cfg.MinSharpe > 0 {
		c.MinSharpe = cfg.MinSharpe
	}
	if cfg.RiskTolerance != "" {
		level, err := domain.ParseRiskLevel(cfg.RiskTolerance)
		if err != nil {
			return domain.OptimizationConstraints{}, err
		}
		c.RiskTolerance = level
	}
	return c, nil
}

// RunOnce performs one scheduled decision and journals its outcome.
func (p *Autopilot) RunOnce(ctx context.Context) (agent.Result, error) {
	if p == nil || !p.Agent.Configured() {
		return agent.Result{}, agent.ErrNoReasoner
	}
	if p.State == nil || p.Feed == nil {
		return agent.Result{}, fmt.Errorf("autopilot: state provider and feed are required")
	}
	start := time.Now()

	opps, err := p.Feed.Opportunities(ctx)
	if err != nil {
		return agent.Result{}, fmt.Errorf("autopilot: opportunities: %w", err)
	}
	if len(opps) == 0 {
		p.info("autopilot: no opportunities configured")
		return agent.Result{}, nil
	}

	state, err := p.State.FetchVaultState(ctx)
	if err != nil {
		p.Journal.Record(ctx, Entry{Source: SourceScheduled, Model: p.Agent.Model(), Constraints: p.Constraints, Err: err, Latency: time.Since(start)})
		return agent.Result{}, err
	}

	res, err := p.Agent.Decide(ctx, state, opps, p.Constraints)
	p.Journal.Record(ctx, Entry{
		Source:      SourceScheduled,
		Model:       p.Agent.Model(),
		State:       &state,
		Constraints: p.Constraints,
		Result:      res,
		Err:         err,
		Latency:     time.Since(start),
	})
	if err != nil {
		return agent.Result{}, err
	}
	if res.OK() {
		p.info("autopilot: decision ready",
			zap.String("target", res.Decision.TargetVault),
			zap.String("amount", res.Decision.Amount),
			zap.Float64("expected_apy", res.Decision.ExpectedAPY),
		)
	} else {
		p.info("autopilot: no valid decision", zap.String("reason", string(res.Reason)))
	}
	return res, nil
}

// Job adapts RunOnce for the cron runner.
func (p *Autopilot) Job(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil && p.Logger != nil {
		p.Logger.Warn("autopilot run failed", zap.Error(err))
	}
}

func (p *Autopilot) info(msg string, fields ...zap.Field) {
	if p.Logger != nil {
		p.Logger.Info(msg, fields...)
	}
}
