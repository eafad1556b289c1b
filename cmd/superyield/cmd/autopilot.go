package cmd

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/config"
	cronrunner "superyield/internal/cron"
	"superyield/internal/service"
	"superyield/internal/vaultstate"
)

func scheduleAutopilot(ctx context.Context, cfg config.Config, runner *cronrunner.Runner, a *agent.Agent, state vaultstate.Provider, journal *service.JournalService, log *zap.Logger) error {
	if !a.Configured() {
		return agent.ErrNoReasoner
	}
	if state == nil {
		return errors.New("scheduler needs chain.vault_address")
	}
	feed, err := newFeed(ctx, cfg, log)
	if err != nil {
		return err
	}
	if feed == nil {
		return errors.New("scheduler needs feed.opportunities")
	}
	constraints, err := service.ScheduledConstraints(cfg.Scheduler)
	if err != nil {
		return err
	}
	pilot := &service.Autopilot{
		Agent:       a,
		State:       state,
		Feed:        feed,
		Journal:     journal,
		Constraints: constraints,
		Logger:      log,
	}
	if _, err := runner.Add(cfg.Scheduler.Spec, pilot.Job); err != nil {
		return err
	}
	log.Info("autopilot scheduled",
		zap.String("spec", cfg.Scheduler.Spec),
		zap.Int("opportunities", len(cfg.Feed.Opportunities)))
	return nil
}
