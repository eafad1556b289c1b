package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/logger"
)

var (
	decideFile   string
	decideStream bool
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run one decision from a request file and print the result",
	Long: `decide reads an optimize request ({vaultState, opportunities, constraints?})
and prints the validated decision as JSON. When vaultState is omitted the
state is read from the configured chain.

Example:
  superyield decide --env-only -f request.json
  superyield decide --env-only -f request.json --stream`,
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVarP(&decideFile, "file", "f", "", "path to the request JSON (required)")
	decideCmd.Flags().BoolVar(&decideStream, "stream", false, "print stream events as JSON lines")
	_ = decideCmd.MarkFlagRequired("file")
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := readRequestFile(decideFile)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newAgent(cfg, log)
	if err != nil {
		return err
	}
	if !a.Configured() {
		return agent.ErrNoReasoner
	}

	state := req.VaultState
	if state == nil {
		provider, err := newStateProvider(ctx, cfg.Chain, log)
		if err != nil {
			return err
		}
		if provider == nil {
			return errors.New("request has no vaultState and chain.vault_address is not set")
		}
		fetched, err := provider.FetchVaultState(ctx)
		if err != nil {
			return fmt.Errorf("fetch vault state: %w", err)
		}
		state = &fetched
	}
	constraints := req.Constraints.Resolve()

	out := json.NewEncoder(cmd.OutOrStdout())
	if !decideStream {
		res, err := a.Decide(ctx, *state, req.Opportunities, constraints)
		if err != nil {
			return err
		}
		if !res.OK() {
			log.Info("decision rejected", zap.String("reason", string(res.Reason)))
			return fmt.Errorf("no valid decision: %s", res.Reason.Message())
		}
		out.SetIndent("", "  ")
		return out.Encode(res.Decision)
	}

	events := make(chan agent.Event, cfg.Stream.Buffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			_ = out.Encode(ev)
		}
	}()
	res, err := a.DecideStream(ctx, *state, req.Opportunities, constraints, events)
	close(events)
	<-done
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("no valid decision: %s", res.Reason.Message())
	}
	return nil
}
