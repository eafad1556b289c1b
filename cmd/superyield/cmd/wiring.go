package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/cache"
	"superyield/internal/config"
	"superyield/internal/domain"
	"superyield/internal/opportunity"
	"superyield/internal/reasoner"
	"superyield/internal/risk"
	"superyield/internal/vaultstate"
)

// newAgent wires the reasoning service and validator. Missing credentials
// leave the agent unconfigured rather than failing startup.
func newAgent(cfg config.Config, logger *zap.Logger) (*agent.Agent, error) {
	a := &agent.Agent{
		Validator: &risk.Validator{
			ImprovementTolerance: cfg.Risk.ImprovementTolerance,
			Logger:               logger,
		},
		Logger:      logger,
		Temperature: cfg.Reasoner.Temperature,
		MaxTokens:   cfg.Reasoner.MaxTokens,
		Timeout:     cfg.Reasoner.Timeout,
		Pacing:      cfg.Stream.Pacing,
	}
	svc, err := reasoner.New(cfg.Reasoner)
	switch {
	case errors.Is(err, reasoner.ErrNotConfigured):
		logger.Warn("reasoning service not configured; decision endpoints will answer 503",
			zap.String("provider", cfg.Reasoner.Provider))
	case err != nil:
		return nil, err
	default:
		a.Reasoner = svc
		logger.Info("reasoning service ready",
			zap.String("provider", cfg.Reasoner.Provider),
			zap.String("model", svc.Model()))
	}
	return a, nil
}

// newStateProvider dials the chain when a vault address is configured. It
// returns nil when the chain is not configured.
func newStateProvider(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (vaultstate.Provider, error) {
	if strings.TrimSpace(cfg.VaultAddress) == "" {
		logger.Warn("chain.vault_address not set; optimize-auto is unavailable")
		return nil, nil
	}
	p, err := vaultstate.Dial(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("vault state provider ready",
		zap.String("vault", p.Vault.Hex()),
		zap.Int("endpoints", len(p.Callers)))
	return p, nil
}

func newFeed(ctx context.Context, cfg config.Config, logger *zap.Logger) (*opportunity.Feed, error) {
	if len(cfg.Feed.Opportunities) == 0 {
		return nil, nil
	}
	store, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	return &opportunity.Feed{
		Entries: cfg.Feed.Opportunities,
		Source: &opportunity.DefiLlama{
			BaseURL: cfg.Feed.DefiLlamaURL,
			HTTP:    &http.Client{Timeout: cfg.Feed.Timeout},
			Cache:   store,
			TTL:     cfg.Cache.TTL,
			Logger:  logger,
		},
		AssumedDepositUSD: cfg.Feed.AssumedDepositUSD,
		Logger:            logger,
	}, nil
}

// requestFile is the optimize request body as read by decide and prompt.
type requestFile struct {
	VaultState    *domain.VaultState        `json:"vaultState"`
	Opportunities []domain.YieldOpportunity `json:"opportunities"`
	Constraints   *domain.ConstraintsInput  `json:"constraints,omitempty"`
}

func readRequestFile(path string) (requestFile, error) {
	var req requestFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(req.Opportunities) == 0 {
		return req, errors.New("request has no opportunities")
	}
	for i, o := range req.Opportunities {
		if err := o.Validate(); err != nil {
			return req, fmt.Errorf("opportunity %d: %w", i, err)
		}
	}
	if req.VaultState != nil {
		if err := req.VaultState.Validate(); err != nil {
			return req, fmt.Errorf("vaultState: %w", err)
		}
	}
	return req, nil
}
