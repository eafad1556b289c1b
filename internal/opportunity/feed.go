package opportunity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"superyield/internal/config"
	"superyield/internal/domain"
)

// Feed assembles the candidate set for scheduled runs from configured vaults,
// refreshing APY and TVL from a PoolSource when one is available.
type Feed struct {
	Entries []config.FeedEntry
	Source  PoolSource
	// AssumedDepositUSD is the deposit size used to estimate diluted APY.
	AssumedDepositUSD float64
	Logger            *zap.Logger
}

func (f *Feed) Opportunities(ctx context.Context) ([]domain.YieldOpportunity, error) {
	if f == nil || len(f.Entries) == 0 {
		return nil, fmt.Errorf("opportunity: no feed entries configured")
	}

	var ids []string
	for _, e := range f.Entries {
		if id := strings.TrimSpace(e.DefiLlamaPool); id != "" {
			ids = append(ids, id)
		}
	}
	pools := map[string]Pool{}
	if f.Source != nil && len(ids) > 0 {
		got, err := f.Source.Pools(ctx, ids)
		if err != nil && f.Logger != nil {
			f.Logger.Warn("opportunity: pool refresh failed, using configured values", zap.Error(err))
		}
		if got != nil {
			pools = got
		}
	}

	out := make([]domain.YieldOpportunity, 0, len(f.Entries))
	for _, e := range f.Entries {
		addr := strings.TrimSpace(e.VaultAddress)
		if addr == "" {
			continue
		}
		risk := domain.RiskMedium
		if strings.TrimSpace(e.Risk) != "" {
			r, err := domain.ParseRiskLevel(e.Risk)
			if err != nil {
				return nil, fmt.Errorf("opportunity: %s: %w", addr, err)
			}
			risk = r
		}
		apy, tvl := e.APY, e.TVL
		if p, ok := pools[strings.TrimSpace(e.DefiLlamaPool)]; ok {
			apy, tvl = p.APY, p.TVLUsd
		}
		out = append(out, domain.YieldOpportunity{
			VaultAddress: addr,
			Protocol:     e.Protocol,
			APY:          apy,
			TVL:          tvl,
			DilutedAPY:   DilutedAPY(apy, tvl, f.AssumedDepositUSD),
			Risk:         risk,
			IsGlueXVault: e.IsGlueXVault,
		})
	}
	return out, nil
}

// DilutedAPY estimates the APY after adding deposit to a pool of size tvl,
// assuming rewards are shared pro rata. It never exceeds apy.
func DilutedAPY(apy, tvl, deposit float64) float64 {
	if deposit <= 0 || tvl < 0 || tvl+deposit <= 0 {
		return apy
	}
	diluted := apy * tvl / (tvl + deposit)
	if diluted > apy {
		return apy
	}
	return diluted
}
