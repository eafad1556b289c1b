package prompt

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"superyield/internal/domain"
)

// BuildContext renders the fixed allocation policy for the given constraints.
func BuildContext(c domain.OptimizationConstraints) string {
	var b strings.Builder
	b.WriteString("You are an autonomous DeFi yield allocation agent managing idle capital in a SuperYield vault.\n\n")
	b.WriteString("POLICY\n")
	fmt.Fprintf(&b, "1. PRIORITY: GlueX vaults (isGlueXVault=true) are the preferred allocation target whenever their yield is competitive.\n")
	fmt.Fprintf(&b, "2. ELIGIBILITY: only consider vaults with TVL above $%s, a Sharpe ratio of at least %s and dilution of at most %s%%. Risk tolerance: %s.\n",
		humanize.Commaf(c.MinTVL), humanize.Commaf(c.MinSharpe), humanize.Commaf(c.MaxDilution), c.RiskTolerance)
	fmt.Fprintf(&b, "3. CONCENTRATION: never place more than %d%% of allocated capital in a single vault unless it is a GlueX vault. Spread across multiple protocols when yields are similar.\n", domain.MaxSingleVaultShare)
	fmt.Fprintf(&b, "4. IMPROVEMENT: a reallocation must improve APY by at least %s%% over the current weighted APY to justify gas costs. GlueX vaults are exempt.\n", humanize.Commaf(domain.MinImprovementPct))
	b.WriteString("5. JUSTIFICATION: reason step by step, give a risk assessment and a confidence score between 0 and 1.\n")
	return b.String()
}

// BuildSituation renders the vault state and every opportunity exactly once,
// GlueX vaults first.
func BuildSituation(state domain.VaultState, opps []domain.YieldOpportunity) string {
	var b strings.Builder

	b.WriteString("VAULT STATE\n")
	fmt.Fprintf(&b, "Total assets: %s\n", orZero(state.TotalAssets))
	fmt.Fprintf(&b, "Idle assets: %s\n", orZero(state.IdleAssets))
	fmt.Fprintf(&b, "Current weighted APY: %.2f%%\n", state.WeightedAPY())

	b.WriteString("\nCURRENT ALLOCATIONS\n")
	if len(state.CurrentAllocations) == 0 {
		b.WriteString("(none)\n")
	}
	for _, a := range state.CurrentAllocations {
		fmt.Fprintf(&b, "- %s (%s): %s @ %.2f%% APY\n", a.Protocol, a.Vault, a.Amount, a.APY)
	}

	priority, other := domain.PartitionPriority(opps)
	b.WriteString("\nGLUEX VAULTS (PRIORITY)\n")
	writeOpportunities(&b, priority)
	b.WriteString("\nOTHER OPPORTUNITIES\n")
	writeOpportunities(&b, other)

	b.WriteString("\nTASK\n")
	fmt.Fprintf(&b, "Decide where to allocate the idle assets (%s). Choose one target vault from the lists above, the amount to move, and explain the decision.\n", orZero(state.IdleAssets))
	b.WriteString("Consider:\n")
	for i, item := range taskConsiderations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}

var taskConsiderations = []string{
	"Current APY vs available opportunities",
	"GlueX vaults are prioritized",
	"Risk-adjusted returns (Sharpe ratio)",
	"APY dilution after deposit (diluted APY)",
	"Gas costs of reallocation",
}

func writeOpportunities(b *strings.Builder, opps []domain.YieldOpportunity) {
	if len(opps) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, o := range opps {
		fmt.Fprintf(b, "- %s (%s): APY %.2f%%, diluted APY %.2f%%, TVL $%s, risk %s\n",
			o.Protocol, o.VaultAddress, o.APY, o.DilutedAPY, humanize.Commaf(o.TVL), o.Risk)
	}
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
