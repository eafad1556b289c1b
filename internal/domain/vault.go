package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Allocation is one position the vault currently holds.
type Allocation struct {
	Protocol string  `json:"protocol"`
	Vault    string  `json:"vault"`
	Amount   string  `json:"amount"`
	APY      float64 `json:"apy"`
}

// VaultState is a point-in-time snapshot of the vault. Amounts are base-unit
// decimal strings.
type VaultState struct {
	TotalAssets        string       `json:"totalAssets"`
	IdleAssets         string       `json:"idleAssets"`
	CurrentAllocations []Allocation `json:"currentAllocations"`
}

// Validate checks that every amount is a non-negative decimal string.
func (s VaultState) Validate() error {
	if _, err := ParseAmount(s.TotalAssets); err != nil {
		return fmt.Errorf("totalAssets: %w", err)
	}
	if _, err := ParseAmount(s.IdleAssets); err != nil {
		return fmt.Errorf("idleAssets: %w", err)
	}
	for i, a := range s.CurrentAllocations {
		if _, err := ParseAmount(a.Amount); err != nil {
			return fmt.Errorf("currentAllocations[%d].amount: %w", i, err)
		}
		if a.APY < 0 {
			return fmt.Errorf("currentAllocations[%d].apy: negative", i)
		}
	}
	return nil
}

// WeightedAPY is the capital-weighted yield of the current allocations, or 0
// when nothing is allocated. Unparseable amounts count as zero.
func (s VaultState) WeightedAPY() float64 {
	total := decimal.Zero
	amounts := make([]decimal.Decimal, len(s.CurrentAllocations))
	for i, a := range s.CurrentAllocations {
		amt, err := ParseAmount(a.Amount)
		if err != nil {
			continue
		}
		amounts[i] = amt
		total = total.Add(amt)
	}
	if !total.IsPositive() {
		return 0
	}
	weighted := decimal.Zero
	for i, a := range s.CurrentAllocations {
		share := amounts[i].Div(total)
		weighted = weighted.Add(share.Mul(decimal.NewFromFloat(a.APY)))
	}
	f, _ := weighted.Float64()
	return f
}

// ParseAmount parses a non-negative decimal string.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", raw)
	}
	return d, nil
}
