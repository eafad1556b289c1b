package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", raw)
}

func (r *RiskLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*r = ""
		return nil
	}
	v, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// YieldOpportunity is a candidate vault. VaultAddress identity is
// case-insensitive.
type YieldOpportunity struct {
	VaultAddress string    `json:"vaultAddress"`
	Protocol     string    `json:"protocol"`
	APY          float64   `json:"apy"`
	TVL          float64   `json:"tvl"`
	DilutedAPY   float64   `json:"dilutedApy"`
	Risk         RiskLevel `json:"risk"`
	IsGlueXVault bool      `json:"isGlueXVault"`
}

// Validate checks the fields a request must carry.
func (o YieldOpportunity) Validate() error {
	if strings.TrimSpace(o.VaultAddress) == "" {
		return fmt.Errorf("vaultAddress is required")
	}
	if _, err := ParseRiskLevel(string(o.Risk)); err != nil {
		return err
	}
	if o.APY < 0 || o.TVL < 0 || o.DilutedAPY < 0 {
		return fmt.Errorf("%s: negative apy or tvl", o.VaultAddress)
	}
	return nil
}

// Dilution is the percentage drop from APY to diluted APY. A zero APY has no
// dilution.
func (o YieldOpportunity) Dilution() float64 {
	if o.APY == 0 {
		return 0
	}
	return (o.APY - o.DilutedAPY) / o.APY * 100
}

// FindOpportunity returns the opportunity whose address matches addr, ignoring case.
func FindOpportunity(opps []YieldOpportunity, addr string) (YieldOpportunity, bool) {
	addr = strings.TrimSpace(addr)
	for _, o := range opps {
		if strings.EqualFold(strings.TrimSpace(o.VaultAddress), addr) {
			return o, true
		}
	}
	return YieldOpportunity{}, false
}

// PartitionPriority splits opps into GlueX and other vaults, keeping input order.
func PartitionPriority(opps []YieldOpportunity) (priority, other []YieldOpportunity) {
	for _, o := range opps {
		if o.IsGlueXVault {
			priority = append(priority, o)
		} else {
			other = append(other, o)
		}
	}
	return priority, other
}
