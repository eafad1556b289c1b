package domain

const (
	DefaultMinTVL        = 100000
	DefaultMaxDilution   = 10
	DefaultMinSharpe     = 1.5
	DefaultRiskTolerance = RiskMedium
)

// Fixed policy thresholds. They do not vary with request constraints and are
// both stated to the reasoning service and enforced on its decisions.
const (
	MinImprovementPct   = 0.5
	MinConfidence       = 0.5
	MaxSingleVaultShare = 50
)

// OptimizationConstraints are supplied per request and never persisted.
type OptimizationConstraints struct {
	MinTVL        float64   `json:"minTVL"`
	MaxDilution   float64   `json:"maxDilution"`
	MinSharpe     float64   `json:"minSharpe"`
	RiskTolerance RiskLevel `json:"riskTolerance"`
}

func DefaultConstraints() OptimizationConstraints {
	return OptimizationConstraints{
		MinTVL:        DefaultMinTVL,
		MaxDilution:   DefaultMaxDilution,
		MinSharpe:     DefaultMinSharpe,
		RiskTolerance: DefaultRiskTolerance,
	}
}

// ConstraintsInput is the wire form where every field may be omitted.
type ConstraintsInput struct {
	MinTVL        *float64   `json:"minTVL,omitempty"`
	MaxDilution   *float64   `json:"maxDilution,omitempty"`
	MinSharpe     *float64   `json:"minSharpe,omitempty"`
	RiskTolerance *RiskLevel `json:"riskTolerance,omitempty"`
}

// Resolve fills omitted fields with defaults. A nil input yields the defaults.
func (in *ConstraintsInput) Resolve() OptimizationConstraints {
	out := DefaultConstraints()
	if in == nil {
		return out
	}
	if in.MinTVL != nil {
		out.MinTVL = *in.MinTVL
	}
	if in.MaxDilution != nil {
		out.MaxDilution = *in.MaxDilution
	}
	if in.MinSharpe != nil {
		out.MinSharpe = *in.MinSharpe
	}
	if in.RiskTolerance != nil && *in.RiskTolerance != "" {
		out.RiskTolerance = *in.RiskTolerance
	}
	return out
}
