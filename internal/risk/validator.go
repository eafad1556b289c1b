package risk

import (
	"math"

	"go.uber.org/zap"

	"superyield/internal/domain"
)

type Reason string

const (
	ReasonTargetNotFound          Reason = "target_not_found"
	ReasonTVLBelowFloor           Reason = "tvl_below_floor"
	ReasonDilutionExceedsCeiling  Reason = "dilution_exceeds_ceiling"
	ReasonImprovementBelowMinimum Reason = "improvement_below_minimum"
	ReasonConfidenceBelowMinimum  Reason = "confidence_below_minimum"
	ReasonImprovementMismatch     Reason = "improvement_mismatch"
	ReasonMalformedOutput         Reason = "malformed_output"
)

var reasonMessages = map[Reason]string{
	ReasonTargetNotFound:          "target not found",
	ReasonTVLBelowFloor:           "TVL below floor",
	ReasonDilutionExceedsCeiling:  "dilution exceeds ceiling",
	ReasonImprovementBelowMinimum: "improvement below minimum",
	ReasonConfidenceBelowMinimum:  "confidence below minimum",
	ReasonImprovementMismatch:     "improvement inconsistent with expected and current APY",
	ReasonMalformedOutput:         "malformed decision output",
}

// Message is the human-readable form used in API errors.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return string(r)
}

// Verdict is the outcome of Validate. The zero value is an acceptance.
type Verdict struct {
	Reason Reason
}

func (v Verdict) Accepted() bool { return v.Reason == "" }

func accept() Verdict { return Verdict{} }
func reject(r Reason) Verdict { return Verdict{Reason: r} }

// Validator gates allocation decisions before anything can act on them.
type Validator struct {
	// ImprovementTolerance > 0 rejects decisions whose improvement differs from
	// expectedAPY-currentAPY by more than this many percentage points.
	ImprovementTolerance float64
	Logger               *zap.Logger
}

// Validate applies the rules in order and stops at the first failure. It does
// not mutate inputs and never clamps the decision.
func (v *Validator) Validate(d domain.AllocationDecision, opps []domain.YieldOpportunity, c domain.OptimizationConstraints) Verdict {
	target, ok := domain.FindOpportunity(opps, d.TargetVault)
	if !ok {
		v.debug("risk: reject unknown target",
			zap.String("target", d.TargetVault),
			zap.Int("opportunities", len(opps)),
		)
		return reject(ReasonTargetNotFound)
	}
	if target.TVL < c.MinTVL {
		v.debug("risk: reject tvl",
			zap.String("target", target.VaultAddress),
			zap.Float64("tvl", target.TVL),
			zap.Float64("min_tvl", c.MinTVL),
		)
		return reject(ReasonTVLBelowFloor)
	}
	if dilution := target.Dilution(); dilution > c.MaxDilution {
		v.debug("risk: reject dilution",
			zap.String("target", target.VaultAddress),
			zap.Float64("dilution_pct", dilution),
			zap.Float64("max_dilution", c.MaxDilution),
		)
		return reject(ReasonDilutionExceedsCeiling)
	}
	if !target.IsGlueXVault && d.Improvement < domain.MinImprovementPct {
		v.debug("risk: reject improvement",
			zap.String("target", target.VaultAddress),
			zap.Float64("improvement", d.Improvement),
		)
		return reject(ReasonImprovementBelowMinimum)
	}
	if d.Confidence < domain.MinConfidence {
		v.debug("risk: reject confidence",
			zap.String("target", target.VaultAddress),
			zap.Float64("confidence", d.Confidence),
		)
		return reject(ReasonConfidenceBelowMinimum)
	}

	implied := d.ExpectedAPY - d.CurrentAPY
	if gap := math.Abs(d.Improvement - implied); gap > 1e-9 {
		tolerance := 0.0
		if v != nil {
			tolerance = v.ImprovementTolerance
		}
		if tolerance > 0 && gap > tolerance {
			v.debug("risk: reject improvement mismatch",
				zap.Float64("improvement", d.Improvement),
				zap.Float64("implied", implied),
				zap.Float64("tolerance", tolerance),
			)
			return reject(ReasonImprovementMismatch)
		}
		if v != nil && v.Logger != nil {
			v.Logger.Warn("risk: improvement differs from expected-current",
				zap.Float64("improvement", d.Improvement),
				zap.Float64("implied", implied),
			)
		}
	}
	return accept()
}

func (v *Validator) debug(msg string, fields ...zap.Field) {
	if v == nil || v.Logger == nil {
		return
	}
	v.Logger.Debug(msg, fields...)
}
