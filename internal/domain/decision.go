package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AllocationDecision is a proposed move of idle capital into one vault.
type AllocationDecision struct {
	TargetVault    string  `json:"targetVault"`
	TargetProtocol string  `json:"targetProtocol"`
	Amount         string  `json:"amount"`
	Reasoning      string  `json:"reasoning"`
	ExpectedAPY    float64 `json:"expectedAPY"`
	CurrentAPY     float64 `json:"currentAPY"`
	Improvement    float64 `json:"improvement"`
	SwapRequired   bool    `json:"swapRequired"`
	RiskAssessment string  `json:"riskAssessment"`
	Confidence     float64 `json:"confidence"`
}

var ErrMalformedDecision = errors.New("malformed decision")

// decisionWire detects missing fields; every field is required.
type decisionWire struct {
	TargetVault    *string  `json:"targetVault"`
	TargetProtocol *string  `json:"targetProtocol"`
	Amount         *string  `json:"amount"`
	Reasoning      *string  `json:"reasoning"`
	ExpectedAPY    *float64 `json:"expectedAPY"`
	CurrentAPY     *float64 `json:"currentAPY"`
	Improvement    *float64 `json:"improvement"`
	SwapRequired   *bool    `json:"swapRequired"`
	RiskAssessment *string  `json:"riskAssessment"`
	Confidence     *float64 `json:"confidence"`
}

// ParseDecision decodes raw as a strict AllocationDecision. Unknown or missing
// fields, a confidence outside [0,1] and a malformed amount are all rejected
// with an error wrapping ErrMalformedDecision.
func ParseDecision(raw []byte) (AllocationDecision, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w decisionWire
	if err := dec.Decode(&w); err != nil {
		return AllocationDecision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("targetVault", w.TargetVault != nil)
	check("targetProtocol", w.TargetProtocol != nil)
	check("amount", w.Amount != nil)
	check("reasoning", w.Reasoning != nil)
	check("expectedAPY", w.ExpectedAPY != nil)
	check("currentAPY", w.CurrentAPY != nil)
	check("improvement", w.Improvement != nil)
	check("swapRequired", w.SwapRequired != nil)
	check("riskAssessment", w.RiskAssessment != nil)
	check("confidence", w.Confidence != nil)
	if len(missing) > 0 {
		return AllocationDecision{}, fmt.Errorf("%w: missing %s", ErrMalformedDecision, strings.Join(missing, ", "))
	}

	if *w.Confidence < 0 || *w.Confidence > 1 {
		return AllocationDecision{}, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedDecision, *w.Confidence)
	}
	if _, err := ParseAmount(*w.Amount); err != nil {
		return AllocationDecision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	return AllocationDecision{
		TargetVault:    *w.TargetVault,
		TargetProtocol: *w.TargetProtocol,
		Amount:         strings.TrimSpace(*w.Amount),
		Reasoning:      *w.Reasoning,
		ExpectedAPY:    *w.ExpectedAPY,
		CurrentAPY:     *w.CurrentAPY,
		Improvement:    *w.Improvement,
		SwapRequired:   *w.SwapRequired,
		RiskAssessment: *w.RiskAssessment,
		Confidence:     *w.Confidence,
	}, nil
}
