package prompt

import "strings"

const DecisionSchemaName = "allocation_decision"

// decisionFields lists the reply fields in schema order.
var decisionFields = []string{
	"targetVault",
	"targetProtocol",
	"amount",
	"reasoning",
	"expectedAPY",
	"currentAPY",
	"improvement",
	"swapRequired",
	"riskAssessment",
	"confidence",
}

// DecisionSchema is the JSON schema of an AllocationDecision reply. Every field
// is required and no others are allowed.
func DecisionSchema() map[string]any {
	required := make([]string, len(decisionFields))
	copy(required, decisionFields)
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"targetVault":    map[string]any{"type": "string", "description": "Address of the target vault"},
			"targetProtocol": map[string]any{"type": "string", "description": "Protocol name"},
			"amount":         map[string]any{"type": "string", "description": "Amount to allocate in base units"},
			"reasoning":      map[string]any{"type": "string", "description": "Step-by-step reasoning"},
			"expectedAPY":    map[string]any{"type": "number", "description": "Expected APY after allocation, in percent"},
			"currentAPY":     map[string]any{"type": "number", "description": "Current weighted APY, in percent"},
			"improvement":    map[string]any{"type": "number", "description": "APY improvement in percentage points"},
			"swapRequired":   map[string]any{"type": "boolean", "description": "Whether a token swap is needed"},
			"riskAssessment": map[string]any{"type": "string", "description": "Risk analysis"},
			"confidence":     map[string]any{"type": "number", "description": "Confidence from 0 to 1"},
		},
		"required":             required,
		"additionalProperties": false,
	}
}

// DecisionFields returns the required reply fields in schema order.
func DecisionFields() []string {
	out := make([]string, len(decisionFields))
	copy(out, decisionFields)
	return out
}

// StreamInstruction asks a free-text stream to end with the decision object.
func StreamInstruction() string {
	return "Think out loud first. Then finish with exactly one JSON object containing the fields " +
		strings.Join(decisionFields, ", ") +
		". Do not add other fields and do not write anything after the JSON object."
}
