package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dustin/go-humanize"

	"superyield/internal/domain"
)

func TestBuildContextRendersDefaults(t *testing.T) {
	var omitted *domain.ConstraintsInput
	text := BuildContext(omitted.Resolve())
	for _, want := range []string{"100,000", "10%", "medium", "1.5", "50%", "0.5%"} {
		if !strings.Contains(text, want) {
			t.Fatalf("context missing %q:\n%s", want, text)
		}
	}
}

func TestBuildContextRendersOverrides(t *testing.T) {
	text := BuildContext(domain.OptimizationConstraints{
		MinTVL:        2500000,
		MaxDilution:   7.5,
		MinSharpe:     2,
		RiskTolerance: domain.RiskLow,
	})
	for _, want := range []string{"$2,500,000", "7.5%", "Risk tolerance: low"} {
		if !strings.Contains(text, want) {
			t.Fatalf("context missing %q:\n%s", want, text)
		}
	}
}

func TestBuildSituationListsEveryOpportunityOnce(t *testing.T) {
	opps := []domain.YieldOpportunity{
		{VaultAddress: "0xaaa1", Protocol: "Morpho", APY: 6, TVL: 500000, DilutedAPY: 5.8, Risk: domain.RiskMedium},
		{VaultAddress: "0xbbb2", Protocol: "GlueX", APY: 12, TVL: 2000000, DilutedAPY: 11, Risk: domain.RiskLow, IsGlueXVault: true},
		{VaultAddress: "0xccc3", Protocol: "Felix", APY: 9, TVL: 150000, DilutedAPY: 8, Risk: domain.RiskHigh},
	}
	state := domain.VaultState{
		TotalAssets: "400",
		IdleAssets:  "250",
		CurrentAllocations: []domain.Allocation{
			{Protocol: "a", Vault: "0xa", Amount: "100", APY: 5},
			{Protocol: "b", Vault: "0xb", Amount: "300", APY: 10},
		},
	}

	text := BuildSituation(state, opps)
	for _, o := range opps {
		if n := strings.Count(text, o.VaultAddress); n != 1 {
			t.Fatalf("%s appears %d times", o.VaultAddress, n)
		}
	}
	if !strings.Contains(text, "Current weighted APY: 8.75%") {
		t.Fatalf("missing weighted apy:\n%s", text)
	}
	if !strings.Contains(text, "TVL $2,000,000") {
		t.Fatalf("missing formatted tvl:\n%s", text)
	}

	priorityAt := strings.Index(text, "GLUEX VAULTS (PRIORITY)")
	otherAt := strings.Index(text, "OTHER OPPORTUNITIES")
	glueAt := strings.Index(text, "0xbbb2")
	if !(priorityAt < glueAt && glueAt < otherAt) {
		t.Fatalf("priority vault not in priority section:\n%s", text)
	}
	if strings.Index(text, "0xaaa1") > strings.Index(text, "0xccc3") {
		t.Fatalf("ordinary order not preserved:\n%s", text)
	}
	if !strings.Contains(text, "idle assets (250)") {
		t.Fatalf("task missing idle amount:\n%s", text)
	}
}

func TestBuildSituationDeterministic(t *testing.T) {
	opps := []domain.YieldOpportunity{{VaultAddress: "0x1", Protocol: "GlueX", APY: 12, TVL: 2000000, DilutedAPY: 11, Risk: domain.RiskLow, IsGlueXVault: true}}
	state := domain.VaultState{TotalAssets: "1", IdleAssets: "1"}
	a := BuildSituation(state, opps)
	b := BuildSituation(state, opps)
	if a != b {
		t.Fatalf("situation not deterministic")
	}
	if !strings.Contains(a, "CURRENT ALLOCATIONS\n(none)") {
		t.Fatalf("empty allocations not rendered:\n%s", a)
	}
}

func TestDecisionSchemaRequiresEveryField(t *testing.T) {
	schema := DecisionSchema()
	props := schema["properties"].(map[string]any)
	required := schema["required"].([]string)
	if len(props) != len(required) {
		t.Fatalf("properties=%d required=%d", len(props), len(required))
	}
	for _, f := range required {
		if _, ok := props[f]; !ok {
			t.Fatalf("required field %s has no property", f)
		}
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("additionalProperties must be false")
	}
}

func TestBuildContextStatesEnforcedThresholds(t *testing.T) {
	text := BuildContext(domain.DefaultConstraints())
	improvement := "at least " + humanize.Commaf(domain.MinImprovementPct) + "%"
	if !strings.Contains(text, improvement) {
		t.Fatalf("context missing %q:\n%s", improvement, text)
	}
	share := fmt.Sprintf("more than %d%%", domain.MaxSingleVaultShare)
	if !strings.Contains(text, share) {
		t.Fatalf("context missing %q:\n%s", share, text)
	}
	for _, want := range []string{"Spread across multiple protocols when yields are similar", "gas costs"} {
		if !strings.Contains(text, want) {
			t.Fatalf("context missing %q:\n%s", want, text)
		}
	}
}

func TestBuildSituationListsConsiderations(t *testing.T) {
	text := BuildSituation(domain.VaultState{TotalAssets: "1", IdleAssets: "1"}, nil)
	taskAt := strings.Index(text, "TASK")
	considerAt := strings.Index(text, "Consider:")
	if taskAt < 0 || considerAt < taskAt {
		t.Fatalf("considerations not under task:\n%s", text)
	}
	for _, want := range []string{"Sharpe ratio", "diluted APY", "5. Gas costs of reallocation"} {
		if strings.Index(text, want) < considerAt {
			t.Fatalf("task missing %q:\n%s", want, text)
		}
	}
}
