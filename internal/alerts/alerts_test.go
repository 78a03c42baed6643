package alerts

import (
	"testing"

	"github.com/happy-paws/petshop/internal/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestEngineCreation(t *testing.T) {
	engine := newEngine(t)
	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}
}

func TestLoadRule(t *testing.T) {
	engine := newEngine(t)

	rule := &domain.AlertRule{
		ID:         "old-dogs",
		Name:       "Old Dogs",
		Expression: `species == "Dog" && age > 10`,
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("expected 1 rule, got %d", engine.RulesCount())
	}
}

func TestLoadInvalidExpression(t *testing.T) {
	engine := newEngine(t)

	rule := &domain.AlertRule{
		ID:         "broken",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestLoadNonBoolExpression(t *testing.T) {
	engine := newEngine(t)

	rule := &domain.AlertRule{
		ID:         "numeric",
		Expression: "hunger + happiness",
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err == nil {
		t.Error("expected error for non-bool expression")
	}
}

func TestLoadRulesSkipsDisabled(t *testing.T) {
	engine := newEngine(t)

	rules := []*domain.AlertRule{
		{ID: "on", Expression: "hunger > 50.0", Enabled: true},
		{ID: "off", Expression: "hunger > 90.0", Enabled: false},
	}

	if err := engine.LoadRules(rules); err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("expected 1 enabled rule, got %d", engine.RulesCount())
	}
}

func TestBuiltinAttentionRule(t *testing.T) {
	engine := newEngine(t)
	if err := engine.LoadRules(BuiltinRules()); err != nil {
		t.Fatalf("failed to load builtin rules: %v", err)
	}

	cases := []struct {
		name      string
		happiness float64
		hunger    float64
		want      bool
	}{
		{"healthy", 50, 50, false},
		{"on both boundaries", 30, 80, false},
		{"starving", 50, 81, true},
		{"miserable", 29, 0, true},
		{"both bad", 10, 95, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pet := domain.Pet{ID: 1, Name: "Rex", Species: domain.SpeciesDog, Happiness: tc.happiness, Hunger: tc.hunger}
			triggered, ruleName := engine.Triggered(pet)
			if triggered != tc.want {
				t.Errorf("Triggered(h=%.0f,hu=%.0f) = %v, want %v", tc.happiness, tc.hunger, triggered, tc.want)
			}
			if triggered && ruleName != "Needs Attention" {
				t.Errorf("expected rule name %q, got %q", "Needs Attention", ruleName)
			}
		})
	}
}

func TestEvaluateCustomRules(t *testing.T) {
	engine := newEngine(t)

	rules := []*domain.AlertRule{
		{ID: "pricey", Name: "Pricey", Expression: "price > 500.0 && !is_sold", Enabled: true},
		{ID: "named", Name: "Named", Expression: `name == "Rex"`, Enabled: true},
	}
	if err := engine.LoadRules(rules); err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	pet := domain.Pet{ID: 7, Name: "Rex", Species: domain.SpeciesDog, Price: 600}
	results := engine.Evaluate(pet)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, r := range results {
		if !r.Triggered {
			t.Errorf("rule %s should have triggered", r.RuleID)
		}
		if r.PetID != pet.ID {
			t.Errorf("result carries wrong pet id %d", r.PetID)
		}
	}
}

func TestEvaluateWithNoRules(t *testing.T) {
	engine := newEngine(t)

	if results := engine.Evaluate(domain.Pet{ID: 1}); results != nil {
		t.Errorf("expected nil results with no rules, got %v", results)
	}
	if triggered, _ := engine.Triggered(domain.Pet{ID: 1}); triggered {
		t.Error("no rules should mean no trigger")
	}
}

func TestSpeciesComparison(t *testing.T) {
	engine := newEngine(t)

	rule := &domain.AlertRule{
		ID:         "hungry-cats",
		Name:       "Hungry Cats",
		Expression: `species == "Cat" && hunger > 60.0`,
		Enabled:    true,
	}
	if err := engine.LoadRule(rule); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	cat := domain.Pet{Species: domain.SpeciesCat, Hunger: 70}
	if triggered, _ := engine.Triggered(cat); !triggered {
		t.Error("hungry cat should trigger")
	}

	dog := domain.Pet{Species: domain.SpeciesDog, Hunger: 70}
	if triggered, _ := engine.Triggered(dog); triggered {
		t.Error("hungry dog should not trigger a cat rule")
	}
}

func TestReloadReplacesRule(t *testing.T) {
	engine := newEngine(t)

	if err := engine.LoadRule(&domain.AlertRule{ID: "r", Name: "v1", Expression: "hunger > 90.0", Enabled: true}); err != nil {
		t.Fatal(err)
	}
	if err := engine.LoadRule(&domain.AlertRule{ID: "r", Name: "v2", Expression: "hunger > 10.0", Enabled: true}); err != nil {
		t.Fatal(err)
	}

	if engine.RulesCount() != 1 {
		t.Errorf("reloading the same id should replace, got %d rules", engine.RulesCount())
	}
	if triggered, name := engine.Triggered(domain.Pet{Hunger: 50}); !triggered || name != "v2" {
		t.Errorf("expected v2 to fire, got triggered=%v name=%q", triggered, name)
	}
}
