package domain

// AlertRule is a CEL expression evaluated over a pet's attributes. A rule that
// evaluates to true marks the pet as needing attention.
type AlertRule struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
}

// AlertResult is the outcome of evaluating one rule against one pet.
type AlertResult struct {
	RuleID    string `json:"ruleId"`
	RuleName  string `json:"ruleName"`
	PetID     int64  `json:"petId"`
	Triggered bool   `json:"triggered"`
}
