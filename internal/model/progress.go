package model

// ProgressStatus classifies where a period's spend sits relative to a
// rule's thresholds.
type ProgressStatus string

// Progress status constants, in evaluation priority order.
const (
	StatusInactive     ProgressStatus = "inactive"
	StatusBelowMinimum ProgressStatus = "below_minimum"
	StatusOverCap      ProgressStatus = "over_cap"
	StatusAtCap        ProgressStatus = "at_cap"
	StatusSweetSpot    ProgressStatus = "in_sweet_spot"
)

// Progress is the engine's output for one card and one billing period.
// It is recomputed on demand and never persisted.
type Progress struct {
	RemainingToCap         *float64       `json:"remaining_to_cap,omitempty"` // nil when the rule is uncapped
	EstimatedMiles         *float64       `json:"estimated_miles,omitempty"`
	Period                 string         `json:"period"` // YYYY-MM
	CardID                 string         `json:"card_id"`
	RuleID                 string         `json:"rule_id"`
	RuleName               string         `json:"rule_name"`
	Status                 ProgressStatus `json:"status"`
	RewardUnit             RewardUnit     `json:"reward_unit"`
	MerchantsUsed          []string       `json:"merchants_used"` // drawn from the rule's merchant list, sorted
	Recommendations        []string       `json:"recommendations"`
	TotalSpend             float64        `json:"total_spend"`
	QualifyingSpend        float64        `json:"qualifying_spend"`
	NonQualifyingSpend     float64        `json:"non_qualifying_spend"`
	RemainingToMinimum     float64        `json:"remaining_to_minimum"`
	EstimatedBonus         float64        `json:"estimated_bonus"`
	MerchantCount          int            `json:"merchant_count"`
	TransactionCount       int            `json:"transaction_count"`
	MinSpendMet            bool           `json:"min_spend_met"`
	MerchantRequirementMet bool           `json:"merchant_requirement_met"`
	BonusCapReached        bool           `json:"bonus_cap_reached"`
}
