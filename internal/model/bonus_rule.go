package model

import (
	"time"
)

// MatchMode represents the strategy used to test a transaction description
// against a rule's merchant list.
type MatchMode string

// Merchant match mode constants.
const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
	MatchRegex    MatchMode = "regex"
)

// Valid reports whether the match mode is one of the known modes.
func (m MatchMode) Valid() bool {
	switch m {
	case MatchExact, MatchContains, MatchRegex:
		return true
	}
	return false
}

// RewardUnit represents the unit a bonus rule pays out in.
type RewardUnit string

// Reward unit constants.
const (
	RewardCashback RewardUnit = "cashback"
	RewardPoints   RewardUnit = "points"
	RewardMiles    RewardUnit = "miles"
)

// Valid reports whether the reward unit is one of the known units.
func (u RewardUnit) Valid() bool {
	switch u {
	case RewardCashback, RewardPoints, RewardMiles:
		return true
	}
	return false
}

// BonusRule describes how spend on a card qualifies for bonus rewards
// within a billing period. A rule belongs to exactly one card.
type BonusRule struct {
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	MaxBonusSpend        *float64   `json:"max_bonus_spend,omitempty"` // nil means uncapped
	MilesPerDollar       *float64   `json:"miles_per_dollar,omitempty"`
	PointsToMilesRatio   *float64   `json:"points_to_miles_ratio,omitempty"`
	ID                   string     `json:"id"`
	CardID               string     `json:"card_id"`
	Name                 string     `json:"name"`
	MerchantMatchMode    MatchMode  `json:"merchant_match_mode"`
	RewardUnit           RewardUnit `json:"reward_unit"`
	QualifyingMerchants  []string   `json:"qualifying_merchants"`
	QualifyingCategories []string   `json:"qualifying_categories"`
	ExcludeKeywords      []string   `json:"exclude_keywords"`
	MinSpend             float64    `json:"min_spend"`
	MinMerchantCount     int        `json:"min_merchant_count"`
	BonusRate            float64    `json:"bonus_rate"`
	BaseRate             float64    `json:"base_rate"`
	IsActive             bool       `json:"is_active"`

	// ExcludePayments is carried for config compatibility but has no
	// observable effect: payments are dropped unconditionally before
	// qualification. Pending product clarification.
	ExcludePayments bool `json:"exclude_payments"`
}
