// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/marchweiss/perkly/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	CardID    string
	Limit     int
}

// RuleUpdate carries the optional fields of a partial rule update.
// Nil fields are left unchanged.
type RuleUpdate struct {
	Name                 *string
	MinSpend             *float64
	MaxBonusSpend        *float64
	ClearMaxBonusSpend   bool
	MinMerchantCount     *int
	MerchantMatchMode    *model.MatchMode
	QualifyingMerchants  []string
	QualifyingCategories []string
	ExcludeKeywords      []string
	BonusRate            *float64
	BaseRate             *float64
	RewardUnit           *model.RewardUnit
	MilesPerDollar       *float64
	PointsToMilesRatio   *float64
}

// RuleRepository defines the contract for bonus rule persistence. The
// reward engine depends on this interface rather than a concrete store
// so that independent rule sets can coexist (one per test, for example).
type RuleRepository interface {
	CreateRule(ctx context.Context, rule *model.BonusRule) error
	GetRule(ctx context.Context, id string) (*model.BonusRule, error)
	GetRulesForCard(ctx context.Context, cardID string) ([]model.BonusRule, error)
	UpdateRule(ctx context.Context, id string, update RuleUpdate) (*model.BonusRule, error)
	DeleteRule(ctx context.Context, id string) error

	// ToggleRuleActive flips a rule's activation flag. Activating a rule
	// while another rule on the same card is active is rejected.
	ToggleRuleActive(ctx context.Context, id string) (*model.BonusRule, error)

	// AddRuleMerchant appends a merchant match string. Adding a string
	// that is already present is a no-op.
	AddRuleMerchant(ctx context.Context, id, merchant string) error
	// RemoveRuleMerchant removes an exact-string match only, case-sensitive
	// as stored.
	RemoveRuleMerchant(ctx context.Context, id, merchant string) error

	// GetActiveRuleForCard returns the card's active rule, or (nil, nil)
	// when the card has no active rule. Absence is not an error.
	GetActiveRuleForCard(ctx context.Context, cardID string) (*model.BonusRule, error)

	// ReplaceRulesForCard deletes all of the card's rules and installs the
	// given ones with fresh ids and timestamps. Destructive, not a merge.
	ReplaceRulesForCard(ctx context.Context, cardID string, rules []model.BonusRule) error
}

// TransactionSource supplies the transactions the reward engine reads.
type TransactionSource interface {
	GetTransactionsByCard(ctx context.Context, cardID string, filter TransactionFilter) ([]model.Transaction, error)
}

// Storage defines the contract for the full persistence layer.
type Storage interface {
	RuleRepository
	TransactionSource

	// Card operations
	CreateCard(ctx context.Context, card *model.Card) error
	GetCard(ctx context.Context, id string) (*model.Card, error)
	GetCards(ctx context.Context) ([]model.Card, error)
	DeleteCard(ctx context.Context, id string) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
