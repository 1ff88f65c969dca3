// Package storage provides the data persistence layer for the perkly application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidCard        = errors.New("invalid card")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCard validates a card.
func validateCard(card *model.Card) error {
	if card == nil {
		return fmt.Errorf("%w: card", ErrNilParameter)
	}
	if strings.TrimSpace(card.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCard)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.CardID == "" {
		return fmt.Errorf("%w: missing card ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvalidTransaction)
	}
	return nil
}

// validateBonusRule validates a bonus rule before it is saved. Regex-mode
// merchant entries must compile here; the matcher itself never raises on a
// bad pattern, it just never matches it.
func validateBonusRule(rule *model.BonusRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.CardID == "" {
		return fmt.Errorf("%w: missing card ID", common.ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: missing name", common.ErrInvalidRule)
	}
	if !rule.MerchantMatchMode.Valid() {
		return fmt.Errorf("%w: unknown merchant match mode %q", common.ErrInvalidRule, rule.MerchantMatchMode)
	}
	if !rule.RewardUnit.Valid() {
		return fmt.Errorf("%w: unknown reward unit %q", common.ErrInvalidRule, rule.RewardUnit)
	}
	if rule.MinSpend < 0 {
		return fmt.Errorf("%w: min spend must be non-negative", common.ErrInvalidRule)
	}
	if rule.MaxBonusSpend != nil && *rule.MaxBonusSpend <= 0 {
		return fmt.Errorf("%w: max bonus spend must be positive when set", common.ErrInvalidRule)
	}
	if rule.MinMerchantCount < 0 {
		return fmt.Errorf("%w: min merchant count must be non-negative", common.ErrInvalidRule)
	}
	if rule.BonusRate < 0 || rule.BaseRate < 0 {
		return fmt.Errorf("%w: reward rates must be non-negative", common.ErrInvalidRule)
	}
	if rule.PointsToMilesRatio != nil && *rule.PointsToMilesRatio == 0 {
		return fmt.Errorf("%w: points-to-miles ratio must be non-zero when set", common.ErrInvalidRule)
	}

	if rule.MerchantMatchMode == model.MatchRegex {
		for _, merchant := range rule.QualifyingMerchants {
			if merchant == "" {
				continue
			}
			if _, err := regexp.Compile("(?i)" + merchant); err != nil {
				return fmt.Errorf("%w: merchant pattern %q does not compile: %v", common.ErrInvalidRule, merchant, err)
			}
		}
	}

	return nil
}
