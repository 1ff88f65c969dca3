package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/service"
)

const ruleColumns = `id, card_id, name, is_active, min_spend, max_bonus_spend,
	min_merchant_count, merchant_match_mode, qualifying_merchants,
	qualifying_categories, exclude_keywords, exclude_payments,
	bonus_rate, base_rate, reward_unit, miles_per_dollar,
	points_to_miles_ratio, created_at, updated_at`

// CreateRule creates a new bonus rule, assigning an ID and timestamps.
// Creating an active rule is rejected if the card already has one.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.BonusRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBonusRule(rule); err != nil {
		return err
	}

	if rule.IsActive {
		if err := s.checkNoActiveRule(ctx, rule.CardID, ""); err != nil {
			return err
		}
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	return s.insertRule(ctx, s.db, rule)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStorage) insertRule(ctx context.Context, db execer, rule *model.BonusRule) error {
	merchants, categories, keywords, err := marshalRuleLists(rule)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO bonus_rules (`+ruleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.CardID, rule.Name, rule.IsActive, rule.MinSpend, rule.MaxBonusSpend,
		rule.MinMerchantCount, string(rule.MerchantMatchMode), merchants,
		categories, keywords, rule.ExcludePayments,
		rule.BonusRate, rule.BaseRate, string(rule.RewardUnit), rule.MilesPerDollar,
		rule.PointsToMilesRatio, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bonus rule: %w", err)
	}
	return nil
}

// GetRule retrieves a bonus rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.BonusRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM bonus_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bonus rule %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return rule, nil
}

// GetRulesForCard retrieves all of a card's rules, oldest first.
func (s *SQLiteStorage) GetRulesForCard(ctx context.Context, cardID string) ([]model.BonusRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM bonus_rules WHERE card_id = ? ORDER BY created_at ASC, id ASC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.BonusRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bonus rules: %w", err)
	}

	return rules, nil
}

// GetActiveRuleForCard returns the card's active rule, or (nil, nil) when
// the card has no active rule. Absence is not an error.
func (s *SQLiteStorage) GetActiveRuleForCard(ctx context.Context, cardID string) (*model.BonusRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM bonus_rules
		 WHERE card_id = ? AND is_active = 1
		 ORDER BY created_at ASC, id ASC LIMIT 1`, cardID)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// UpdateRule merges the non-nil fields of the update into the rule and
// refreshes its updated-at timestamp.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, id string, update service.RuleUpdate) (*model.BonusRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	applyRuleUpdate(rule, update)
	if err := validateBonusRule(rule); err != nil {
		return nil, err
	}
	rule.UpdatedAt = time.Now()

	if err := s.writeRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func applyRuleUpdate(rule *model.BonusRule, update service.RuleUpdate) {
	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.MinSpend != nil {
		rule.MinSpend = *update.MinSpend
	}
	if update.ClearMaxBonusSpend {
		rule.MaxBonusSpend = nil
	} else if update.MaxBonusSpend != nil {
		rule.MaxBonusSpend = update.MaxBonusSpend
	}
	if update.MinMerchantCount != nil {
		rule.MinMerchantCount = *update.MinMerchantCount
	}
	if update.MerchantMatchMode != nil {
		rule.MerchantMatchMode = *update.MerchantMatchMode
	}
	if update.QualifyingMerchants != nil {
		rule.QualifyingMerchants = update.QualifyingMerchants
	}
	if update.QualifyingCategories != nil {
		rule.QualifyingCategories = update.QualifyingCategories
	}
	if update.ExcludeKeywords != nil {
		rule.ExcludeKeywords = update.ExcludeKeywords
	}
	if update.BonusRate != nil {
		rule.BonusRate = *update.BonusRate
	}
	if update.BaseRate != nil {
		rule.BaseRate = *update.BaseRate
	}
	if update.RewardUnit != nil {
		rule.RewardUnit = *update.RewardUnit
	}
	if update.MilesPerDollar != nil {
		rule.MilesPerDollar = update.MilesPerDollar
	}
	if update.PointsToMilesRatio != nil {
		rule.PointsToMilesRatio = update.PointsToMilesRatio
	}
}

func (s *SQLiteStorage) writeRule(ctx context.Context, rule *model.BonusRule) error {
	merchants, categories, keywords, err := marshalRuleLists(rule)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE bonus_rules SET
			name = ?, is_active = ?, min_spend = ?, max_bonus_spend = ?,
			min_merchant_count = ?, merchant_match_mode = ?, qualifying_merchants = ?,
			qualifying_categories = ?, exclude_keywords = ?, exclude_payments = ?,
			bonus_rate = ?, base_rate = ?, reward_unit = ?, miles_per_dollar = ?,
			points_to_miles_ratio = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Name, rule.IsActive, rule.MinSpend, rule.MaxBonusSpend,
		rule.MinMerchantCount, string(rule.MerchantMatchMode), merchants,
		categories, keywords, rule.ExcludePayments,
		rule.BonusRate, rule.BaseRate, string(rule.RewardUnit), rule.MilesPerDollar,
		rule.PointsToMilesRatio, rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update bonus rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bonus rule %s: %w", rule.ID, common.ErrNotFound)
	}

	return nil
}

// DeleteRule removes a bonus rule by ID.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM bonus_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bonus rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bonus rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// ToggleRuleActive flips a rule's activation flag. Activating a rule while
// another rule on the same card is active is rejected so that the active
// rule for a card is never order-dependent.
func (s *SQLiteStorage) ToggleRuleActive(ctx context.Context, id string) (*model.BonusRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rule.IsActive {
		if err := s.checkNoActiveRule(ctx, rule.CardID, rule.ID); err != nil {
			return nil, err
		}
	}

	rule.IsActive = !rule.IsActive
	rule.UpdatedAt = time.Now()

	if err := s.writeRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// checkNoActiveRule returns ErrActiveRuleExists if the card has an active
// rule other than excludeID.
func (s *SQLiteStorage) checkNoActiveRule(ctx context.Context, cardID, excludeID string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bonus_rules WHERE card_id = ? AND is_active = 1 AND id != ?",
		cardID, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check active rules: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("card %s: %w", cardID, common.ErrActiveRuleExists)
	}
	return nil
}

// AddRuleMerchant appends a merchant match string to the rule. Adding a
// string that is already present is a no-op.
func (s *SQLiteStorage) AddRuleMerchant(ctx context.Context, id, merchant string) error {
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}

	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}

	if slices.Contains(rule.QualifyingMerchants, merchant) {
		return nil
	}

	rule.QualifyingMerchants = append(rule.QualifyingMerchants, merchant)
	if err := validateBonusRule(rule); err != nil {
		return err
	}
	rule.UpdatedAt = time.Now()

	return s.writeRule(ctx, rule)
}

// RemoveRuleMerchant removes an exact-string match from the rule's
// merchant list, case-sensitive as stored. Removing a string that is not
// present is a no-op.
func (s *SQLiteStorage) RemoveRuleMerchant(ctx context.Context, id, merchant string) error {
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}

	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}

	idx := slices.Index(rule.QualifyingMerchants, merchant)
	if idx < 0 {
		return nil
	}

	rule.QualifyingMerchants = slices.Delete(rule.QualifyingMerchants, idx, idx+1)
	rule.UpdatedAt = time.Now()

	return s.writeRule(ctx, rule)
}

// ReplaceRulesForCard deletes all of the card's rules and installs the
// given ones with fresh ids and timestamps. This is a destructive replace,
// not a merge; it is how profile templates are applied.
func (s *SQLiteStorage) ReplaceRulesForCard(ctx context.Context, cardID string, rules []model.BonusRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return err
	}

	active := 0
	for i := range rules {
		rules[i].CardID = cardID
		if err := validateBonusRule(&rules[i]); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if rules[i].IsActive {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("card %s: %w", cardID, common.ErrActiveRuleExists)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bonus_rules WHERE card_id = ?", cardID); err != nil {
		return fmt.Errorf("failed to clear existing rules: %w", err)
	}

	now := time.Now()
	for i := range rules {
		rules[i].ID = uuid.NewString()
		rules[i].CreatedAt = now
		rules[i].UpdatedAt = now
		if err := s.insertRule(ctx, tx, &rules[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// scanner abstracts sql.Row and sql.Rows for rule scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*model.BonusRule, error) {
	var rule model.BonusRule
	var mode, unit string
	var merchants, categories, keywords string

	err := row.Scan(
		&rule.ID, &rule.CardID, &rule.Name, &rule.IsActive, &rule.MinSpend, &rule.MaxBonusSpend,
		&rule.MinMerchantCount, &mode, &merchants,
		&categories, &keywords, &rule.ExcludePayments,
		&rule.BonusRate, &rule.BaseRate, &unit, &rule.MilesPerDollar,
		&rule.PointsToMilesRatio, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan bonus rule: %w", err)
	}

	rule.MerchantMatchMode = model.MatchMode(mode)
	rule.RewardUnit = model.RewardUnit(unit)

	for _, col := range []struct {
		dst *[]string
		src string
	}{
		{&rule.QualifyingMerchants, merchants},
		{&rule.QualifyingCategories, categories},
		{&rule.ExcludeKeywords, keywords},
	} {
		if col.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.src), col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode rule list column: %w", err)
		}
	}

	return &rule, nil
}

func marshalRuleLists(rule *model.BonusRule) (merchants, categories, keywords string, err error) {
	encode := func(list []string) (string, error) {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return "", fmt.Errorf("failed to encode rule list column: %w", err)
		}
		return string(data), nil
	}

	if merchants, err = encode(rule.QualifyingMerchants); err != nil {
		return "", "", "", err
	}
	if categories, err = encode(rule.QualifyingCategories); err != nil {
		return "", "", "", err
	}
	if keywords, err = encode(rule.ExcludeKeywords); err != nil {
		return "", "", "", err
	}
	return merchants, categories, keywords, nil
}
