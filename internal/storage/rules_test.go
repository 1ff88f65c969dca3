package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/service"
	"github.com/marchweiss/perkly/internal/testutil"
)

func sampleRule(cardID string) *model.BonusRule {
	cap := 1000.0
	return &model.BonusRule{
		CardID:              cardID,
		Name:                "Dining 10%",
		IsActive:            true,
		MinSpend:            500,
		MaxBonusSpend:       &cap,
		MinMerchantCount:    2,
		MerchantMatchMode:   model.MatchContains,
		QualifyingMerchants: []string{"CoffeeCo", "MartX"},
		ExcludeKeywords:     []string{"voucher"},
		BonusRate:           0.10,
		RewardUnit:          model.RewardCashback,
	}
}

func TestCreateAndGetRule(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	rule := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, rule))
	require.NotEmpty(t, rule.ID)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.Name, got.Name)
	assert.Equal(t, rule.QualifyingMerchants, got.QualifyingMerchants)
	assert.Equal(t, rule.ExcludeKeywords, got.ExcludeKeywords)
	require.NotNil(t, got.MaxBonusSpend)
	assert.InDelta(t, 1000, *got.MaxBonusSpend, 0.001)
	assert.True(t, got.IsActive)
}

func TestGetRule_NotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.GetRule(context.Background(), "no-such-rule")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateRule_SecondActiveRejected(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	require.NoError(t, store.CreateRule(ctx, sampleRule(card.ID)))

	second := sampleRule(card.ID)
	second.Name = "Groceries 5%"
	err := store.CreateRule(ctx, second)
	assert.ErrorIs(t, err, common.ErrActiveRuleExists)

	// An inactive second rule is fine.
	second.IsActive = false
	require.NoError(t, store.CreateRule(ctx, second))

	rules, err := store.GetRulesForCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestCreateRule_ActiveOnAnotherCardAllowed(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	cardA := testutil.SeedCard(t, store, "Card A")
	cardB := testutil.SeedCard(t, store, "Card B")

	require.NoError(t, store.CreateRule(ctx, sampleRule(cardA.ID)))
	require.NoError(t, store.CreateRule(ctx, sampleRule(cardB.ID)))
}

func TestCreateRule_InvalidRegexRejected(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	rule := sampleRule(card.ID)
	rule.MerchantMatchMode = model.MatchRegex
	rule.QualifyingMerchants = []string{`coffee(`}

	err := store.CreateRule(ctx, rule)
	assert.ErrorIs(t, err, common.ErrInvalidRule)
}

func TestCreateRule_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	tests := []struct {
		name   string
		mutate func(*model.BonusRule)
	}{
		{"bad match mode", func(r *model.BonusRule) { r.MerchantMatchMode = "fuzzy" }},
		{"bad reward unit", func(r *model.BonusRule) { r.RewardUnit = "stars" }},
		{"negative min spend", func(r *model.BonusRule) { r.MinSpend = -1 }},
		{"zero cap", func(r *model.BonusRule) { zero := 0.0; r.MaxBonusSpend = &zero }},
		{"negative bonus rate", func(r *model.BonusRule) { r.BonusRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := sampleRule(card.ID)
			rule.IsActive = false
			tt.mutate(rule)
			err := store.CreateRule(ctx, rule)
			assert.ErrorIs(t, err, common.ErrInvalidRule)
		})
	}
}

func TestGetActiveRuleForCard(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	// No rules at all: absence is not an error.
	rule, err := store.GetActiveRuleForCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, rule)

	inactive := sampleRule(card.ID)
	inactive.IsActive = false
	require.NoError(t, store.CreateRule(ctx, inactive))

	rule, err = store.GetActiveRuleForCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, rule)

	active := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, active))

	rule, err = store.GetActiveRuleForCard(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, active.ID, rule.ID)
}

func TestUpdateRule(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	rule := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, rule))

	name := "Dining 12%"
	rate := 0.12
	updated, err := store.UpdateRule(ctx, rule.ID, service.RuleUpdate{
		Name:      &name,
		BonusRate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dining 12%", updated.Name)
	assert.InDelta(t, 0.12, updated.BonusRate, 0.001)
	// Untouched fields survive a partial update.
	assert.Equal(t, []string{"CoffeeCo", "MartX"}, updated.QualifyingMerchants)

	// Clearing the cap makes the rule uncapped.
	updated, err = store.UpdateRule(ctx, rule.ID, service.RuleUpdate{ClearMaxBonusSpend: true})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxBonusSpend)
}

func TestToggleRuleActive(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	first := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, first))

	second := sampleRule(card.ID)
	second.Name = "Groceries 5%"
	second.IsActive = false
	require.NoError(t, store.CreateRule(ctx, second))

	// Activating the second while the first is active is rejected.
	_, err := store.ToggleRuleActive(ctx, second.ID)
	assert.ErrorIs(t, err, common.ErrActiveRuleExists)

	// Deactivate the first, then the second can be activated.
	toggled, err := store.ToggleRuleActive(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = store.ToggleRuleActive(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	active, err := store.GetActiveRuleForCard(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
}

func TestRuleMerchants(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	rule := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, rule))

	require.NoError(t, store.AddRuleMerchant(ctx, rule.ID, "BakeHouse"))
	// Adding the same string again is a no-op.
	require.NoError(t, store.AddRuleMerchant(ctx, rule.ID, "BakeHouse"))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CoffeeCo", "MartX", "BakeHouse"}, got.QualifyingMerchants)

	// Removal is exact and case-sensitive; a near-miss is a no-op.
	require.NoError(t, store.RemoveRuleMerchant(ctx, rule.ID, "bakehouse"))
	got, err = store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Len(t, got.QualifyingMerchants, 3)

	require.NoError(t, store.RemoveRuleMerchant(ctx, rule.ID, "BakeHouse"))
	got, err = store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CoffeeCo", "MartX"}, got.QualifyingMerchants)
}

func TestDeleteRule(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	rule := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, rule))
	require.NoError(t, store.DeleteRule(ctx, rule.ID))

	_, err := store.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.DeleteRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplaceRulesForCard(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	old := sampleRule(card.ID)
	require.NoError(t, store.CreateRule(ctx, old))

	replacement := []model.BonusRule{
		{
			Name:              "Travel Miles",
			IsActive:          true,
			MerchantMatchMode: model.MatchContains,
			BonusRate:         1.0,
			RewardUnit:        model.RewardMiles,
		},
		{
			Name:              "Base Points",
			MerchantMatchMode: model.MatchContains,
			BonusRate:         0.01,
			RewardUnit:        model.RewardPoints,
		},
	}
	require.NoError(t, store.ReplaceRulesForCard(ctx, card.ID, replacement))

	rules, err := store.GetRulesForCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	for _, r := range rules {
		assert.NotEmpty(t, r.ID)
		assert.NotEqual(t, old.ID, r.ID)
		assert.Equal(t, card.ID, r.CardID)
	}

	_, err = store.GetRule(ctx, old.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplaceRulesForCard_RejectsTwoActive(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Card A")

	two := []model.BonusRule{
		{Name: "A", IsActive: true, MerchantMatchMode: model.MatchContains, BonusRate: 0.01, RewardUnit: model.RewardCashback},
		{Name: "B", IsActive: true, MerchantMatchMode: model.MatchContains, BonusRate: 0.02, RewardUnit: model.RewardCashback},
	}
	err := store.ReplaceRulesForCard(ctx, card.ID, two)
	assert.ErrorIs(t, err, common.ErrActiveRuleExists)
}
