package reward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/testutil"
)

func TestEngine_ProgressForCard(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Everyday Card")

	rule := cappedContainsRule()
	rule.ID = ""
	rule.CardID = card.ID
	require.NoError(t, store.CreateRule(ctx, rule))

	june := func(day int) time.Time {
		return time.Date(2025, time.June, day, 12, 0, 0, 0, time.Local)
	}
	txns := []model.Transaction{
		testutil.Txn(card.ID, june(3), "CoffeeCo Orchard", 200, false),
		testutil.Txn(card.ID, june(8), "MartX Express", 300, false),
		testutil.Txn(card.ID, june(12), "Voucher MartX Redeem", 150, false),
		testutil.Txn(card.ID, june(20), "Random Store", 100, false),
		testutil.Txn(card.ID, june(25), "Full payment", 250, true),
		// Previous month, must not be visible.
		testutil.Txn(card.ID, time.Date(2025, time.May, 20, 12, 0, 0, 0, time.Local), "CoffeeCo Orchard", 400, false),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	engine := NewEngine(store, store)
	p, err := engine.ProgressForCard(ctx, card.ID, Period{Year: 2025, Month: time.June})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.InDelta(t, 750, p.TotalSpend, 0.001)
	assert.InDelta(t, 500, p.QualifyingSpend, 0.001)
	assert.Equal(t, model.StatusSweetSpot, p.Status)
	assert.Equal(t, []string{"CoffeeCo", "MartX"}, p.MerchantsUsed)
	assert.InDelta(t, 50, p.EstimatedBonus, 0.001)
}

func TestEngine_NoActiveRule(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Dormant Card")

	rule := cappedContainsRule()
	rule.ID = ""
	rule.CardID = card.ID
	rule.IsActive = false
	require.NoError(t, store.CreateRule(ctx, rule))

	engine := NewEngine(store, store)
	p, err := engine.ProgressForCard(ctx, card.ID, CurrentPeriod())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestEngine_EmptyPeriod(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	card := testutil.SeedCard(t, store, "Fresh Card")

	rule := cappedContainsRule()
	rule.ID = ""
	rule.CardID = card.ID
	require.NoError(t, store.CreateRule(ctx, rule))

	engine := NewEngine(store, store)
	p, err := engine.ProgressForCard(ctx, card.ID, Period{Year: 2025, Month: time.June})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Zero(t, p.TotalSpend)
	assert.Equal(t, model.StatusBelowMinimum, p.Status)
}
