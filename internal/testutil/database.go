// Package testutil provides shared test utilities for the perkly project.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/storage"
)

// SetupTestDB creates a new in-memory test database. It automatically
// handles migrations and cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedCard creates a card for tests and returns it.
func SeedCard(t *testing.T, store *storage.SQLiteStorage, name string) *model.Card {
	t.Helper()

	card := &model.Card{Name: name, Issuer: "Test Bank", LastFour: "0000"}
	if err := store.CreateCard(context.Background(), card); err != nil {
		t.Fatalf("failed to seed card %q: %v", name, err)
	}
	return card
}

// Txn builds a transaction for tests.
func Txn(cardID string, date time.Time, description string, amount float64, isPayment bool) model.Transaction {
	return model.Transaction{
		CardID:      cardID,
		Date:        date,
		Description: description,
		Amount:      amount,
		IsPayment:   isPayment,
	}
}
