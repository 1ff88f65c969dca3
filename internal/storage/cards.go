package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/model"
)

// CreateCard creates a new card, assigning an ID and timestamps.
func (s *SQLiteStorage) CreateCard(ctx context.Context, card *model.Card) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}

	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, issuer, last_four, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		card.ID, card.Name, card.Issuer, card.LastFour, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// GetCard retrieves a card by ID.
func (s *SQLiteStorage) GetCard(ctx context.Context, id string) (*model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var card model.Card
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, issuer, last_four, created_at, updated_at FROM cards WHERE id = ?`, id).
		Scan(&card.ID, &card.Name, &card.Issuer, &card.LastFour, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// GetCards retrieves all cards ordered by name.
func (s *SQLiteStorage) GetCards(ctx context.Context) ([]model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, issuer, last_four, created_at, updated_at FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		var card model.Card
		if err := rows.Scan(&card.ID, &card.Name, &card.Issuer, &card.LastFour,
			&card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return cards, nil
}

// DeleteCard removes a card along with its rules and transactions.
func (s *SQLiteStorage) DeleteCard(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range []string{
		"DELETE FROM bonus_rules WHERE card_id = ?",
		"DELETE FROM transactions WHERE card_id = ?",
		"DELETE FROM cards WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
	}

	return tx.Commit()
}
