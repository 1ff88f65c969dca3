package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/service"
)

// SaveTransactions persists transactions, skipping duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO transactions (id, card_id, hash, date, description, category, amount, is_payment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.CardID, txn.Hash, txn.Date, txn.Description,
			txn.Category, txn.Amount, txn.IsPayment); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, card_id, hash, date, description, category, amount, is_payment, created_at
		FROM transactions`
	var conditions []string
	var args []any

	if filter.CardID != "" {
		conditions = append(conditions, "card_id = ?")
		args = append(args, filter.CardID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date < ?")
		args = append(args, *filter.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var category *string
		var createdAt *time.Time
		if err := rows.Scan(&txn.ID, &txn.CardID, &txn.Hash, &txn.Date, &txn.Description,
			&category, &txn.Amount, &txn.IsPayment, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if category != nil {
			txn.Category = *category
		}
		if createdAt != nil {
			txn.CreatedAt = *createdAt
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// GetTransactionsByCard retrieves a card's transactions matching the filter.
func (s *SQLiteStorage) GetTransactionsByCard(ctx context.Context, cardID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateString(cardID, "cardID"); err != nil {
		return nil, err
	}
	filter.CardID = cardID
	return s.GetTransactions(ctx, filter)
}

// DeleteTransaction removes a transaction by ID.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}
