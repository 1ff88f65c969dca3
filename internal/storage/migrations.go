package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS cards (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					issuer TEXT,
					last_four TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					card_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					category TEXT,
					amount REAL NOT NULL,
					is_payment INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (card_id) REFERENCES cards(id)
				)`,
				`CREATE INDEX idx_transactions_card_date ON transactions(card_id, date)`,

				`CREATE TABLE IF NOT EXISTS bonus_rules (
					id TEXT PRIMARY KEY,
					card_id TEXT NOT NULL,
					name TEXT NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 0,
					min_spend REAL NOT NULL DEFAULT 0,
					max_bonus_spend REAL,
					min_merchant_count INTEGER NOT NULL DEFAULT 0,
					merchant_match_mode TEXT NOT NULL,
					qualifying_merchants TEXT NOT NULL DEFAULT '[]',
					qualifying_categories TEXT NOT NULL DEFAULT '[]',
					exclude_keywords TEXT NOT NULL DEFAULT '[]',
					exclude_payments INTEGER NOT NULL DEFAULT 1,
					bonus_rate REAL NOT NULL DEFAULT 0,
					base_rate REAL NOT NULL DEFAULT 0,
					reward_unit TEXT NOT NULL,
					miles_per_dollar REAL,
					points_to_miles_ratio REAL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					FOREIGN KEY (card_id) REFERENCES cards(id)
				)`,
				`CREATE INDEX idx_bonus_rules_card ON bonus_rules(card_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Enforce one active rule per card",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bonus_rules_one_active
				ON bonus_rules(card_id) WHERE is_active = 1`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Index payments for period aggregation queries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_payment
				ON transactions(card_id, is_payment)`)
			return err
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		description TEXT,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Debug("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
