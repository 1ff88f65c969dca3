package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/config"
	"github.com/marchweiss/perkly/internal/service"
	"github.com/marchweiss/perkly/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/perkly/perkly.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// getDatabase opens the configured database and returns it with a cleanup
// function.
func getDatabase(ctx context.Context) (service.Storage, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			common.LogError(err, "failed to close database", nil)
		}
	}
	return store, cleanup, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
