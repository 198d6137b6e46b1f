// Package main contains the sieve CLI commands.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/config"
	"github.com/sievemoney/sieve/internal/engine"
	"github.com/sievemoney/sieve/internal/store"
)

const defaultDBPath = "$HOME/.local/share/sieve/rules.db"

// openStore builds the configured rule store. The returned cleanup
// function must be called when done (it closes the database for the
// sqlite backend).
func openStore(ctx context.Context) (store.Store, func(), error) {
	backend := viper.GetString("rules.store")

	switch backend {
	case "", "file":
		path := config.ExpandPath(viper.GetString("rules.path"))
		if path == "" {
			return nil, nil, common.NewUserError(
				"no rules file configured (set rules.path or pass --rules)",
				common.ErrMissingConfig)
		}
		return store.NewFileStore(path), func() {}, nil

	case "sqlite":
		dbPath := viper.GetString("database.path")
		if dbPath == "" {
			dbPath = defaultDBPath
		}
		dbPath = config.ExpandPath(dbPath)

		db, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open rule database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return db, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown rule store %q", common.ErrInvalidConfig, backend)
	}
}

// newClassifier wires the configured store into a classifier.
func newClassifier(ctx context.Context) (*engine.Classifier, func(), error) {
	s, cleanup, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(s), cleanup, nil
}
