package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/config"
	"github.com/sievemoney/sieve/internal/schema"
	"github.com/sievemoney/sieve/internal/store"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <rules.json>",
		Short: "Import a JSON rule file into the SQLite store",
		Long: `Read a rules file in either schema version, normalize it, and load
it into the SQLite rule database, replacing whatever is there. Legacy
v3 files gain synthesized priorities on the way through.`,
		Args: cobra.ExactArgs(1),
		RunE: runMigrate,
	}

	cmd.Flags().String("db", "", "Database path (default: "+defaultDBPath+")")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	collection, err := schema.Decode(data)
	if err != nil {
		return err
	}

	set, err := schema.Normalize(collection)
	if err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("database.path")
	}
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open rule database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.Import(ctx, set); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d rules and %d fallback entries from schema %s into %s",
		len(set.Rules), len(set.Fallbacks), collection.Version, dbPath)))

	return nil
}
