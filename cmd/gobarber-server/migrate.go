package main

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"gobarber/backend/internal/store/postgres"
	"gobarber/backend/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, "migrations applied", postgres.Migrate)
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the last applied migration group",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, "migrations rolled back", postgres.Rollback)
	},
}

func init() {
	migrateCmd.AddCommand(rollbackCmd)
}

func runMigrations(cmd *cobra.Command, msg string, run func(context.Context, *bun.DB, fs.FS) ([]string, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	names, err := run(ctx, db, migrations.FS)
	if err != nil {
		return err
	}
	log.Info(msg, slog.Int("count", len(names)), slog.Any("migrations", names))
	return nil
}
