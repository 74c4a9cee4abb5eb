package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations loads the <version>_<name>.up.sql and .down.sql pairs in fsys.
func Migrations(fsys fs.FS) (*migrate.Migrations, error) {
	ms := migrate.NewMigrations()
	if err := ms.Discover(fsys); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}
	return ms, nil
}

// Migrate applies the migrations in fsys that bun_migrations has not recorded
// yet, holding the migration lock while it runs. It returns the names of the
// migrations it applied.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS) ([]string, error) {
	return withMigrator(ctx, db, fsys, func(m *migrate.Migrator) (*migrate.MigrationGroup, error) {
		return m.Migrate(ctx)
	})
}

// Rollback reverts the most recently applied migration group.
func Rollback(ctx context.Context, db *bun.DB, fsys fs.FS) ([]string, error) {
	return withMigrator(ctx, db, fsys, func(m *migrate.Migrator) (*migrate.MigrationGroup, error) {
		return m.Rollback(ctx)
	})
}

func withMigrator(ctx context.Context, db *bun.DB, fsys fs.FS, run func(*migrate.Migrator) (*migrate.MigrationGroup, error)) (names []string, err error) {
	ms, err := Migrations(fsys)
	if err != nil {
		return nil, err
	}

	m := migrate.NewMigrator(db, ms, migrate.WithMarkAppliedOnSuccess(true))
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if uErr := m.Unlock(context.WithoutCancel(ctx)); uErr != nil {
			err = errors.Join(err, fmt.Errorf("unlock migrations: %w", uErr))
		}
	}()

	group, err := run(m)
	if err != nil {
		return nil, err
	}
	for _, mig := range group.Migrations {
		names = append(names, mig.String())
	}
	return names, nil
}
