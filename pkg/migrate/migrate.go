package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir = "pkg/migrate/migrations"

	// Stock guards, void columns and the outbox tables are Postgres DDL.
	dialect = "postgres"
)

func prepare(db *sql.DB, dir string) error {
	if db == nil {
		return errors.New("migrate: db is required")
	}
	if dir == "" {
		return errors.New("migrate: dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: dialect %s: %w", dialect, err)
	}
	return nil
}

// Run executes a goose command (up, down, status, redo, ...) against db.
// goose writes its own progress lines to stdout.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if err := prepare(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// CurrentVersion reports the newest applied migration version.
func CurrentVersion(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errors.New("migrate: db is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("migrate: dialect %s: %w", dialect, err)
	}
	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// MigrateToVersion walks the schema up or down until it sits at
// targetVersion, a YYYYMMDDHHMMSS migration stamp.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := prepare(db, dir); err != nil {
		return err
	}

	current, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	if current < target {
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	} else if current > target {
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
