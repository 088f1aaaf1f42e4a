package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir = "pkg/migrate/migrations"
	dialect    = "postgres"
)

// goose keeps its dialect in package state, so every entry point sets it before use.
func prepare(db *sql.DB, dir string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command such as up, down, status or redo against db.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if err := prepare(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to target, which must be 0 or the version of a
// migration in dir.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, target string) error {
	version, err := parseVersion(target)
	if err != nil {
		return err
	}
	if version != 0 {
		files, err := scanDir(dir)
		if err != nil {
			return err
		}
		known := slices.ContainsFunc(files, func(f migrationFile) bool { return f.version == version })
		if !known {
			return fmt.Errorf("no migration with version %d in %q", version, dir)
		}
	}
	if err := prepare(db, dir); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current < version:
		if err := goose.UpToContext(ctx, db, dir, version); err != nil {
			return fmt.Errorf("goose up-to %d: %w", version, err)
		}
	case current > version:
		if err := goose.DownToContext(ctx, db, dir, version); err != nil {
			return fmt.Errorf("goose down-to %d: %w", version, err)
		}
	}
	return nil
}

// parseVersion accepts "0" or a YYYYMMDDHHMMSS timestamp as written by CreateSQLMigration.
func parseVersion(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("target version is required")
	}
	if raw == "0" {
		return 0, nil
	}
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", raw, err)
	}
	return strconv.ParseInt(raw, 10, 64)
}
