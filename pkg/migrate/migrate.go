package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

const DefaultDir = "migrations"

// Dialect maps a configured database driver to its goose dialect.
func Dialect(driver string) (string, error) {
	switch driver {
	case config.DBDriverPostgres, "":
		return "postgres", nil
	case config.DBDriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no goose dialect for driver %q", driver)
}

func prepare(driver string) error {
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status, redo, ...) against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, driver string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := prepare(driver); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, DefaultDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	if err := prepare(driver); err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, DefaultDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, DefaultDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
