package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/pressly/goose/v3"
)

// migrationsFS holds the versioned schema. Files follow goose's
// NNNNN_name.sql convention with "-- +goose Up/Down" sections.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnknownMigrationCommand is returned by RunMigrations for unsupported commands.
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

func (db *DB) migrationProvider() (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db.DB.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies every pending migration and returns how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	db.logger.Info("running database migrations")

	p, err := db.migrationProvider()
	if err != nil {
		return 0, err
	}

	results, err := p.Up(ctx)
	db.logResults(results)
	if err != nil {
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return len(results), fmt.Errorf("read schema version: %w", err)
	}

	db.logger.Info("migrations complete",
		slog.Int("applied", len(results)),
		slog.Int64("version", version),
	)

	return len(results), nil
}

// RunMigrations executes a goose-style migration command against the
// embedded schema. Supported commands: up, up-by-one, up-to VERSION, down,
// down-to VERSION, reset, status, version.
func (db *DB) RunMigrations(ctx context.Context, command string, args ...string) error {
	p, err := db.migrationProvider()
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		db.logResults(results)
		return err

	case "up-by-one":
		result, err := p.UpByOne(ctx)
		db.logResults([]*goose.MigrationResult{result})
		return err

	case "up-to", "down-to":
		if len(args) == 0 {
			return fmt.Errorf("%s requires a VERSION argument", command)
		}
		version, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("version must be a number (got %q)", args[0])
		}
		var results []*goose.MigrationResult
		if command == "up-to" {
			results, err = p.UpTo(ctx, version)
		} else {
			results, err = p.DownTo(ctx, version)
		}
		db.logResults(results)
		return err

	case "down":
		result, err := p.Down(ctx)
		db.logResults([]*goose.MigrationResult{result})
		return err

	case "reset":
		results, err := p.DownTo(ctx, 0)
		db.logResults(results)
		return err

	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			db.logger.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("path", s.Source.Path),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt),
			)
		}
		return nil

	case "version":
		version, err := p.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		db.logger.Info("schema version", slog.Int64("version", version))
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigrationCommand, command)
	}
}

func (db *DB) logResults(results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		db.logger.Info("migration",
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			slog.String("direction", r.Direction),
			slog.Duration("duration", r.Duration),
		)
	}
}
