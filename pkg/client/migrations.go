// ABOUTME: Schema versioning for the local state database.
// ABOUTME: Migrations are embedded NNN_name.sql files applied in version order.

package client

import (
	"cmp"
	"database/sql"
	"embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type schemaMigration struct {
	version int
	name    string
	script  string
}

// embeddedMigrations lists the embedded scripts ordered by version. Files
// that don't follow the NNN_name.sql pattern are ignored.
func embeddedMigrations() ([]schemaMigration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var out []schemaMigration
	for _, entry := range entries {
		base, ok := strings.CutSuffix(entry.Name(), ".sql")
		if entry.IsDir() || !ok {
			continue
		}
		num, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(num)
		if err != nil || version <= 0 {
			continue
		}

		script, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		out = append(out, schemaMigration{version: version, name: name, script: string(script)})
	}

	slices.SortFunc(out, func(a, b schemaMigration) int { return cmp.Compare(a.version, b.version) })
	return out, nil
}

func schemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var version int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// applyMigration runs one script and records it in the same transaction
func applyMigration(db *sql.DB, m schemaMigration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.script); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateState brings the state database up to the newest embedded version
func migrateState(db *sql.DB, logger *zap.Logger) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}

	migrations, err := embeddedMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		logger.Info("applying state migration", zap.Int("version", m.version), zap.String("name", m.name))
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %03d_%s failed: %w", m.version, m.name, err)
		}
		current = m.version
	}

	logger.Debug("state schema up to date", zap.Int("version", current))
	return nil
}
