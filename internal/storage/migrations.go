package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rbitr/altdocs/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaVersion is a migration's encoded version number: the numeric
// filename prefix (the "2" in "2_add_shares.sql"), not its position in a
// directory listing.
type schemaVersion int

type migrationFile struct {
	version  schemaVersion
	filename string
}

// migrate applies every pending migration in its own transaction, so a
// failing statement can never leave schema_migrations reporting a version
// whose DDL didn't actually commit.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			filename TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current schemaVersion
	db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)

	pending, err := pendingMigrations(current)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
		logger.Info("applied migration %d (%s)", m.version, m.filename)
	}

	if len(pending) == 0 {
		logger.Debug("schema up to date (version %d)", current)
	}
	return nil
}

// pendingMigrations parses every embedded migration's numeric filename
// prefix into a schemaVersion and returns those newer than current, sorted
// ascending by version. A malformed or duplicate prefix is a startup error
// rather than a silently skipped or misordered file.
func pendingMigrations(current schemaVersion) ([]migrationFile, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	files := make([]migrationFile, 0, len(entries))
	seen := make(map[schemaVersion]string, len(entries))
	for _, entry := range entries {
		version, err := parseVersion(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", entry.Name(), err)
		}
		if prior, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s both claim version %d", prior, entry.Name(), version)
		}
		seen[version] = entry.Name()
		files = append(files, migrationFile{version: version, filename: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })

	pending := files[:0]
	for _, f := range files {
		if f.version > current {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// parseVersion extracts the numeric prefix before the first underscore,
// e.g. "2_add_shares.sql" -> 2.
func parseVersion(filename string) (schemaVersion, error) {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 0, fmt.Errorf("filename %q missing version prefix", filename)
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("filename %q has non-numeric version prefix: %w", filename, err)
	}
	return schemaVersion(n), nil
}

// applyMigration runs one migration file's DDL and records it inside a
// single transaction.
func applyMigration(ctx context.Context, db *sql.DB, m migrationFile) error {
	content, err := migrationsFS.ReadFile(filepath.Join("migrations", m.filename))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.filename, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.filename, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("migration %s: %w", m.filename, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, filename, applied_at) VALUES (?, ?, ?)",
		m.version, m.filename, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("record migration %s: %w", m.filename, err)
	}
	return tx.Commit()
}
