// Package storage implements the storage collaborator (spec §6.1) over
// SQLite, grounded in the teacher's pkg/database package. Content blobs
// are zstd-compressed before they touch the content column and
// transparently decompressed on read, so the room never has to know the
// wire format differs from the on-disk one (spec §C.3).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rbitr/altdocs/internal/collab"
)

// SQLiteStorage is a collab.Storage implementation backed by SQLite.
type SQLiteStorage struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New opens (and migrates) a SQLite database at uri.
func New(uri string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", uri)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases (used by tests) and an
	// empty path from handing out a fresh, empty database per connection
	// from the pool.
	db.SetMaxOpenConns(1)
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &SQLiteStorage{db: db, encoder: enc, decoder: dec}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	s.decoder.Close()
	return s.db.Close()
}

// FetchDocument implements collab.Storage.
func (s *SQLiteStorage) FetchDocument(ctx context.Context, id string) (*collab.PersistedDocument, error) {
	var title, ownerID string
	var compressed []byte

	err := s.db.QueryRowContext(ctx,
		"SELECT title, owner_id, content FROM document WHERE id = ?", id,
	).Scan(&title, &ownerID, &compressed)
	if err == sql.ErrNoRows {
		return nil, collab.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	content, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress content: %w", err)
	}

	return &collab.PersistedDocument{ID: id, Title: title, Content: content, OwnerID: ownerID}, nil
}

// SaveDocument implements collab.Storage. It is the caller's (client's
// admin API) entry point, not something the room itself invokes (spec
// §6.1: "called by clients out-of-band; the room is not involved").
func (s *SQLiteStorage) SaveDocument(ctx context.Context, id, title string, content []byte) error {
	compressed := s.encoder.EncodeAll(content, nil)
	now := time.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document (id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at
	`, id, title, compressed, now, now)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_version (document_id, version, content, created_at)
		VALUES (?, (SELECT COALESCE(MAX(version), 0) + 1 FROM document_version WHERE document_id = ?), ?, ?)
	`, id, id, compressed, now)
	if err != nil {
		return fmt.Errorf("save document version: %w", err)
	}
	return nil
}

// Count returns the total number of stored documents, for /api/stats-style
// reporting.
func (s *SQLiteStorage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document").Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}
